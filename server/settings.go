package server

import (
	"context"
	"errors"

	"github.com/quailhq/sitegate/models"
	"gorm.io/gorm"
)

// getSettings loads the singleton settings row. A missing row falls back to
// the configured default rather than erroring, so a fresh database behaves
// sanely before the admin ever touches it.
func (s *Server) getSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := s.db.First(ctx, &settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Settings{RequireLogin: s.config.RequireLogin}, nil
		}
		return nil, err
	}

	return &settings, nil
}

package server

import (
	"crypto/subtle"
	"time"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/models"
)

func (s *Server) handleAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(e echo.Context) error {
		username, password, ok := e.Request().BasicAuth()
		if !ok || username != "admin" ||
			subtle.ConstantTimeCompare([]byte(password), []byte(s.config.AdminPassword)) != 1 {
			return helpers.AuthError(e, to.StringPtr("Unauthorized"))
		}

		if err := next(e); err != nil {
			e.Error(err)
		}

		return nil
	}
}

func (s *Server) handleAdminGetSettings(e echo.Context) error {
	settings, err := s.getSettings(e.Request().Context())
	if err != nil {
		s.logger.Error("error loading site settings", "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, settings)
}

type AdminSettingsRequest struct {
	RequireLogin bool `json:"requireLogin"`
}

func (s *Server) handleAdminPutSettings(e echo.Context) error {
	ctx := e.Request().Context()
	logger := s.logger.With("name", "handleAdminPutSettings")

	var req AdminSettingsRequest
	if err := e.Bind(&req); err != nil {
		logger.Error("error binding settings request", "error", err)
		return helpers.InputError(e, nil)
	}

	settings := models.Settings{
		ID:           1,
		RequireLogin: req.RequireLogin,
		UpdatedAt:    time.Now(),
	}

	if err := s.db.Save(ctx, &settings, nil).Error; err != nil {
		logger.Error("error saving settings", "error", err)
		return helpers.ServerError(e, nil)
	}

	logger.Info("site settings updated", "requireLogin", settings.RequireLogin)

	return e.JSON(200, settings)
}

func (s *Server) handleAdminListMessages(e echo.Context) error {
	ctx := e.Request().Context()

	var messages []models.ContactMessage
	if err := s.db.Raw(ctx, "SELECT * FROM contact_messages ORDER BY created_at DESC LIMIT 200", nil).Scan(&messages).Error; err != nil {
		s.logger.Error("error listing contact messages", "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, messages)
}

func (s *Server) handleAdminDeleteMessage(e echo.Context) error {
	ctx := e.Request().Context()

	res := s.db.Exec(ctx, "DELETE FROM contact_messages WHERE id = ?", nil, e.Param("id"))
	if res.Error != nil {
		s.logger.Error("error deleting contact message", "error", res.Error)
		return helpers.ServerError(e, nil)
	}

	if res.RowsAffected == 0 {
		return helpers.NotFoundError(e, nil)
	}

	return e.JSON(200, map[string]string{"message": "Deleted"})
}

package server

import (
	"errors"
	"fmt"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/models"
)

type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// handleContact backs the public contact form. The row is the source of
// truth; the SMTP notification is best-effort.
func (s *Server) handleContact(e echo.Context) error {
	ctx := e.Request().Context()
	logger := s.logger.With("name", "handleContact")

	var req ContactRequest
	if err := e.Bind(&req); err != nil {
		logger.Error("error binding contact request", "error", err)
		return helpers.ServerError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) && verr.Field == "Email" {
			return helpers.InputError(e, to.StringPtr("InvalidEmail"))
		}
		return helpers.InputError(e, to.StringPtr("InvalidRequest"))
	}

	msg := models.ContactMessage{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}

	if err := s.db.Create(ctx, &msg, nil).Error; err != nil {
		logger.Error("error saving contact message", "error", err)
		return helpers.ServerError(e, nil)
	}

	if s.mail != nil {
		if err := s.sendContactNotification(msg); err != nil {
			logger.Error("error sending contact notification", "error", err, "id", msg.ID)
		}
	}

	return e.JSON(200, map[string]string{"message": "Message received", "id": msg.ID})
}

func (s *Server) sendContactNotification(msg models.ContactMessage) error {
	s.mailLk.Lock()
	defer s.mailLk.Unlock()

	s.mail.To(s.config.SmtpEmail)
	s.mail.Subject("New contact message from " + msg.Name)
	s.mail.Plain().Set(fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message))

	return s.mail.Send()
}

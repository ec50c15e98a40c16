package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/internal/token"
)

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// handleLogin exchanges the site password for the long-lived site cookie.
// The cookie value is "<password>:<unix-millis>"; everything downstream
// verifies it by hashing the first part against the stored hash.
func (s *Server) handleLogin(e echo.Context) error {
	logger := s.logger.With("name", "handleLogin")

	var req LoginRequest
	if err := e.Bind(&req); err != nil {
		logger.Error("error binding login request", "error", err)
		return helpers.ServerError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidRequest"))
	}

	if err := s.codec.VerifySitePassword(req.Password); err != nil {
		if errors.Is(err, token.ErrServerMisconfigured) {
			logger.Error("login attempted without secure token hash configured")
			return helpers.ConfigError(e)
		}

		logger.Warn("login attempt with wrong password")
		return helpers.AuthError(e, to.StringPtr("InvalidPassword"))
	}

	e.SetCookie(&http.Cookie{
		Name:     siteCookieName,
		Value:    req.Password + ":" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Path:     "/",
		MaxAge:   int(s.config.CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return e.JSON(200, map[string]string{"message": "Logged in"})
}

package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/internal/token"
)

type WebTokenResponse struct {
	Token string `json:"token"`
}

// handleWebToken exchanges a valid site cookie for a short-lived JWT with
// client "web". When login is not required, or the request comes from a
// public page (judged by referer), no cookie is needed. GET only: the
// credential rides in a cookie, nothing secret touches the URL.
func (s *Server) handleWebToken(e echo.Context) error {
	logger := s.logger.With("name", "handleWebToken")

	settings, err := s.getSettings(e.Request().Context())
	if err != nil {
		logger.Error("error loading site settings", "error", err)
		return helpers.ServerError(e, nil)
	}

	if settings.RequireLogin && !isPublicJwtReferer(e.Request().Referer()) {
		cookie, err := e.Request().Cookie(siteCookieName)
		if err != nil || cookie.Value == "" {
			logger.Warn("token request without site cookie")
			return helpers.AuthError(e, to.StringPtr("MissingCookie"))
		}

		if err := s.codec.VerifySiteCookie(cookie.Value); err != nil {
			switch {
			case errors.Is(err, token.ErrServerMisconfigured):
				logger.Error("site cookie check attempted without secure token hash")
				return helpers.ConfigError(e)
			case errors.Is(err, token.ErrInvalidFormat):
				logger.Warn("rejected site cookie", "reason", "invalid format")
				return helpers.AuthError(e, to.StringPtr("InvalidCookieFormat"))
			case errors.Is(err, token.ErrHashMismatch):
				logger.Warn("rejected site cookie", "reason", "hash mismatch")
				return helpers.AuthError(e, to.StringPtr("CookieHashMismatch"))
			case errors.Is(err, token.ErrExpired):
				logger.Warn("rejected site cookie", "reason", "expired")
				return helpers.AuthError(e, to.StringPtr("CookieExpired"))
			default:
				logger.Error("unexpected cookie verification error", "error", err)
				return helpers.AuthError(e, nil)
			}
		}
	}

	signed, err := s.codec.IssueJWT(token.ClientWeb)
	if err != nil {
		if errors.Is(err, token.ErrServerMisconfigured) {
			logger.Error("token issuance attempted without secure token")
			return helpers.ConfigError(e)
		}

		logger.Error("error signing token", "error", err)
		return helpers.SigningError(e)
	}

	return e.JSON(200, WebTokenResponse{Token: signed})
}

package server

import (
	"errors"
	"strings"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/internal/token"
)

const siteSecretHeader = "X-Site-Secret"

type ClientTokenRequest struct {
	Secret string `json:"secret"`
	SiteID string `json:"siteId"`
}

type ClientTokenResponse struct {
	Token  string `json:"token"`
	Client string `json:"client"`
}

// handleClientToken exchanges a shared secret (direct or derived) for a
// short-lived JWT identifying the caller's client type. POST only so the
// secret travels in a header or body, never a URL that access logs and
// browser history would keep.
func (s *Server) handleClientToken(e echo.Context) error {
	logger := s.logger.With("name", "handleClientToken")

	var req ClientTokenRequest
	if err := e.Bind(&req); err != nil {
		// a body is optional when the secret arrives in a header
		logger.Warn("error binding client token request", "error", err)
	}

	// tenant check first. the mismatch message is a routing hint, safe to
	// return verbatim.
	if req.SiteID != "" && s.config.SiteID != "" && req.SiteID != s.config.SiteID {
		logger.Warn("client token request for wrong site", "requested", req.SiteID)
		return helpers.ForbiddenError(e, to.StringPtr("SiteMismatch"))
	}

	secret := extractClientSecret(e, &req)
	if secret == "" {
		logger.Warn("client token request without a secret")
		return helpers.ForbiddenError(e, to.StringPtr("NoSecretProvided"))
	}

	client, err := s.codec.ResolveClient(secret)
	if err != nil {
		if errors.Is(err, token.ErrServerMisconfigured) {
			logger.Error("client token issuance attempted without secure token material")
			return helpers.ConfigError(e)
		}

		logger.Warn("client token request with invalid secret")
		return helpers.ForbiddenError(e, to.StringPtr("InvalidSecret"))
	}

	signed, err := s.codec.IssueJWT(client)
	if err != nil {
		if errors.Is(err, token.ErrServerMisconfigured) {
			logger.Error("token issuance attempted without secure token")
			return helpers.ConfigError(e)
		}

		logger.Error("error signing token", "error", err)
		return helpers.SigningError(e)
	}

	return e.JSON(200, ClientTokenResponse{Token: signed, Client: client})
}

// extractClientSecret checks, in order of precedence, the dedicated header,
// the body field, and a Bearer-style Authorization header.
func extractClientSecret(e echo.Context, req *ClientTokenRequest) string {
	if secret := e.Request().Header.Get(siteSecretHeader); secret != "" {
		return secret
	}

	if req.Secret != "" {
		return req.Secret
	}

	if auth := e.Request().Header.Get("authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}

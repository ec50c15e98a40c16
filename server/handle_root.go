package server

import (
	"github.com/labstack/echo/v4"
	"github.com/quailhq/sitegate/internal/helpers"
	"github.com/quailhq/sitegate/internal/token"
)

func (s *Server) handleRoot(e echo.Context) error {
	return e.JSON(200, map[string]string{
		"service": "sitegate",
		"version": s.config.Version,
	})
}

func (s *Server) handleHealth(e echo.Context) error {
	return e.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleRobots(e echo.Context) error {
	return e.String(200, "User-agent: *\nDisallow: /api/\n")
}

// handleSession echoes the verified claims the gate attached, so the
// first-party client can display auth state.
func (s *Server) handleSession(e echo.Context) error {
	claims, ok := e.Get("claims").(*token.Claims)
	if !ok {
		// only reachable when login is not required and the gate let the
		// request through without a bearer token
		return helpers.AuthError(e, nil)
	}

	if claims.IssuedAt == nil {
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, map[string]any{
		"client": claims.Client,
		"iat":    claims.IssuedAt.Unix(),
	})
}

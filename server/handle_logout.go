package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// handleLogout clears the site cookie under both its current and legacy
// names. Expiry goes to the epoch so stale copies die everywhere.
func (s *Server) handleLogout(e echo.Context) error {
	for _, name := range []string{siteCookieName, legacyCookieName} {
		e.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
		})
	}

	return e.JSON(200, map[string]string{"message": "Logged out"})
}

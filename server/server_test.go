package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/quailhq/sitegate/internal/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-site-secret"
	testAdminPassword = "test-admin-password"
)

func newTestServer(t *testing.T, mutate func(*Args)) *Server {
	t.Helper()

	args := &Args{
		Addr:            ":0",
		DbName:          filepath.Join(t.TempDir(), "sitegate-test.db"),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})),
		SecureToken:     testSecret,
		SecureTokenHash: token.HashToken(testSecret),
		SiteID:          "site-1",
		AdminPassword:   testAdminPassword,
		CookieMaxAge:    720 * time.Hour,
		RequireLogin:    true,
	}
	if mutate != nil {
		mutate(args)
	}

	s, err := New(args)
	require.NoError(t, err)
	require.NoError(t, s.migrate())
	s.addRoutes()

	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func freshSiteCookie() *http.Cookie {
	return &http.Cookie{
		Name:  siteCookieName,
		Value: testSecret + ":" + strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

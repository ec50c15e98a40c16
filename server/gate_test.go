package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOpenPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/":                   true,
		"/health":             true,
		"/api/token":          true,
		"/api/client-token":   true,
		"/api/login":          true,
		"/contact":            true,
		"/audio/episode.mp3":  true,
		"/answers/abc123":     true,
		"/api/admin/settings": true,
		"/api/session":        false,
		"/some/page":          false,
		"/api/chat":           false,
	} {
		assert.Equal(t, want, isOpenPath(path), "path %s", path)
	}
}

func TestIsPublicJwtReferer(t *testing.T) {
	for referer, want := range map[string]bool{
		"":                                   false,
		"https://example.com/contact":        true,
		"https://example.com/audio/ep1.mp3":  true,
		"https://example.com/answers/xyz":    true,
		"https://example.com/some/protected": false,
		"https://example.com/":               false,
	} {
		assert.Equal(t, want, isPublicJwtReferer(referer), "referer %q", referer)
	}
}

func TestGateOpenPathNeedsNoCredential(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 200, rec.Code)
}

func TestGateAPIRequiresBearer(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, 401, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec = doRequest(s, req)
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidToken")
}

func TestGateAPIAcceptsIssuedToken(t *testing.T) {
	s := newTestServer(t, nil)

	tokReq := httptest.NewRequest(http.MethodGet, "/api/token", nil)
	tokReq.AddCookie(freshSiteCookie())
	tokRec := doRequest(s, tokReq)
	require.Equal(t, 200, tokRec.Code)
	issued := decodeBody(t, tokRec)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+issued)
	rec := doRequest(s, req)
	require.Equal(t, 200, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "web", body["client"])
	assert.NotZero(t, body["iat"])
}

func TestGatePageRedirectsToLogin(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/some/page", nil))
	require.Equal(t, 303, rec.Code)
	assert.Equal(t, "/login?next=%2Fsome%2Fpage", rec.Header().Get("Location"))
}

func TestGatePageAcceptsSiteCookie(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/some/page", nil)
	req.AddCookie(freshSiteCookie())
	rec := doRequest(s, req)

	// past the gate; nothing is registered there
	assert.Equal(t, 404, rec.Code)
}

func TestGatePageRejectsTamperedCookie(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/some/page", nil)
	req.AddCookie(&http.Cookie{Name: siteCookieName, Value: "wrong-secret:1700000000000"})
	rec := doRequest(s, req)
	assert.Equal(t, 303, rec.Code)
}

func TestGateDisabledWhenLoginNotRequired(t *testing.T) {
	s := newTestServer(t, func(a *Args) { a.RequireLogin = false })

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/some/page", nil))
	assert.Equal(t, 404, rec.Code)
}

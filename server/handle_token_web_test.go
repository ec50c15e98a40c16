package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quailhq/sitegate/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webTokenRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/token", nil)
}

func TestWebTokenWithValidCookie(t *testing.T) {
	s := newTestServer(t, nil)

	req := webTokenRequest()
	req.AddCookie(freshSiteCookie())
	rec := doRequest(s, req)
	require.Equal(t, 200, rec.Code)

	claims, err := s.codec.VerifyJWT(decodeBody(t, rec)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, token.ClientWeb, claims.Client)
}

func TestWebTokenWithoutCookie(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, webTokenRequest())
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "MissingCookie")
}

func TestWebTokenCookieFailureReasons(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct {
		name   string
		cookie string
		reason string
	}{
		{"no separator", "justonepart", "InvalidCookieFormat"},
		{"too many parts", "a:b:c", "InvalidCookieFormat"},
		{"wrong secret", "wrong-secret:1700000000000", "CookieHashMismatch"},
		{"stale timestamp", testSecret + ":1000000000000", "CookieExpired"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := webTokenRequest()
			req.AddCookie(&http.Cookie{Name: siteCookieName, Value: tc.cookie})
			rec := doRequest(s, req)
			assert.Equal(t, 401, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.reason)
		})
	}
}

func TestWebTokenPublicReferer(t *testing.T) {
	s := newTestServer(t, nil)

	req := webTokenRequest()
	req.Header.Set("Referer", "https://example.com/contact")
	rec := doRequest(s, req)
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")

	req = webTokenRequest()
	req.Header.Set("Referer", "https://example.com/some/protected/page")
	rec = doRequest(s, req)
	assert.Equal(t, 401, rec.Code)
}

func TestWebTokenLoginNotRequiredSkipsCookieCheck(t *testing.T) {
	s := newTestServer(t, func(a *Args) { a.RequireLogin = false })

	// a garbage cookie must not even be looked at
	req := webTokenRequest()
	req.AddCookie(&http.Cookie{Name: siteCookieName, Value: "total:garbage:here"})
	rec := doRequest(s, req)
	require.Equal(t, 200, rec.Code)

	claims, err := s.codec.VerifyJWT(decodeBody(t, rec)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, token.ClientWeb, claims.Client)
}

func TestWebTokenWrongMethod(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/token", nil))
	assert.Equal(t, 405, rec.Code)
}

func TestWebTokenServerMisconfigured(t *testing.T) {
	s := newTestServer(t, func(a *Args) {
		a.SecureToken = ""
		a.SecureTokenHash = ""
	})

	// no credential at all, login not even required to trip it
	req := webTokenRequest()
	req.AddCookie(freshSiteCookie())
	rec := doRequest(s, req)
	assert.Equal(t, 500, rec.Code)
	assert.Contains(t, rec.Body.String(), "Server configuration error")
}

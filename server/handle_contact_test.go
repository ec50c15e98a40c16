package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quailhq/sitegate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestContactPersistsMessage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, contactRequest(`{"name":"Ada","email":"ada@example.com","message":"hello there"}`))
	require.Equal(t, 200, rec.Code)

	id := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, id)

	var msg models.ContactMessage
	require.NoError(t, s.db.First(context.Background(), &msg, "id = ?", id).Error)
	assert.Equal(t, "Ada", msg.Name)
	assert.Equal(t, "ada@example.com", msg.Email)
	assert.Equal(t, "hello there", msg.Message)
}

func TestContactInvalidEmail(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, contactRequest(`{"name":"Ada","email":"not-an-email","message":"hi"}`))
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidEmail")
}

func TestContactMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, contactRequest(`{"name":"Ada"}`))
	assert.Equal(t, 400, rec.Code)
}

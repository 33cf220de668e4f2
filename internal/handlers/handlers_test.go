package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func newTestServer(store Pinger) *Server {
	return &Server{
		Cfg:    &config.Config{StoreBackend: config.StoreMemory, Timezone: time.UTC},
		Val:    validation.New(time.UTC),
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens: auth.NewManager("secret", 15*time.Minute, time.Hour, "test"),
		Creds:  auth.Credentials{User: "owner", Password: "correct-horse"},
		Store:  store,
	}
}

func TestAdminLoginIssuesTokens(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login",
		strings.NewReader(`{"username":"owner","password":"correct-horse"}`))
	rec := httptest.NewRecorder()
	s.AdminLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body AdminLoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.AccessToken)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = c.HttpOnly
	}
	assert.True(t, names[auth.AccessCookie])
	assert.True(t, names[auth.RefreshCookie])

	gate := &auth.Gate{Tokens: s.Tokens}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+body.AccessToken)
	p, ok := gate.Verify(r)
	assert.True(t, ok)
	assert.Equal(t, "owner", p.Subject)
}

func TestAdminLoginRejects(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"owner","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.Creds = auth.Credentials{}
	rec = httptest.NewRecorder()
	s.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a","password":"b"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRefresh(t *testing.T) {
	s := newTestServer(nil)

	rec := httptest.NewRecorder()
	s.AdminRefresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	access, err := s.Tokens.NewAccessToken("owner")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: access})
	rec = httptest.NewRecorder()
	s.AdminRefresh(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	refresh, err := s.Tokens.NewRefreshToken("owner")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: refresh})
	rec = httptest.NewRecorder()
	s.AdminRefresh(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminLogoutClearsCookies(t *testing.T) {
	s := newTestServer(nil)
	rec := httptest.NewRecorder()
	s.AdminLogout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(fakePinger{}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestServer(fakePinger{err: errors.New("down")}).Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSlots(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).Slots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/slots", nil))

	var body slotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Slots, 16)
	assert.Equal(t, "09:00", body.Slots[0])
	assert.Equal(t, "16:30", body.Slots[15])
}

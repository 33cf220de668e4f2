package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(now time.Time) *Manager {
	m := NewManager("test-secret", 15*time.Minute, 24*time.Hour, "portfolio-test")
	m.now = func() time.Time { return now }
	return m
}

func TestManagerIssuesAndParsesTokens(t *testing.T) {
	m := newTestManager(time.Now())

	access, err := m.NewAccessToken("owner")
	require.NoError(t, err)
	claims, err := m.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "owner", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = m.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrWrongTokenKind)

	refresh, err := m.NewRefreshToken("owner")
	require.NoError(t, err)
	_, err = m.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	old := newTestManager(issued)
	token, err := old.NewAccessToken("owner")
	require.NoError(t, err)

	current := newTestManager(time.Now())
	_, err = current.ParseAccess(token)
	assert.Error(t, err)

	other := NewManager("another-secret", time.Minute, time.Minute, "x")
	fresh, err := other.NewAccessToken("owner")
	require.NoError(t, err)
	_, err = current.ParseAccess(fresh)
	assert.Error(t, err)
}

func TestCredentialsCheck(t *testing.T) {
	plain := Credentials{User: "owner", Password: "s3cret-pass"}
	assert.NoError(t, plain.Check("owner", "s3cret-pass"))
	assert.ErrorIs(t, plain.Check("owner", "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, plain.Check("someone", "s3cret-pass"), ErrBadCredentials)

	hash, err := HashPassword("hashed-pass")
	require.NoError(t, err)
	hashed := Credentials{User: "owner", Password: "ignored", Hash: hash}
	assert.NoError(t, hashed.Check("owner", "hashed-pass"))
	assert.Error(t, hashed.Check("owner", "ignored"))

	assert.ErrorIs(t, Credentials{}.Check("", ""), ErrBadCredentials)
}

func TestGateVerify(t *testing.T) {
	m := newTestManager(time.Now())
	gate := &Gate{AdminKey: "key-123", Tokens: m}
	token, err := m.NewAccessToken("owner")
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		ok     bool
		method string
	}{
		{name: "none", setup: func(r *http.Request) {}},
		{name: "admin key", setup: func(r *http.Request) { r.Header.Set(AdminKeyHeader, "key-123") }, ok: true, method: "key"},
		{name: "wrong key", setup: func(r *http.Request) { r.Header.Set(AdminKeyHeader, "nope") }},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, ok: true, method: "bearer"},
		{name: "bad bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token}) }, ok: true, method: "cookie"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/submissions", nil)
			tc.setup(r)
			p, ok := gate.Verify(r)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.method, p.Method)
			}
		})
	}
}

func TestGateUnconfiguredFailsClosed(t *testing.T) {
	var gate *Gate
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(AdminKeyHeader, "")
	_, ok := gate.Verify(r)
	assert.False(t, ok)

	_, ok = (&Gate{}).Verify(r)
	assert.False(t, ok)
}

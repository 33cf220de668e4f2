package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

const (
	AccessCookie   = "portfolio_access"
	RefreshCookie  = "portfolio_refresh"
	AdminKeyHeader = "X-Admin-Key"
)

// Principal is the authenticated operator behind an admin request.
type Principal struct {
	Subject string
	Method  string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Gate decides whether a request carries a valid admin credential. It
// accepts a bearer token, the access cookie or the static admin key.
type Gate struct {
	AdminKey string
	Tokens   *Manager
}

func (g *Gate) Configured() bool {
	return g != nil && (g.AdminKey != "" || g.Tokens != nil)
}

func (g *Gate) Verify(r *http.Request) (Principal, bool) {
	if !g.Configured() {
		return Principal{}, false
	}

	if g.AdminKey != "" {
		if key := r.Header.Get(AdminKeyHeader); key != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(g.AdminKey)) == 1 {
			return Principal{Subject: "api-key", Method: "key"}, true
		}
	}

	if g.Tokens == nil {
		return Principal{}, false
	}
	if token := bearerToken(r); token != "" {
		if claims, err := g.Tokens.ParseAccess(token); err == nil && claims.Role == RoleAdmin {
			return Principal{Subject: claims.Subject, Method: "bearer"}, true
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		if claims, err := g.Tokens.ParseAccess(cookie.Value); err == nil && claims.Role == RoleAdmin {
			return Principal{Subject: claims.Subject, Method: "cookie"}, true
		}
	}
	return Principal{}, false
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

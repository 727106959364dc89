package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zarakkhan-dev/automated-review-system/pkg/httputil"
)

// SessionCookie holds the signed session token.
const SessionCookie = "jwt"

type authKey struct{}

// Claims is what the auth middleware exposes to handlers.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// TokenValidator verifies a raw token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid session. The token is taken from
// the session cookie, or from an "Authorization: Bearer" header for
// non-browser clients.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputil.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
				return
			}
			claims, err := validate(token)
			if err != nil {
				httputil.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(tok)
	}
	return ""
}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, authKey{}, c)
}

// ClaimsFromContext returns nil on unauthenticated requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(authKey{}).(*Claims)
	return c
}

func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

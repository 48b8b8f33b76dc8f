package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

type userKey struct{}

// UserFrom returns the authenticated user id stored by RequireAuth, or "".
func UserFrom(ctx context.Context) string {
	if v := ctx.Value(userKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireAuth validates a Bearer token signed with HS256 and stores the
// subject claim as the user id. Requests without a valid token are rejected
// with 401; the middleware never falls through on parse errors.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, r, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated), nil)
				return
			}
			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				writeError(w, r, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated), nil)
				return
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				writeError(w, r, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated), nil)
				return
			}
			ctx := context.WithValue(r.Context(), userKey{}, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

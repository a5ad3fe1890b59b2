package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"payslipgen/internal/platform/auth"
	"payslipgen/internal/transport/http/api"
)

// Auth requires a valid HS256 bearer token when secret is set. With an empty
// secret every request passes through unauthenticated.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("bearer token rejected")
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return claims, ok
}

// Package authn resolves bearer tokens into an auth.Principal on the request context.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/http/respond"
	"github.com/MrJamesThe3rd/expensight/internal/user"
)

type TokenVerifier interface {
	Verify(token string) (int64, error)
}

type UserGetter interface {
	Get(ctx context.Context, id int64) (*user.User, error)
}

// Middleware rejects requests without a valid bearer token for an existing user.
// Failures to load the user are server errors, not authentication failures.
func Middleware(tokens TokenVerifier, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respond.Unauthorized(w)
				return
			}

			id, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				respond.Unauthorized(w)
				return
			}

			u, err := users.Get(r.Context(), id)
			if errors.Is(err, user.ErrNotFound) {
				slog.Warn("token for unknown user", "user_id", id)
				respond.Unauthorized(w)

				return
			}

			if err != nil {
				respond.Error(w, r, err)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{
				ID:           u.ID,
				Email:        u.Email,
				BaseCurrency: u.BaseCurrency,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the caller set by Middleware, writing a 401 when absent.
func Principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Unauthorized(w)
	}

	return p, ok
}

package middleware

import (
	"net/http"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/identity"
	"github.com/google/uuid"
)

// IdentityResolver is satisfied by *identity.Resolver.
type IdentityResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (identity.Resolution, error)
}

// WithIdentity resolves the cart owner once per request and stores it in the
// context. Guests without a cookie get one minted on the response.
func WithIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := resolver.Resolve(w, r)
			if err != nil {
				respondInternalError(w, r, err)
				return
			}

			ctx := domain.NewContextWithIdentity(r.Context(), res.Identity)
			if res.GuestSessionID != uuid.Nil {
				ctx = domain.NewContextWithGuestSession(ctx, res.GuestSessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose identity is not an authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.IsAuthenticated(r.Context()) {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

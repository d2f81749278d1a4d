package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/rs/zerolog"
)

// WithRequestLogger injects a request-scoped zerolog logger into the context.
// The logger carries request_id, method, path, and the identity kind, so it
// belongs after RequestID and WithIdentity in the chain.
func WithRequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path)

			if requestID := GetRequestID(r.Context()); requestID != "" {
				lc = lc.Str("request_id", requestID)
			}
			if id, ok := domain.IdentityFromContext(r.Context()); ok {
				lc = lc.Str("identity_kind", id.Kind().String())
				if userID, isUser := id.UserID(); isUser {
					lc = lc.Str("user_id", userID.String())
				}
			}

			logger := lc.Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		})
	}
}

// GetLogger retrieves the request-scoped logger from the context.
// Without one, the fallback is used, then zerolog's disabled logger.
func GetLogger(ctx context.Context, fallback ...*zerolog.Logger) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	if len(fallback) > 0 && fallback[0] != nil {
		return fallback[0]
	}
	return logger
}

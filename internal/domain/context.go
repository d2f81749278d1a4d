// Package domain provides core cart and checkout types and context helpers.
//
// Context helpers centralize request-scoped data access so handlers never
// branch on "is there a user" themselves; they read one Identity.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// identityContextKey stores the resolved cart owner.
	identityContextKey contextKey = iota

	// guestSessionContextKey stores the guest cookie session, even for signed-in users.
	guestSessionContextKey

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// --- Identity Context Helpers ---

// NewContextWithIdentity returns a new context with the identity attached.
func NewContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from context.
// The second value is false if no identity was resolved.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}

// MustIdentity retrieves the identity from context, panicking if not present.
// The panic will be caught by the recovery middleware.
func MustIdentity(ctx context.Context) Identity {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		panic("identity required in context but not found")
	}
	return id
}

// --- Guest Session Context Helpers ---

// NewContextWithGuestSession records the guest cookie session seen on the request.
// For a signed-in user this is the cart that merge folds into the user's cart.
func NewContextWithGuestSession(ctx context.Context, sessionID uuid.UUID) context.Context {
	return context.WithValue(ctx, guestSessionContextKey, sessionID)
}

// GuestSessionFromContext returns the guest session and true when one is present.
func GuestSessionFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(guestSessionContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}

// --- Convenience Helpers ---

// IsAuthenticated returns true if the identity in context is a user.
func IsAuthenticated(ctx context.Context) bool {
	id, ok := IdentityFromContext(ctx)
	return ok && id.IsUser()
}

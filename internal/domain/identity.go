package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentityKind distinguishes the two ways a request can own a cart.
type IdentityKind int

const (
	// IdentityNone is the zero value; no cart operation accepts it.
	IdentityNone IdentityKind = iota

	// IdentityUser is an authenticated customer.
	IdentityUser

	// IdentityGuest is an anonymous browser holding a guest session cookie.
	IdentityGuest
)

// String returns the label used in logs and metrics.
func (k IdentityKind) String() string {
	switch k {
	case IdentityUser:
		return "user"
	case IdentityGuest:
		return "guest"
	default:
		return "none"
	}
}

// Identity is exactly one of a user ID or a guest session ID.
// Construct it with UserIdentity or GuestIdentity; the fields are unexported
// so a value can never carry both.
type Identity struct {
	kind IdentityKind
	id   uuid.UUID
}

// UserIdentity returns the identity of an authenticated customer.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{kind: IdentityUser, id: userID}
}

// GuestIdentity returns the identity of an anonymous guest session.
func GuestIdentity(sessionID uuid.UUID) Identity {
	return Identity{kind: IdentityGuest, id: sessionID}
}

// Kind reports which variant the identity holds.
func (i Identity) Kind() IdentityKind {
	return i.kind
}

// ID returns the underlying user or session ID.
func (i Identity) ID() uuid.UUID {
	return i.id
}

// UserID returns the user ID and true for a user identity.
func (i Identity) UserID() (uuid.UUID, bool) {
	if i.kind != IdentityUser {
		return uuid.Nil, false
	}
	return i.id, true
}

// GuestSessionID returns the session ID and true for a guest identity.
func (i Identity) GuestSessionID() (uuid.UUID, bool) {
	if i.kind != IdentityGuest {
		return uuid.Nil, false
	}
	return i.id, true
}

// IsUser reports whether the identity is an authenticated user.
func (i Identity) IsUser() bool {
	return i.kind == IdentityUser
}

// IsZero reports whether the identity was never set.
func (i Identity) IsZero() bool {
	return i.kind == IdentityNone || i.id == uuid.Nil
}

// Validate returns an error for a zero identity.
func (i Identity) Validate() error {
	if i.IsZero() {
		return Invalid("identity.validate", "identity required")
	}
	return nil
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%s", i.kind, i.id)
}

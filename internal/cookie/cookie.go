// Package cookie keeps the guest cart session in a signed, HTTP-only cookie.
// The cookie holds only a random session UUID; the cart itself lives in the store.
package cookie

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// GuestCookieName is the cookie carrying the guest session ID.
	GuestCookieName = "cart_session_id"

	// DefaultGuestMaxAge is how long a guest cart stays addressable.
	DefaultGuestMaxAge = 30 * 24 * time.Hour

	sessionIDKey = "sid"
)

// Config holds guest cookie settings.
type Config struct {
	// Secret signs the cookie. Must be at least 32 bytes in production.
	Secret string

	// Domain scopes the cookie. Empty means host-only.
	Domain string

	// Secure requires HTTPS. True in production.
	Secure bool

	// MaxAge defaults to DefaultGuestMaxAge.
	MaxAge time.Duration
}

// GuestStore reads and writes the guest session cookie.
type GuestStore struct {
	store *sessions.CookieStore
}

// NewGuestStore creates a signed cookie store for guest sessions.
func NewGuestStore(cfg Config) *GuestStore {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultGuestMaxAge
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.MaxAge(int(maxAge.Seconds()))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &GuestStore{store: store}
}

// SessionID returns the guest session ID carried by the request.
// A missing, tampered, or expired cookie reports false.
func (g *GuestStore) SessionID(r *http.Request) (uuid.UUID, bool) {
	session, err := g.store.Get(r, GuestCookieName)
	if err != nil || session.IsNew {
		return uuid.Nil, false
	}

	raw, ok := session.Values[sessionIDKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetSessionID writes the guest cookie, restarting its expiry.
func (g *GuestStore) SetSessionID(w http.ResponseWriter, r *http.Request, id uuid.UUID) error {
	// Get never fails hard; a bad cookie yields a fresh session we overwrite.
	session, _ := g.store.Get(r, GuestCookieName)
	session.Values[sessionIDKey] = id.String()
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save guest cookie: %w", err)
	}
	return nil
}

// Clear expires the guest cookie, e.g. after its cart was merged away.
func (g *GuestStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.store.Get(r, GuestCookieName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("clear guest cookie: %w", err)
	}
	return nil
}

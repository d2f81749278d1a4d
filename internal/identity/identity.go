// Package identity resolves who owns the cart for an inbound request.
//
// A valid bearer token (or access_token cookie) signed with the server's
// HS256 secret yields a user identity. Anything else is a guest, identified
// by the signed guest cookie, which is minted on first encounter.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/cookie"
	"github.com/dukerupert/larder/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenCookie is checked when no Authorization header is sent.
const AccessTokenCookie = "access_token"

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("identity: no access token")
	ErrInvalidToken = errors.New("identity: invalid access token")
)

// Claims are the JWT claims the resolver trusts.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	// Identity owns the cart for this request.
	Identity domain.Identity

	// GuestSessionID is the guest cookie seen on the request, if any.
	// Signed-in users may still carry one; that cart is the merge source.
	GuestSessionID uuid.UUID

	// Minted is true when a new guest cookie was written on this response.
	Minted bool
}

// Resolver turns a request into a Resolution.
type Resolver struct {
	secret []byte
	guests *cookie.GuestStore
	now    func() time.Time
}

// NewResolver creates a resolver verifying tokens with jwtSecret.
func NewResolver(jwtSecret string, guests *cookie.GuestStore) *Resolver {
	return &Resolver{
		secret: []byte(jwtSecret),
		guests: guests,
		now:    time.Now,
	}
}

// Resolve returns the request's identity. A user token takes precedence.
// Without one, the guest cookie is used, and a fresh guest session is minted
// and written to w when the cookie is absent or unreadable.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) (Resolution, error) {
	var res Resolution
	if sid, ok := r.guests.SessionID(req); ok {
		res.GuestSessionID = sid
	}

	if userID, err := r.UserFromRequest(req); err == nil {
		res.Identity = domain.UserIdentity(userID)
		return res, nil
	}

	if res.GuestSessionID != uuid.Nil {
		res.Identity = domain.GuestIdentity(res.GuestSessionID)
		return res, nil
	}

	sid := uuid.New()
	if err := r.guests.SetSessionID(w, req, sid); err != nil {
		return Resolution{}, fmt.Errorf("mint guest session: %w", err)
	}
	res.GuestSessionID = sid
	res.Identity = domain.GuestIdentity(sid)
	res.Minted = true
	return res, nil
}

// UserFromRequest verifies the bearer token or access_token cookie.
func (r *Resolver) UserFromRequest(req *http.Request) (uuid.UUID, error) {
	raw := bearerToken(req)
	if raw == "" {
		if c, err := req.Cookie(AccessTokenCookie); err == nil {
			raw = c.Value
		}
	}
	if raw == "" {
		return uuid.Nil, ErrMissingToken
	}
	return r.ParseToken(raw)
}

// ParseToken validates an HS256 token and returns its user_id claim.
func (r *Resolver) ParseToken(raw string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			return r.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad user_id claim", ErrInvalidToken)
	}
	return userID, nil
}

// IssueToken signs a token for userID. Session issuance belongs to the auth
// service; this exists for tooling and tests.
func IssueToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(req *http.Request) string {
	h := req.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

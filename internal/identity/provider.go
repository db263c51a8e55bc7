// Package identity centralizes resolution of the caller's ambient identity.
// Components never re-derive the auth-user/guest-session precedence chain
// themselves; they hold a Provider.
package identity

import (
	"github.com/google/uuid"
)

// Kind distinguishes how an identity was established.
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// Identity is a resolved caller identity.
type Identity struct {
	Kind  Kind
	Value string
}

func (id Identity) IsGuest() bool { return id.Kind == KindGuest }

// Provider yields the current local identity, if one exists yet. Auth
// bootstrap and guest-session minting happen elsewhere; callers only ask.
type Provider interface {
	// CurrentIdentity returns the resolved identity and true, or false when
	// no identity is available yet.
	CurrentIdentity() (Identity, bool)
}

// Static is a Provider pinned to one identity. Used for authenticated
// sessions, and in tests.
type Static struct {
	identity Identity
}

func NewUser(userID uuid.UUID) *Static {
	return &Static{identity: Identity{Kind: KindUser, Value: userID.String()}}
}

func NewGuest(guestID string) *Static {
	return &Static{identity: Identity{Kind: KindGuest, Value: guestID}}
}

func (s *Static) CurrentIdentity() (Identity, bool) {
	if s == nil || s.identity.Value == "" {
		return Identity{}, false
	}
	return s.identity, true
}

// GuestSession mints a guest identity on first use and then sticks to it,
// mirroring the one-per-browser-session guest bootstrap.
type GuestSession struct {
	id string
}

func NewGuestSession() *GuestSession {
	return &GuestSession{}
}

func (g *GuestSession) CurrentIdentity() (Identity, bool) {
	if g.id == "" {
		g.id = "guest-" + uuid.NewString()
	}
	return Identity{Kind: KindGuest, Value: g.id}, true
}

// None is a Provider with no identity; operations requiring one fail with
// their IdentityUnavailable kind.
type None struct{}

func (None) CurrentIdentity() (Identity, bool) { return Identity{}, false }

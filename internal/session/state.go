package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity fields the backend embeds in its access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// State is the explicit logged-in/logged-out sum for a session. Views
// switch on Kind instead of presence-checking a raw token string.
type State struct {
	Kind   Kind
	Token  string
	Claims *Claims
}

type Kind int

const (
	LoggedOut Kind = iota
	LoggedIn
)

// State derives the current session state. Token signatures are the
// server's to verify; the client only inspects the claims it was handed,
// so a token that does not even parse is treated as logged out.
func (s *Store) State() State {
	token, ok := s.Token()
	if !ok {
		return State{Kind: LoggedOut}
	}
	claims, err := InspectToken(token)
	if err != nil {
		return State{Kind: LoggedOut}
	}
	return State{Kind: LoggedIn, Token: token, Claims: claims}
}

// InspectToken decodes claims without verifying the signature.
func InspectToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expired reports whether the claims carry an expiry in the past. Tokens
// without an expiry never expire client-side; the server stays authoritative.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now)
}

package oauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"oauth2-relay/internal/utils"
)

const stateIssuerName = "oauth2-relay"

// ErrInvalidState is returned when a callback state does not verify
var ErrInvalidState = errors.New("invalid state")

// StateIssuer signs state values handed to the provider so that a callback
// can prove it belongs to a login started here. The signed state carries a
// random nonce that the browser must present separately (in a cookie).
type StateIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateIssuer creates an issuer signing with HS256
func NewStateIssuer(key string, ttl time.Duration) *StateIssuer {
	return &StateIssuer{
		key: []byte(key),
		ttl: ttl,
		now: time.Now,
	}
}

// TTL is how long an issued state stays valid
func (s *StateIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed state value and the nonce bound to it
func (s *StateIssuer) Issue() (state string, nonce string, err error) {
	nonce, err = utils.GenerateRandomString(32)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    stateIssuerName,
		ID:        nonce,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return state, nonce, nil
}

// Verify checks the signature and expiry of state and that it was issued
// together with nonce
func (s *StateIssuer) Verify(state, nonce string) error {
	if state == "" || nonce == "" {
		return ErrInvalidState
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(state, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if subtle.ConstantTimeCompare([]byte(claims.ID), []byte(nonce)) != 1 {
		return fmt.Errorf("%w: nonce mismatch", ErrInvalidState)
	}
	return nil
}

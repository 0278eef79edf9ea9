package session

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "somniatrack"

// SessionClaims binds a bearer token to exactly one session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Kind      Kind   `json:"kind"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer signs with HS256. An empty secret gets a random per-process
// key, so tokens do not survive a restart (nor do sessions).
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
	}
	return &TokenIssuer{secret: key, ttl: ttl}, nil
}

func (t *TokenIssuer) Issue(id uuid.UUID, kind Kind) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: id.String(),
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tokenIssuer,
			Subject:  id.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authorize checks that raw is a valid token for session id.
func (t *TokenIssuer) Authorize(raw string, id uuid.UUID) error {
	claims, err := t.Verify(raw)
	if err != nil {
		return err
	}
	if claims.SessionID != id.String() {
		return fmt.Errorf("%w: token belongs to another session", ErrInvalidToken)
	}
	return nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CSRFTokenTTL is the lifetime of an issued CSRF token.
const CSRFTokenTTL = time.Hour

// ErrInvalidCSRFToken covers missing, expired, forged and mismatched tokens.
var ErrInvalidCSRFToken = errors.New("invalid csrf token")

// CSRFClaims binds a CSRF token to a session. Anonymous tokens, used for
// signup and login, carry an empty SessionID.
type CSRFClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CSRF issues and checks HS256-signed CSRF tokens.
type CSRF struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCSRF creates a CSRF signer keyed by secret.
func NewCSRF(secret string) *CSRF {
	return &CSRF{secret: []byte(secret), ttl: CSRFTokenTTL, now: time.Now}
}

// Issue creates a token bound to sessionID.
func (c *CSRF) Issue(sessionID string) (string, error) {
	now := c.now()
	claims := CSRFClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "csrf",
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing csrf token: %w", err)
	}
	return signed, nil
}

// Verify checks tokenStr and that it was issued for sessionID.
func (c *CSRF) Verify(tokenStr, sessionID string) error {
	if tokenStr == "" {
		return ErrInvalidCSRFToken
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CSRFClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithSubject("csrf"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCSRFToken, err)
	}

	claims, ok := token.Claims.(*CSRFClaims)
	if !ok || !token.Valid {
		return ErrInvalidCSRFToken
	}
	if claims.SessionID != sessionID {
		return fmt.Errorf("%w: session mismatch", ErrInvalidCSRFToken)
	}
	return nil
}

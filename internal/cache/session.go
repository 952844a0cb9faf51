package cache

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = KeyPrefix + "session:"
	sessionTokenSize = 32
)

// ErrSessionNotFound is returned for unknown, expired or revoked tokens.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie. The cookie
// carries an opaque token; only its SHA-256 digest is used as the key.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}

// CreateSession starts a session for userID and returns the cookie token.
func (c *Cache) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, *Session, error) {
	buf := make([]byte, sessionTokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := time.Now().UTC()
	sess := &Session{
		ID:        ulid.Make().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(token), data, ttl).Err(); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}
	return token, sess, nil
}

// GetSession resolves a cookie token.
func (c *Cache) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// DeleteSession revokes a token. Unknown tokens are ignored.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := c.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petalandstem/storefront/internal/redisx"
)

// Identity is the authenticated admin carried through a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionStore keeps opaque tokens in Redis: session:{token} -> Identity JSON.
type SessionStore struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *SessionStore) Create(ctx context.Context, id Identity) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := s.RDB.Set(ctx, redisx.SessionKey(token), b, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *SessionStore) Lookup(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoSession
	}
	b, err := s.RDB.Get(ctx, redisx.SessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(b, &id); err != nil || id.ID == "" {
		return Identity{}, ErrNoSession
	}
	return id, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.RDB.Del(ctx, redisx.SessionKey(token)).Err()
}

// DeleteFor drops every session belonging to adminID. Used after a password change.
func (s *SessionStore) DeleteFor(ctx context.Context, adminID string) error {
	iter := s.RDB.Scan(ctx, 0, fmt.Sprintf(redisx.KeySession, "*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		b, err := s.RDB.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var id Identity
		if json.Unmarshal(b, &id) == nil && id.ID == adminID {
			if err := s.RDB.Del(ctx, key).Err(); err != nil {
				return err
			}
		}
	}
	return iter.Err()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type data struct {
	UserID int64 `json:"user_id"`
}

// Store tracks which principal (if any) a session belongs to. Anonymous
// sessions simply have no record; the cart lives under its own key.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Current returns the logged-in user id for the session, or nil for an
// anonymous session.
func (s *Store) Current(ctx context.Context, sessionID string) (*int64, error) {
	raw, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var d data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &d.UserID, nil
}

// Login binds the session to a user.
func (s *Store) Login(ctx context.Context, sessionID string, userID int64) error {
	raw, err := json.Marshal(data{UserID: userID})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Logout detaches the session from its user. The session cookie (and any
// cart held under it) survives.
func (s *Store) Logout(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	cartKeyPrefix = "cart:"

	// Number of attempts for the optimistic WATCH transaction before
	// giving up. Contention on a single user's session is rare (two
	// browser tabs submitting at once), so a small budget suffices.
	maxTxAttempts = 5
)

// Store persists one Cart per session in Redis. The whole cart is a single
// JSON document under one key, and every mutation is an atomic
// read-modify-write of that key, so concurrent requests from the same
// session cannot lose each other's updates.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Get returns the cart for the session, or an empty cart if none exists.
func (s *Store) Get(ctx context.Context, sessionID string) (Cart, error) {
	data, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Add merges the product into the session cart.
func (s *Store) Add(ctx context.Context, sessionID string, productID int64, quantity int, unitPrice decimal.Decimal) error {
	return s.update(ctx, sessionID, func(c Cart) {
		c.Add(productID, quantity, unitPrice)
	})
}

// SetQuantity updates the quantity of an entry already in the cart.
// Products not in the cart are left alone.
func (s *Store) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) error {
	return s.update(ctx, sessionID, func(c Cart) {
		c.SetQuantity(productID, quantity)
	})
}

// Remove drops the product from the session cart if present.
func (s *Store) Remove(ctx context.Context, sessionID string, productID int64) error {
	return s.update(ctx, sessionID, func(c Cart) {
		c.Remove(productID)
	})
}

// Clear deletes the session's cart entirely.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// update performs an atomic read-modify-write of the session's cart key
// using an optimistic WATCH transaction, retrying on contention.
func (s *Store) update(ctx context.Context, sessionID string, fn func(Cart)) error {
	key := s.key(sessionID)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		c := Cart{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("decode cart: %w", err)
			}
		}

		fn(c)

		encoded, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("update cart: %w", err)
	}

	return fmt.Errorf("update cart: %w", redis.TxFailedErr)
}

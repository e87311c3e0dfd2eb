package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusfreestore/freestore-backend/pkg/config"
	redisclient "github.com/campusfreestore/freestore-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type stateStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type stateKeyer interface {
	SessionStateKey(sessionID, bucket string) string
}

// Store persists per-session JSON state buckets in Redis. Each cookie session
// owns independent buckets (cart, enroll) that expire together with the
// session TTL.
type Store struct {
	store stateStore
	keyer stateKeyer
	ttl   time.Duration
}

// NewStore constructs a session state store backed by Redis.
func NewStore(client *redisclient.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Store{store: client, keyer: client, ttl: cfg.TTL}, nil
}

// NewSessionID mints an opaque session identifier for the cookie.
func NewSessionID() string {
	return uuid.NewString()
}

// Get loads a bucket into dest. Returns false when the bucket does not exist.
func (s *Store) Get(ctx context.Context, sessionID, bucket string, dest any) (bool, error) {
	raw, err := s.store.Get(ctx, s.keyer.SessionStateKey(sessionID, bucket))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("reading session state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decoding session state: %w", err)
	}
	return true, nil
}

// Put stores a bucket, refreshing the session TTL.
func (s *Store) Put(ctx context.Context, sessionID, bucket string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if err := s.store.Set(ctx, s.keyer.SessionStateKey(sessionID, bucket), string(raw), s.ttl); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// Del removes a bucket.
func (s *Store) Del(ctx context.Context, sessionID, bucket string) error {
	return s.store.Del(ctx, s.keyer.SessionStateKey(sessionID, bucket))
}

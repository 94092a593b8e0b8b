// Package redisstore implements memory.SessionStore on Redis lists, giving
// sessions a durable append-only log that survives process restarts. Each
// session maps to one list key; turns are appended with RPUSH so Redis
// preserves the exact append order the orchestrator produced.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/skillmesh/core"
)

// Options configure the Redis session store.
type Options struct {
	// KeyPrefix namespaces session keys, e.g. "skillmesh:session:".
	KeyPrefix string
}

// Store is a Redis-backed SessionStore.
type Store struct {
	client *redis.Client
	opts   Options
}

// New creates a Store from an existing Redis client.
func New(client *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: "skillmesh:session:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// NewFromAddr creates a Store with its own client for the given address.
func NewFromAddr(addr string, optFns ...func(o *Options)) *Store {
	return New(redis.NewClient(&redis.Options{Addr: addr}), optFns...)
}

// Ping verifies connectivity to the Redis backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Append implements memory.SessionStore.
func (s *Store) Append(ctx context.Context, sessionID string, turn core.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(sessionID), data).Err(); err != nil {
		return fmt.Errorf("append turn to session %s: %w", sessionID, err)
	}
	return nil
}

// Turns implements memory.SessionStore, returning the full log in append
// order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]core.Turn, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	turns := make([]core.Turn, 0, len(raw))
	for _, item := range raw {
		var turn core.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn of session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear implements memory.SessionStore.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) key(sessionID string) string {
	return s.opts.KeyPrefix + sessionID
}

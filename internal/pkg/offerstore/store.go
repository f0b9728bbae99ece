// Package offerstore keeps the latest session snapshot per MCP session in
// redis so get_session_results can read it back without another backend call.
package offerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session has no stored snapshot, either
// because nothing was ever searched or the entry expired.
var ErrNotFound = errors.New("no stored result for session")

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type OfferStore struct {
	redis RedisClient
	ttl   time.Duration
}

func NewOfferStore(redis RedisClient, ttl time.Duration) *OfferStore {
	return &OfferStore{
		redis: redis,
		ttl:   ttl,
	}
}

func (s *OfferStore) key(sessionID string) string {
	return fmt.Sprintf("mcp:offers:%s", sessionID)
}

func (s *OfferStore) Put(ctx context.Context, sessionID string, result dto.SessionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal session result: %w", err)
	}

	err = s.redis.Set(ctx, s.key(sessionID), data, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store session result: %w", err)
	}

	return nil
}

func (s *OfferStore) Get(ctx context.Context, sessionID string) (dto.SessionResult, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return dto.SessionResult{}, ErrNotFound
		}

		return dto.SessionResult{}, fmt.Errorf("failed to read session result: %w", err)
	}

	var result dto.SessionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return dto.SessionResult{}, fmt.Errorf("failed to unmarshal session result: %w", err)
	}

	return result, nil
}

package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks recently processed submissions by image content hash so the
// same photograph is not re-processed. Dedupe is advisory: callers treat a
// Redis failure as "not seen".
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(addr string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Store{client: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// HashImage returns the dedupe key material for an image payload.
func HashImage(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Seen marks the hash as processed and reports whether it was already
// present within the TTL.
func (s *Store) Seen(ctx context.Context, hash string) (bool, error) {
	key := fmt.Sprintf("scan:%s", hash)
	created, err := s.client.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pool-sniper/internal/storage"
)

// ClaimStore implements storage.ClaimStore with SETNX. Keys never expire.
type ClaimStore struct {
	rdb    *redis.Client
	prefix string
}

// NewClaimStore creates a ClaimStore. An empty prefix uses DefaultKeyPrefix.
func NewClaimStore(c *Client, prefix string) *ClaimStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ClaimStore{rdb: c.rdb, prefix: prefix}
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

func (s *ClaimStore) key(pool string) string {
	return s.prefix + pool
}

// Claim sets the pool key to claimedAt if absent.
func (s *ClaimStore) Claim(ctx context.Context, pool string, claimedAt int64) (bool, error) {
	if pool == "" {
		return false, storage.ErrInvalidInput
	}
	ok, err := s.rdb.SetNX(ctx, s.key(pool), strconv.FormatInt(claimedAt, 10), 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis: claim %s: %w", pool, err)
	}
	return ok, nil
}

// IsClaimed reports whether pool has been claimed.
func (s *ClaimStore) IsClaimed(ctx context.Context, pool string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(pool)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: exists %s: %w", pool, err)
	}
	return n == 1, nil
}

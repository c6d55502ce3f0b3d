package voting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statusCacheTTL = 24 * time.Hour

// redisStatusCache caches positive voting status only. A miss or a cache
// error always falls through to the relational store, so the cache can
// never block a legitimate voter or admit a duplicate.
type redisStatusCache struct {
	client *redis.Client
}

func NewRedisStatusCache(client *redis.Client) StatusCache {
	return &redisStatusCache{client: client}
}

func (c *redisStatusCache) GetVoted(ctx context.Context, userID, electionID uuid.UUID) (bool, error) {
	_, err := c.client.Get(ctx, statusKey(userID, electionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisStatusCache) SetVoted(ctx context.Context, userID, electionID uuid.UUID, votedAt time.Time) error {
	return c.client.Set(ctx, statusKey(userID, electionID),
		votedAt.UTC().Format(time.RFC3339Nano), statusCacheTTL).Err()
}

func statusKey(userID, electionID uuid.UUID) string {
	return fmt.Sprintf("voting:status:%s:%s", userID, electionID)
}

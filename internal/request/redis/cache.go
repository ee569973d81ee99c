package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/frahmantamala/attendance-management/internal/request"
)

const keyPrefix = "requests:own:"

// ListCache keeps each owner's request list as one JSON value with a TTL.
type ListCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewListCache(client goredis.Cmdable, ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ListCache{client: client, ttl: ttl}
}

func ownKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}

func (c *ListCache) GetOwn(ctx context.Context, userID int64) ([]*request.Request, bool, error) {
	raw, err := c.client.Get(ctx, ownKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var requests []*request.Request
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, false, fmt.Errorf("decode cached requests: %w", err)
	}
	return requests, true, nil
}

func (c *ListCache) SetOwn(ctx context.Context, userID int64, requests []*request.Request) error {
	raw, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("encode requests: %w", err)
	}
	return c.client.Set(ctx, ownKey(userID), raw, c.ttl).Err()
}

func (c *ListCache) InvalidateOwn(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, ownKey(userID)).Err()
}

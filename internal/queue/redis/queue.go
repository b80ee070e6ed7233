package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/sms-framework/internal/queue"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the list holding pending work items.
const DefaultKey = "sms:queue"

// Queue is a Redis list based work queue (LPUSH / BRPOP).
type Queue struct {
	rdb *redis.Client
	key string
}

// New creates a queue on the given list key.
func New(rdb *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{rdb: rdb, key: key}
}

// Push implements queue.Queue.
func (q *Queue) Push(ctx context.Context, item queue.Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("failed to push queue item %s: %w", item.ID, err)
	}
	return nil
}

// Pop implements queue.Queue.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*queue.Item, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop queue item: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	return decode(res[1])
}

// TryPop implements queue.Queue.
func (q *Queue) TryPop(ctx context.Context) (*queue.Item, error) {
	raw, err := q.rdb.RPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop queue item: %w", err)
	}
	return decode(raw)
}

func decode(raw string) (*queue.Item, error) {
	var item queue.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("failed to decode queue item %q: %w", raw, err)
	}
	return &item, nil
}

// Len implements queue.Queue.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

var _ queue.Queue = (*Queue)(nil)

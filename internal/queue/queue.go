// Package queue is the work queue between the queue processor, which
// claims due messages, and the workers that send them.
package queue

import (
	"context"
	"time"
)

// Item references a stored message to be processed.
type Item struct {
	ID string `json:"id"`
}

// Queue is a FIFO of items shared by all workers.
type Queue interface {
	// Push appends an item.
	Push(ctx context.Context, item Item) error

	// Pop removes the oldest item, waiting up to timeout. It returns
	// (nil, nil) when nothing arrived in time.
	Pop(ctx context.Context, timeout time.Duration) (*Item, error)

	// TryPop removes the oldest item without waiting, or returns (nil, nil).
	TryPop(ctx context.Context) (*Item, error)

	// Len returns the number of waiting items.
	Len(ctx context.Context) (int64, error)
}

// Package flood limits how often an action may be attempted within a
// fixed time window, using shared counters in the cache.
package flood

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/sms-framework/internal/cache"
)

// Control counts events per (action, identifier, window) in the cache.
// Counters are incremented atomically so concurrent attempts are safe.
type Control struct {
	cache cache.Cache
	now   func() time.Time
}

// New creates a flood controller backed by c.
func New(c cache.Cache) *Control {
	return &Control{cache: c, now: time.Now}
}

func (f *Control) key(action, identifier string, window time.Duration) string {
	bucket := f.now().Unix() / int64(window/time.Second)
	return cache.Flood.Key(fmt.Sprintf("%s:%s:%d", action, identifier, bucket))
}

// IsAllowed reports whether fewer than threshold events were registered for
// the action in the current window.
func (f *Control) IsAllowed(ctx context.Context, action, identifier string, threshold int, window time.Duration) (bool, error) {
	if window < time.Second {
		return false, fmt.Errorf("flood window must be at least one second")
	}
	v, err := f.cache.Get(ctx, f.key(action, identifier, window))
	if errors.Is(err, cache.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("flood: read counter: %w", err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false, fmt.Errorf("flood: corrupt counter %q: %w", v, err)
	}
	return n < threshold, nil
}

// Register records one event for the action in the current window.
func (f *Control) Register(ctx context.Context, action, identifier string, window time.Duration) error {
	if window < time.Second {
		return fmt.Errorf("flood window must be at least one second")
	}
	if _, err := f.cache.IncrWindow(ctx, f.key(action, identifier, window), window); err != nil {
		return fmt.Errorf("flood: increment counter: %w", err)
	}
	return nil
}

// Attempt registers one event and reports whether it stayed within
// threshold. Check and increment are a single cache operation, so at most
// threshold concurrent attempts per window are allowed.
func (f *Control) Attempt(ctx context.Context, action, identifier string, threshold int, window time.Duration) (bool, error) {
	if window < time.Second {
		return false, fmt.Errorf("flood window must be at least one second")
	}
	n, err := f.cache.IncrWindow(ctx, f.key(action, identifier, window), window)
	if err != nil {
		return false, fmt.Errorf("flood: increment counter: %w", err)
	}
	return n <= int64(threshold), nil
}

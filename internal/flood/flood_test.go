package flood

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	cacheredis "github.com/oggyb/sms-framework/internal/cache/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFlood(t *testing.T) (*Control, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	c := cacheredis.New(mr.Addr(), "", 0)
	t.Cleanup(func() {
		c.Raw().Close()
		mr.Close()
	})

	f := New(c)
	fixed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }
	return f, mr
}

func TestControl_Threshold(t *testing.T) {
	f, _ := setupFlood(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := f.IsAllowed(ctx, "verify", "", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
		require.NoError(t, f.Register(ctx, "verify", "", time.Hour))
	}

	ok, err := f.IsAllowed(ctx, "verify", "", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.IsAllowed(ctx, "other", "", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestControl_WindowRolls(t *testing.T) {
	f, _ := setupFlood(t)
	ctx := context.Background()

	require.NoError(t, f.Register(ctx, "verify", "", time.Hour))
	ok, err := f.IsAllowed(ctx, "verify", "", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	later := f.now().Add(time.Hour)
	f.now = func() time.Time { return later }

	ok, err = f.IsAllowed(ctx, "verify", "", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestControl_ConcurrentRegister(t *testing.T) {
	f, _ := setupFlood(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Register(ctx, "verify", "", time.Hour)
		}()
	}
	wg.Wait()

	ok, err := f.IsAllowed(ctx, "verify", "", 20, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.IsAllowed(ctx, "verify", "", 21, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestControl_Attempt(t *testing.T) {
	f, _ := setupFlood(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := f.Attempt(ctx, "verify", "1.2.3.4", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
	}
	ok, err := f.Attempt(ctx, "verify", "1.2.3.4", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	// Attempts count towards IsAllowed as well.
	ok, err = f.IsAllowed(ctx, "verify", "1.2.3.4", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.Attempt(ctx, "verify", "", 3, time.Millisecond)
	assert.Error(t, err)
}

func TestControl_ConcurrentAttempts(t *testing.T) {
	f, _ := setupFlood(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := f.Attempt(ctx, "verify", "", 5, time.Hour); err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

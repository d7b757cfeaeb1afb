package asyncx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	var current, peak int64
	var mu sync.Mutex

	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	results, err := Pool(context.Background(), 5, items, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		current++
		if current > peak {
			peak = current
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return n * 2, nil
	})

	require.NoError(t, err)
	require.Len(t, results, 20)
	assert.Equal(t, 6, results[3])
	assert.LessOrEqual(t, peak, int64(5))
}

func TestPoolReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3}

	_, err := Pool(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestAllPreservesOrder(t *testing.T) {
	results, err := All(context.Background(),
		func(context.Context) (string, error) { time.Sleep(10 * time.Millisecond); return "a", nil },
		func(context.Context) (string, error) { return "b", nil },
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, results)
}

func TestWithTimeout(t *testing.T) {
	var ran atomic.Bool

	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		select {
		case <-time.After(time.Second):
			ran.Store(true)
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran.Load())
}

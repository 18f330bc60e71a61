package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{1, 2, 7, 100, 1001} {
		for _, workers := range []int{0, 1, 3, 64} {
			seen := make([]int32, items)
			Chunks(items, workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("items=%d workers=%d: index %d visited %d times", items, workers, i, c)
				}
			}
		}
	}
}

func TestChunksZeroItems(t *testing.T) {
	called := false
	Chunks(0, 4, func(int, int) { called = true })
	assert.False(t, called)
}

func TestChunksAboveRunsInlineBelowThreshold(t *testing.T) {
	var calls [][2]int
	var mu sync.Mutex
	ChunksAbove(10, 50, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{start, end})
	})
	assert.Equal(t, [][2]int{{0, 10}}, calls)
}

func TestChunksErrReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := ChunksErr(context.Background(), 100, 4, func(_ context.Context, start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestChunksErrSuccess(t *testing.T) {
	var total int64
	err := ChunksErr(context.Background(), 50, 0, func(_ context.Context, start, end int) error {
		atomic.AddInt64(&total, int64(end-start))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), total)
}

func TestChunksErrCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ChunksErr(ctx, 10, 2, func(context.Context, int, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

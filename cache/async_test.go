package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsyncCache_SingleFlight(t *testing.T) {
	stats := NewStats("test-singleflight", nil)
	c, err := NewAsyncCache[string, int](10, func(k string) string { return k }, stats)
	require.NoError(t, err)

	var calls atomic.Int64
	load := func(ctx context.Context, k string) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	futures := make([]*Future[int], 20)
	for i := range futures {
		futures[i] = c.Get(context.Background(), "key", load)
	}
	for _, f := range futures {
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, 42, v)
	}
	require.Equal(t, int64(1), calls.Load())
}

func TestAsyncCache_HitAfterLoad(t *testing.T) {
	stats := NewStats("test-hit", nil)
	c, err := NewAsyncCache[string, int](10, func(k string) string { return k }, stats)
	require.NoError(t, err)

	load := func(ctx context.Context, k string) (int, error) { return 7, nil }
	_, err = c.Get(context.Background(), "k", load).Wait(context.Background())
	require.NoError(t, err)

	v, ok := c.Peek("k")
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestAsyncCache_CountCap(t *testing.T) {
	stats := NewStats("test-cap", nil)
	c, err := NewAsyncCache[int, int](2, func(k int) string { return "k" }, stats)
	require.NoError(t, err)

	load := func(ctx context.Context, k int) (int, error) { return k, nil }
	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), i, load).Wait(context.Background())
		require.NoError(t, err)
	}
	require.LessOrEqual(t, c.Len(), 2)
}

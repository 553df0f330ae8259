package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type weighted int64

func (w weighted) Weight() int64 { return int64(w) }

func TestWeightedCache_EvictsOverCapacity(t *testing.T) {
	stats := NewStats("test-weighted", nil)
	c := NewWeightedCache[string, weighted](100, func(k string) string { return k }, stats)

	load := func(v weighted) Loader[string, weighted] {
		return func(ctx context.Context, k string) (weighted, error) { return v, nil }
	}

	_, err := c.Get(context.Background(), "a", load(40)).Wait(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "b", load(40)).Wait(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "c", load(40)).Wait(context.Background())
	require.NoError(t, err)

	require.LessOrEqual(t, c.Weight(), int64(100))
	require.Less(t, c.Len(), 3)
}

func TestWeightedCache_HitDoesNotReload(t *testing.T) {
	stats := NewStats("test-weighted-hit", nil)
	c := NewWeightedCache[string, weighted](1000, func(k string) string { return k }, stats)

	calls := 0
	load := func(ctx context.Context, k string) (weighted, error) {
		calls++
		return weighted(10), nil
	}

	_, err := c.Get(context.Background(), "x", load).Wait(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "x", load).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

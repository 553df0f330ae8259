package mosaic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaultsFillsZeroFields(t *testing.T) {
	cfg, err := Config{}.withDefaults()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_WithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg, err := Config{SegmentCacheSize: 5}.withDefaults()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.SegmentCacheSize)
	require.Equal(t, DefaultConfig().RawDataCacheSizeBytes, cfg.RawDataCacheSizeBytes)
}

func TestConfig_WithDefaultsRejectsNegativeCaps(t *testing.T) {
	_, err := Config{SegmentCacheSize: -1}.withDefaults()
	require.Error(t, err)

	_, err = Config{RawDataCacheSizeBytes: -1}.withDefaults()
	require.Error(t, err)
}

// Package mosaic implements the Render Controller (C9): the orchestration
// layer that walks the cache fabric (cache package) to answer one render
// request, and the process-wide Config the fabric is sized from (§6).
package mosaic

import "fmt"

// Config is the process-wide configuration snapshot taken once at New
// (§9 design note: no runtime reconfiguration). Field names follow §6's
// knob table; zero values are replaced by their documented defaults in
// withDefaults.
type Config struct {
	SegmentCacheSize         int
	RawDataCacheSizeBytes    int64
	BiasCorrectionCacheSize  int
	BufferedImageCacheSizeBytes int64
	GlobalScalingCacheSize   int
	LinesCacheSize           int
}

// DefaultConfig returns the §6 defaults.
func DefaultConfig() Config {
	return Config{
		SegmentCacheSize:             10_000,
		RawDataCacheSizeBytes:        1_000_000_000,
		BiasCorrectionCacheSize:      10_000,
		BufferedImageCacheSizeBytes:  5_000_000_000,
		GlobalScalingCacheSize:       10_000,
		LinesCacheSize:               10_000,
	}
}

// withDefaults fills any zero-valued field from DefaultConfig and then
// rejects a configuration no cache fabric could be built from: a cap of
// zero or less (spec.md is silent here; a negative or zero cap is a
// configuration error, not "effectively unbounded" or "effectively
// disabled", since neither of those is how the count- or byte-capped LRUs
// behind the fabric are built).
func (c Config) withDefaults() (Config, error) {
	d := DefaultConfig()
	if c.SegmentCacheSize == 0 {
		c.SegmentCacheSize = d.SegmentCacheSize
	}
	if c.RawDataCacheSizeBytes == 0 {
		c.RawDataCacheSizeBytes = d.RawDataCacheSizeBytes
	}
	if c.BiasCorrectionCacheSize == 0 {
		c.BiasCorrectionCacheSize = d.BiasCorrectionCacheSize
	}
	if c.BufferedImageCacheSizeBytes == 0 {
		c.BufferedImageCacheSizeBytes = d.BufferedImageCacheSizeBytes
	}
	if c.GlobalScalingCacheSize == 0 {
		c.GlobalScalingCacheSize = d.GlobalScalingCacheSize
	}
	if c.LinesCacheSize == 0 {
		c.LinesCacheSize = d.LinesCacheSize
	}

	if c.SegmentCacheSize < 0 || c.BiasCorrectionCacheSize < 0 ||
		c.GlobalScalingCacheSize < 0 || c.LinesCacheSize < 0 {
		return c, fmt.Errorf("mosaic: cache entry caps must be positive")
	}
	if c.RawDataCacheSizeBytes < 0 || c.BufferedImageCacheSizeBytes < 0 {
		return c, fmt.Errorf("mosaic: byte-weighted cache caps must be positive")
	}
	return c, nil
}

package mosaic

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lsst-camera-visualization/fpmosaic/cache"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fetch"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/render"
)

const statsInterval = 60 * time.Second

// Option configures a Core at construction.
type Option func(*Core)

// WithLogger overrides the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Core) { c.log = log }
}

// WithRegisterer installs a Prometheus registry the fabric's per-cache
// counters are registered against. Leaving this unset builds the counters
// unregistered (fine for tests and short-lived CLI invocations).
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Core) { c.registerer = reg }
}

// WithColormaps overrides the default procedural colormap registry, e.g.
// once a host application has parsed real color-table files (§1).
func WithColormaps(reg *colormap.Registry) Option {
	return func(c *Core) { c.colormaps = reg }
}

// Core is the Render Controller's (C9) runtime handle: one cache fabric,
// one byte reader, one logger, for the lifetime of a process (§9: no
// runtime reconfiguration).
type Core struct {
	cfg        Config
	reader     fetch.Reader
	log        *zap.Logger
	registerer prometheus.Registerer
	colormaps  *colormap.Registry
	fabric     *cache.Fabric
}

// New builds a Core from cfg and reader, applying opts. Unset Config
// fields take the §6 defaults.
func New(reader fetch.Reader, cfg Config, opts ...Option) (*Core, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	c := &Core{cfg: cfg, reader: reader, log: zap.NewNop(), colormaps: colormap.Default()}
	for _, opt := range opts {
		opt(c)
	}

	fabricCfg := cache.FabricConfig{
		IndexSize:         c.cfg.LinesCacheSize,
		SegmentSize:       c.cfg.SegmentCacheSize,
		RawDataBytes:      c.cfg.RawDataCacheSizeBytes,
		BiasSize:          c.cfg.BiasCorrectionCacheSize,
		RenderedTileBytes: c.cfg.BufferedImageCacheSizeBytes,
		GlobalSize:        c.cfg.GlobalScalingCacheSize,
	}
	fabric, err := cache.NewFabric(fabricCfg, reader, c.colormaps, c.log, c.registerer)
	if err != nil {
		return nil, err
	}
	c.fabric = fabric
	return c, nil
}

// ReportStats starts the periodic cache-stats logger (§4.8) and blocks
// until ctx is cancelled; run it in its own goroutine.
func (c *Core) ReportStats(ctx context.Context) {
	cache.ReportLoop(ctx, c.log, statsInterval,
		c.fabric.Index.Stats(), c.fabric.Segment.Stats(), c.fabric.RawData.Stats(),
		c.fabric.Bias.Stats(), c.fabric.Tile.Stats(), c.fabric.Global.Stats())
}

// Render implements §4.9: fetch the index, decode and filter segments,
// resolve rendered tiles (optionally against one exposure-wide histogram),
// and composite them onto output.
func (c *Core) Render(ctx context.Context, req Request, output render.Raster) error {
	descriptors, err := c.fabric.GetIndex(ctx, req.IndexURL).Wait(ctx)
	if err != nil {
		return err
	}

	segmentLists := make([][]*fits.Segment, len(descriptors))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range descriptors {
		i, d := i, fits.SegmentDescriptor(d)
		g.Go(func() error {
			segs, err := c.fabric.GetSegments(gctx, d, req.WCSLetter, req.WCSOverride, req.Tolerant).Wait(gctx)
			if err != nil {
				return err
			}
			segmentLists[i] = segs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all, filtered []*fits.Segment
	for _, segs := range segmentLists {
		all = append(all, segs...)
	}
	for _, seg := range all {
		if req.SourceRect == nil || seg.Bound.IntersectsRect(*req.SourceRect) {
			filtered = append(filtered, seg)
		}
	}

	global := req.GlobalHistogram
	if req.ScaleMode == ScaleGlobal && global == nil {
		fullDescriptors := make([]fits.SegmentDescriptor, len(descriptors))
		for i, d := range descriptors {
			fullDescriptors[i] = fits.SegmentDescriptor(d)
		}
		global, err = c.fabric.GetGlobalHistogram(ctx, fullDescriptors, req.WCSLetter, req.BiasKind).Wait(ctx)
		if err != nil {
			return err
		}
	}

	g2, gctx2 := errgroup.WithContext(ctx)
	for _, seg := range filtered {
		seg := seg
		g2.Go(func() error {
			tile, err := c.fabric.GetRenderedTile(gctx2, seg, req.BiasKind, req.Colormap, global).Wait(gctx2)
			if err != nil {
				return err
			}
			render.Composite(tile, seg, output, req.ShowBiasRegion)
			return nil
		})
	}
	return g2.Wait()
}

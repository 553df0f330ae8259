package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/compress"
	"github.com/lsst-camera-visualization/fpmosaic/errs"
	"github.com/lsst-camera-visualization/fpmosaic/fetch"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/render"
	"github.com/lsst-camera-visualization/fpmosaic/scale"
)

// SegmentKey identifies one descriptor's decoded Segment list (§4.8: the
// Segment cache holds one entry per (descriptor, wcsLetter) pair, since
// decodeSegments produces every amplifier of a CCD in one pass).
type SegmentKey struct {
	Descriptor fits.SegmentDescriptor
	WCSLetter  byte
}

// BiasKey identifies one (segment, strategy) pair's correction factors.
type BiasKey struct {
	Seg  fits.Key
	Kind bias.Kind
}

// TileKey identifies one rendered tile: the segment, the bias strategy
// applied, the colormap used, and whether a caller-supplied global
// histogram (rather than the segment's own) drove the scaling.
type TileKey struct {
	Seg       fits.Key
	Kind      bias.Kind
	Colormap  colormap.Name
	UseGlobal bool
}

// HistogramKey identifies one exposure-wide merge: the ordered descriptor
// set, the WCS letter selected and the bias strategy (§4.6: the global
// histogram is a function of exactly these).
type HistogramKey string

func histogramKey(descriptors []fits.SegmentDescriptor, wcsLetter byte, kind bias.Kind) HistogramKey {
	var b strings.Builder
	b.WriteByte(wcsLetter)
	b.WriteByte(':')
	b.WriteString(string(kind))
	for _, d := range descriptors {
		b.WriteByte('|')
		b.WriteString(string(d))
	}
	return HistogramKey(b.String())
}

// Fabric wires the six caches of §4.8 into the dependency DAG: Index ->
// Segment -> RawData -> BiasFactors -> RenderedTile, with GlobalHistogram
// fanning out across RawData+BiasFactors for a whole exposure.
type Fabric struct {
	Reader    fetch.Reader
	Colormaps *colormap.Registry
	Log       *zap.Logger

	Index     *AsyncCache[string, []string]
	Segment   *AsyncCache[SegmentKey, []*fits.Segment]
	RawData   *WeightedCache[fits.Key, *fits.RawData]
	Bias      *AsyncCache[BiasKey, bias.Factors]
	Tile      *WeightedCache[TileKey, *render.RenderedTile]
	Global    *AsyncCache[HistogramKey, *scale.GlobalHistogram]
}

// FabricConfig sizes the six caches of §4.8. Every field is the cap in
// that cache's own unit (entry count or bytes).
type FabricConfig struct {
	IndexSize         int
	SegmentSize       int
	RawDataBytes      int64
	BiasSize          int
	RenderedTileBytes int64
	GlobalSize        int
}

// NewFabric builds a Fabric backed by reader, reporting per-cache counters
// through registry (may be nil).
func NewFabric(cfg FabricConfig, reader fetch.Reader, colormaps *colormap.Registry, log *zap.Logger, registry prometheus.Registerer) (*Fabric, error) {
	f := &Fabric{Reader: reader, Colormaps: colormaps, Log: log}

	indexStats := NewStats("index", registry)
	segStats := NewStats("segment", registry)
	rawStats := NewStats("rawdata", registry)
	biasStats := NewStats("bias", registry)
	tileStats := NewStats("rendered_tile", registry)
	globalStats := NewStats("global_histogram", registry)

	var err error
	if f.Index, err = NewAsyncCache[string, []string](cfg.IndexSize, func(k string) string { return k }, indexStats); err != nil {
		return nil, err
	}
	if f.Segment, err = NewAsyncCache[SegmentKey, []*fits.Segment](cfg.SegmentSize, func(k SegmentKey) string {
		return fmt.Sprintf("%s#%c", k.Descriptor, k.WCSLetter)
	}, segStats); err != nil {
		return nil, err
	}
	f.RawData = NewWeightedCache[fits.Key, *fits.RawData](cfg.RawDataBytes, func(k fits.Key) string {
		return fmt.Sprintf("%s#%d#%c", k.File, k.HDU, k.WCSLetter)
	}, rawStats)
	if f.Bias, err = NewAsyncCache[BiasKey, bias.Factors](cfg.BiasSize, func(k BiasKey) string {
		return fmt.Sprintf("%s#%d#%c#%s", k.Seg.File, k.Seg.HDU, k.Seg.WCSLetter, k.Kind)
	}, biasStats); err != nil {
		return nil, err
	}
	f.Tile = NewWeightedCache[TileKey, *render.RenderedTile](cfg.RenderedTileBytes, func(k TileKey) string {
		return fmt.Sprintf("%s#%d#%c#%s#%s#%v", k.Seg.File, k.Seg.HDU, k.Seg.WCSLetter, k.Kind, k.Colormap, k.UseGlobal)
	}, tileStats)
	if f.Global, err = NewAsyncCache[HistogramKey, *scale.GlobalHistogram](cfg.GlobalSize, func(k HistogramKey) string {
		return string(k)
	}, globalStats); err != nil {
		return nil, err
	}
	return f, nil
}

// GetIndex implements the Index cache's loader (C1): fetch the whole
// resource and parse one descriptor per line.
func (f *Fabric) GetIndex(ctx context.Context, url string) *Future[[]string] {
	return f.Index.Get(ctx, url, func(ctx context.Context, url string) ([]string, error) {
		size, err := f.Reader.Size(ctx, url)
		if err != nil {
			return nil, err
		}
		raw, err := f.Reader.ReadRange(ctx, url, 0, size)
		if err != nil {
			return nil, err
		}
		return fits.ReadIndex(bytes.NewReader(raw))
	})
}

// GetSegments implements the Segment cache's loader (C2).
func (f *Fabric) GetSegments(ctx context.Context, descriptor fits.SegmentDescriptor, wcsLetter byte,
	override *fits.WCSOverride, tolerant bool) *Future[[]*fits.Segment] {

	key := SegmentKey{Descriptor: descriptor, WCSLetter: wcsLetter}
	return f.Segment.Get(ctx, key, func(ctx context.Context, key SegmentKey) ([]*fits.Segment, error) {
		return fits.DecodeSegments(ctx, f.Reader, key.Descriptor, key.WCSLetter, override, tolerant)
	})
}

// GetRawData implements the RawData cache's loader (§4.8): fetch the
// segment's data block and, if compressed, inflate it tile by tile (C4)
// before converting to host-native samples. When the segment carries a
// freshness witness (FileSize > 0) and the file's current size differs,
// the load fails with errs.IOError instead of reading stale offsets.
func (f *Fabric) GetRawData(ctx context.Context, seg *fits.Segment) *Future[*fits.RawData] {
	return f.RawData.Get(ctx, seg.Identity(), func(ctx context.Context, _ fits.Key) (*fits.RawData, error) {
		if seg.FileSize > 0 {
			size, err := f.Reader.Size(ctx, seg.File)
			if err != nil {
				return nil, err
			}
			if size != seg.FileSize {
				return nil, &errs.IOError{URL: seg.File, Err: fmt.Errorf("file size changed from %d to %d since segment decode", seg.FileSize, size)}
			}
		}
		wire, err := f.Reader.ReadRange(ctx, seg.File, seg.Offset, seg.Length)
		if err != nil {
			return nil, err
		}
		if seg.IsCompressed {
			wire, err = compress.DecompressTiles(wire, seg.Compression, seg.CAxis1, seg.CAxis2, seg.NAxis1, seg.BitPix)
			if err != nil {
				return nil, err
			}
		}
		want := seg.BufferElements() * 4
		if len(wire) < want {
			return nil, &errs.Internal{Reason: "decoded raw buffer shorter than segment extent"}
		}
		return fits.DecodeRawBuffer(seg, wire), nil
	})
}

// GetBiasFactors implements the BiasFactors cache's loader (C5). Float32
// segments have no overscan correction defined (§4.5 scope); they always
// resolve to the no-op strategy regardless of the requested kind.
func (f *Fabric) GetBiasFactors(ctx context.Context, seg *fits.Segment, kind bias.Kind) *Future[bias.Factors] {
	key := BiasKey{Seg: seg.Identity(), Kind: kind}
	return f.Bias.Get(ctx, key, func(ctx context.Context, _ BiasKey) (bias.Factors, error) {
		if seg.BitPix == fits.BitPixFloat32 {
			return bias.Compute(bias.None, bias.RawInt32{}, seg)
		}
		raw, err := f.GetRawData(ctx, seg).Wait(ctx)
		if err != nil {
			return nil, err
		}
		return bias.Compute(kind, bias.RawInt32{Buf: raw.IntBuf, Stride: seg.NAxis1}, seg)
	})
}

// GetRenderedTile implements the RenderedTile cache's loader (C7). global
// may be nil, in which case the tile is scaled against its own segment's
// histogram rather than an exposure-wide one.
func (f *Fabric) GetRenderedTile(ctx context.Context, seg *fits.Segment, kind bias.Kind,
	cmName colormap.Name, global *scale.GlobalHistogram) *Future[*render.RenderedTile] {

	key := TileKey{Seg: seg.Identity(), Kind: kind, Colormap: cmName, UseGlobal: global != nil}
	return f.Tile.Get(ctx, key, func(ctx context.Context, _ TileKey) (*render.RenderedTile, error) {
		cm, err := f.Colormaps.Get(cmName)
		if err != nil {
			return nil, err
		}
		raw, err := f.GetRawData(ctx, seg).Wait(ctx)
		if err != nil {
			return nil, err
		}
		factors, err := f.GetBiasFactors(ctx, seg, kind).Wait(ctx)
		if err != nil {
			return nil, err
		}
		return render.RenderTile(seg, raw, factors, global, cm), nil
	})
}

// GetGlobalHistogram implements the GlobalHistogram cache's loader (§4.6,
// §4.8): fan out across every descriptor's segment, building and merging
// per-segment histograms under a fixed bias strategy.
func (f *Fabric) GetGlobalHistogram(ctx context.Context, descriptors []fits.SegmentDescriptor,
	wcsLetter byte, kind bias.Kind) *Future[*scale.GlobalHistogram] {

	key := histogramKey(descriptors, wcsLetter, kind)
	return f.Global.Get(ctx, key, func(ctx context.Context, _ HistogramKey) (*scale.GlobalHistogram, error) {
		segmentLists := make([][]*fits.Segment, len(descriptors))
		dg, dgctx := errgroup.WithContext(ctx)
		for i, d := range descriptors {
			i, d := i, d
			dg.Go(func() error {
				segs, err := f.GetSegments(dgctx, d, wcsLetter, nil, false).Wait(dgctx)
				if err != nil {
					return err
				}
				segmentLists[i] = segs
				return nil
			})
		}
		if err := dg.Wait(); err != nil {
			return nil, err
		}
		var segments []*fits.Segment
		for _, segs := range segmentLists {
			segments = append(segments, segs...)
		}

		histograms := make([]*scale.Histogram, len(segments))
		g, gctx := errgroup.WithContext(ctx)
		for i, seg := range segments {
			i, seg := i, seg
			g.Go(func() error {
				if seg.BitPix == fits.BitPixFloat32 {
					return nil // §4.6: histogram scaling only applies to int32 ADC data
				}
				raw, err := f.GetRawData(gctx, seg).Wait(gctx)
				if err != nil {
					return err
				}
				factors, err := f.GetBiasFactors(gctx, seg, kind).Wait(gctx)
				if err != nil {
					return err
				}
				histograms[i] = scale.Build(seg.Datasec, raw.IntBuf, seg.NAxis1, factors)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return scale.MergeGlobal(histograms...), nil
	})
}

package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/scale"
)

func fixtureSegment(bp fits.BitPix) *fits.Segment {
	return &fits.Segment{
		NAxis1:  4,
		NAxis2:  4,
		BitPix:  bp,
		Datasec: fits.Rect{X: 0, Y: 0, Width: 4, Height: 4},
	}
}

type zeroFactors struct{}

func (zeroFactors) At(int, int) int32 { return 0 }
func (zeroFactors) Overall() int32    { return 0 }

func TestRenderTile_IntPath(t *testing.T) {
	seg := fixtureSegment(fits.BitPixInt32)
	buf := make([]int32, 16)
	for i := range buf {
		buf[i] = int32(i * 10)
	}
	raw := &fits.RawData{Segment: seg, IntBuf: buf}
	cm, _ := colormap.Default().Get(colormap.Grey)

	tile := RenderTile(seg, raw, zeroFactors{}, nil, cm)
	require.Equal(t, 4, tile.Width)
	require.Equal(t, 4, tile.Height)
	require.Len(t, tile.Pixels, 16)
}

func TestRenderTile_FloatPath(t *testing.T) {
	seg := fixtureSegment(fits.BitPixFloat32)
	buf := make([]float32, 16)
	for i := range buf {
		buf[i] = float32(i)
	}
	raw := &fits.RawData{Segment: seg, FloatBuf: buf}
	cm, _ := colormap.Default().Get(colormap.Grey)

	tile := RenderTile(seg, raw, zeroFactors{}, nil, cm)
	require.Equal(t, uint8(0), tile.Pixels[0].R)
	require.Equal(t, uint8(255), tile.Pixels[15].R)
}

func TestRenderTile_UsesSuppliedGlobalHistogram(t *testing.T) {
	seg := fixtureSegment(fits.BitPixInt32)
	buf := make([]int32, 16)
	for i := range buf {
		buf[i] = int32(i)
	}
	raw := &fits.RawData{Segment: seg, IntBuf: buf}
	h := scale.Build(seg.Datasec, buf, seg.NAxis1, zeroFactors{})
	g := scale.MergeGlobal(h)
	cm, _ := colormap.Default().Get(colormap.Grey)

	tile := RenderTile(seg, raw, zeroFactors{}, g, cm)
	require.Len(t, tile.Pixels, 16)
}

func TestRenderedTile_Weight(t *testing.T) {
	tile := newTile(10, 5)
	require.Equal(t, int64(10*5*4), tile.Weight())
}

var _ bias.Factors = zeroFactors{}

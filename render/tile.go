// Package render implements the Tile Renderer (C7) and the output
// compositing step of the Render Controller (§4.9 step 5). Every function
// here is pure given its inputs, per §4.7.
package render

import (
	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/scale"
)

// RenderedTile is an RGB raster the size of a Segment's full extent
// (nAxis1 x nAxis2, §3). Pixels outside datasec are left zero.
type RenderedTile struct {
	Width, Height int
	Pixels        []colormap.RGB // row-major, len == Width*Height
}

func newTile(w, h int) *RenderedTile {
	return &RenderedTile{Width: w, Height: h, Pixels: make([]colormap.RGB, w*h)}
}

func (t *RenderedTile) set(x, y int, c colormap.RGB) {
	t.Pixels[x+y*t.Width] = c
}

// Weight is the byte weight the RenderedTile cache charges this entry
// (§4.8): w*h*4 bytes.
func (t *RenderedTile) Weight() int64 {
	return int64(t.Width) * int64(t.Height) * 4
}

// RenderTile implements §4.7: renderTile(segment, rawData, factors,
// globalHistogramOrNull, colormap) -> RenderedTile.
//
//   - float32 RawData: an "enhanced scaling" min/max rescale of the
//     dataset's occupied range onto [0,255], then a colormap lookup.
//   - int32 RawData: build (or reuse the supplied) histogram, derive the
//     CDF->byte map, and look each corrected pixel up through it.
func RenderTile(seg *fits.Segment, raw *fits.RawData, factors bias.Factors,
	global *scale.GlobalHistogram, cm colormap.Colormap) *RenderedTile {

	tile := newTile(seg.NAxis1, seg.NAxis2)
	d := seg.Datasec

	if raw.IsFloat() {
		renderFloatTile(tile, seg, raw.FloatBuf, d, cm)
		return tile
	}

	var cdf [scale.Bins]uint32
	var lowest, highest int
	if global != nil {
		cdf = scale.GlobalCDF(global)
		lowest, highest = global.LowestOccupied, global.HighestOccupied
	} else {
		h := scale.Build(d, raw.IntBuf, seg.NAxis1, factors)
		cdf = scale.CDF(h)
		lowest, highest = h.LowestOccupied, h.HighestOccupied
	}
	bmap := scale.ByteMap(&cdf, lowest, highest)

	for y := d.Y; y < d.Y+d.Height; y++ {
		for x := d.X; x < d.X+d.Width; x++ {
			v := raw.IntBuf[x+y*seg.NAxis1] - factors.At(x, y)
			if v < 0 {
				v = 0
			}
			idx := int(v)
			if idx >= scale.Bins {
				idx = scale.Bins - 1
			}
			byteVal := bmap[idx]
			tile.set(x, y, cm.RGB(float64(byteVal)/255))
		}
	}
	return tile
}

// renderFloatTile applies the enhanced-scaling path: a linear rescale of
// the occupied min/max range of the datasec onto [0,255] before the
// colormap lookup, since float samples have no fixed ADC range to build an
// 18-bit histogram over.
func renderFloatTile(tile *RenderedTile, seg *fits.Segment, buf []float32, d fits.Rect, cm colormap.Colormap) {
	min, max := float32(0), float32(0)
	first := true
	for y := d.Y; y < d.Y+d.Height; y++ {
		for x := d.X; x < d.X+d.Width; x++ {
			v := buf[x+y*seg.NAxis1]
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	span := max - min
	for y := d.Y; y < d.Y+d.Height; y++ {
		for x := d.X; x < d.X+d.Width; x++ {
			v := buf[x+y*seg.NAxis1]
			t := 0.0
			if span > 0 {
				t = float64((v - min) / span)
			}
			tile.set(x, y, cm.RGB(t))
		}
	}
}

package render

import (
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

// Raster is the output compositing target of §4.9 step 5. It is not owned
// by this package — a host application's in-memory image, a tiled
// GPU-backed surface, whatever the caller has — and is assumed to tolerate
// concurrent writes to disjoint regions, since the focal-plane geometry
// never produces overlapping segment footprints (§5).
type Raster interface {
	// Set writes c at the focal-plane coordinate nearest (fx, fy). Writes
	// outside the raster's bounds are silently dropped.
	Set(fx, fy float64, c colormap.RGB)
}

// Composite implements §4.9 step 5: map every datasec pixel of tile through
// seg's WCS affine and write it to out. When showBiasRegion is set the
// whole tile (including the overscan border, left zero by RenderTile) is
// blitted instead of just datasec.
func Composite(tile *RenderedTile, seg *fits.Segment, out Raster, showBiasRegion bool) {
	region := seg.Datasec
	if showBiasRegion {
		region = fits.Rect{X: 0, Y: 0, Width: seg.NAxis1, Height: seg.NAxis2}
	}
	for y := region.Y; y < region.Y+region.Height; y++ {
		for x := region.X; x < region.X+region.Width; x++ {
			u := float64(x - seg.Datasec.X)
			v := float64(y - seg.Datasec.Y)
			fx, fy := seg.WCS.Apply(u, v)
			out.Set(fx, fy, tile.Pixels[x+y*tile.Width])
		}
	}
}

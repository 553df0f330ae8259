// Package scale implements the Histogram / Scaling Engine (C6):
// 18-bit histograms, their merge into a global histogram, and CDF-derived
// byte mapping for 8-bit greyscale output.
package scale

import (
	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

// Bins is the fixed ADC depth of the camera: 2^18 buckets (§3).
const Bins = 1 << 18

// Histogram is a dense 18-bit histogram with remembered occupied range.
type Histogram struct {
	Bins           [Bins]uint32
	LowestOccupied  int
	HighestOccupied int
}

// Build implements histogram(dataRect, intBuf, segment, factors) from
// §4.6: for each (x, y) in dataRect, v = max(intBuf[x+y*nAxis1] -
// factors(x,y), 0), clamped to the top bin if it would overflow 2^18
// (§3: "values >= 2^18 are policy-undefined... must not crash").
func Build(dataRect fits.Rect, buf []int32, stride int, factors bias.Factors) *Histogram {
	h := &Histogram{LowestOccupied: Bins, HighestOccupied: -1}
	for y := dataRect.Y; y < dataRect.Y+dataRect.Height; y++ {
		for x := dataRect.X; x < dataRect.X+dataRect.Width; x++ {
			v := buf[x+y*stride] - factors.At(x, y)
			if v < 0 {
				v = 0
			}
			idx := int(v)
			if idx >= Bins {
				idx = Bins - 1
			}
			h.Bins[idx]++
			if idx < h.LowestOccupied {
				h.LowestOccupied = idx
			}
			if idx > h.HighestOccupied {
				h.HighestOccupied = idx
			}
		}
	}
	if h.HighestOccupied < 0 {
		h.LowestOccupied, h.HighestOccupied = 0, 0
	}
	return h
}

// Sum returns the total pixel count represented by the histogram — used to
// check the §8 conservation invariant (Σ bins == datasec.width*height).
func (h *Histogram) Sum() uint64 {
	var total uint64
	for _, b := range h.Bins {
		total += uint64(b)
	}
	return total
}

// GlobalHistogram is the exposure-wide u64 histogram produced by summing
// per-segment Histograms under a fixed bias strategy (§3, §4.6).
type GlobalHistogram struct {
	Bins            [Bins]uint64
	LowestOccupied  int
	HighestOccupied int
}

// MergeGlobal implements mergeGlobal(histograms...) from §4.6: an
// elementwise sum across the union of each histogram's occupied range.
// The result does not depend on merge order (§8 associativity invariant)
// because addition over u64 is commutative and associative.
func MergeGlobal(histograms ...*Histogram) *GlobalHistogram {
	g := &GlobalHistogram{LowestOccupied: Bins, HighestOccupied: -1}
	for _, h := range histograms {
		if h == nil {
			continue
		}
		if h.LowestOccupied < g.LowestOccupied {
			g.LowestOccupied = h.LowestOccupied
		}
		if h.HighestOccupied > g.HighestOccupied {
			g.HighestOccupied = h.HighestOccupied
		}
	}
	if g.HighestOccupied < 0 {
		g.LowestOccupied, g.HighestOccupied = 0, 0
		return g
	}
	for _, h := range histograms {
		if h == nil {
			continue
		}
		for i := g.LowestOccupied; i <= g.HighestOccupied; i++ {
			g.Bins[i] += uint64(h.Bins[i])
		}
	}
	return g
}

// view lets CDF operate uniformly over either a per-segment Histogram or
// a merged GlobalHistogram.
type view interface {
	bin(i int) uint64
	occupiedRange() (int, int)
}

type histogramView struct{ h *Histogram }

func (v histogramView) bin(i int) uint64            { return uint64(v.h.Bins[i]) }
func (v histogramView) occupiedRange() (int, int)   { return v.h.LowestOccupied, v.h.HighestOccupied }

type globalView struct{ g *GlobalHistogram }

func (v globalView) bin(i int) uint64          { return v.g.Bins[i] }
func (v globalView) occupiedRange() (int, int) { return v.g.LowestOccupied, v.g.HighestOccupied }

// CDF computes the prefix sum over the occupied range of a Histogram.
// Bins outside [lowest, highest] are left zero — tile rendering never
// samples them (§4.6).
func CDF(h *Histogram) [Bins]uint32 {
	return cdfOf(histogramView{h})
}

// GlobalCDF computes the prefix sum over a GlobalHistogram.
func GlobalCDF(g *GlobalHistogram) [Bins]uint32 {
	return cdfOf(globalView{g})
}

func cdfOf(v view) [Bins]uint32 {
	var cdf [Bins]uint32
	lo, hi := v.occupiedRange()
	var running uint64
	for i := lo; i <= hi; i++ {
		running += v.bin(i)
		// CDF values are clamped to uint32: a single amplifier or even a
		// focal-plane exposure never approaches 2^32 pixels.
		if running > 1<<32-1 {
			running = 1<<32 - 1
		}
		cdf[i] = uint32(running)
	}
	return cdf
}

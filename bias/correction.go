// Package bias implements the Bias Correction Kernel (C5): pluggable
// strategies computing per-pixel correction factors from a segment's
// overscan regions.
package bias

import (
	"github.com/lsst-camera-visualization/fpmosaic/errs"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

// Kind names the fixed bias-correction enumeration from §6.
type Kind string

const (
	None                        Kind = "None"
	SimpleOverscanCorrection    Kind = "SimpleOverscanCorrection"
	SimpleOverscanSubtraction   Kind = "SimpleOverscanSubtraction"
	SimpleOverscanSubtraction2  Kind = "SimpleOverscanSubtraction2"
	SimpleOverscanSubOnly       Kind = "SimpleOverscanSubOnly"
)

// Factors is a pure function (x, y) -> int32 defined over a segment's
// datasec (§3). Identical (segment, Kind) pairs must produce identical
// outputs (the only invariant the rendering engine assumes).
type Factors interface {
	At(x, y int) int32
	// Overall exposes the strategy's scalar correction for inspection
	// (§4.5) — strategies with a per-column/row table return the mean of
	// their table so the literal-comparison tests in §8 have a single
	// number to check.
	Overall() int32
}

// RawInt32 is the minimal view over decoded pixel data a strategy needs:
// a flat, host-native int32 buffer indexed as x + y*stride.
type RawInt32 struct {
	Buf    []int32
	Stride int
}

func (r RawInt32) at(x, y int) int32 { return r.Buf[x+y*r.Stride] }

// Compute dispatches to the named strategy. Unknown names fail with
// errs.UnknownStrategy per §6/§7.
func Compute(kind Kind, raw RawInt32, seg *fits.Segment) (Factors, error) {
	switch kind {
	case None, "":
		return noOp{}, nil
	case SimpleOverscanCorrection:
		return computeRowSerial(raw, seg)
	case SimpleOverscanSubtraction:
		return computeSerialOverscan(raw, seg)
	case SimpleOverscanSubtraction2:
		return computeSerialParallel(raw, seg)
	case SimpleOverscanSubOnly:
		return computeSerialOverscan(raw, seg)
	default:
		return nil, &errs.UnknownStrategy{Menu: "bias", Name: string(kind)}
	}
}

type noOp struct{}

func (noOp) At(int, int) int32 { return 0 }
func (noOp) Overall() int32    { return 0 }

type scalar struct{ v int32 }

func (s scalar) At(int, int) int32 { return s.v }
func (s scalar) Overall() int32    { return s.v }

package bias

import (
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

func serialOverscanMean(raw RawInt32, seg *fits.Segment) int32 {
	d := seg.Datasec
	var sum int64
	var n int64
	for y := d.Y; y < d.Y+d.Height; y++ {
		for x := 0; x < seg.NAxis1; x++ {
			if x >= d.X && x < d.X+d.Width {
				continue // inside datasec, not overscan
			}
			sum += int64(raw.at(x, y))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int32(roundDiv(sum, n))
}

func parallelOverscanMean(raw RawInt32, seg *fits.Segment) int32 {
	d := seg.Datasec
	var sum int64
	var n int64
	for y := 0; y < seg.NAxis2; y++ {
		if y >= d.Y && y < d.Y+d.Height {
			continue // inside datasec, not overscan
		}
		for x := d.X; x < d.X+d.Width; x++ {
			sum += int64(raw.at(x, y))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int32(roundDiv(sum, n))
}

func roundDiv(sum, n int64) int64 {
	if sum >= 0 {
		return (sum + n/2) / n
	}
	return -((-sum + n/2) / n)
}

// computeSerialOverscan implements SimpleOverscanSubtraction /
// SimpleOverscanSubOnly: a single scalar equal to the mean of the serial
// overscan region, rounded to int32 (§4.5).
func computeSerialOverscan(raw RawInt32, seg *fits.Segment) (Factors, error) {
	return scalar{v: serialOverscanMean(raw, seg)}, nil
}

// computeSerialParallel implements SimpleOverscanSubtraction2: a scalar
// combining both the serial and parallel overscan means. The result is
// total over datasec and invariant to pixel order within each overscan
// region, as §4.5 requires of every strategy.
func computeSerialParallel(raw RawInt32, seg *fits.Segment) (Factors, error) {
	s := serialOverscanMean(raw, seg)
	p := parallelOverscanMean(raw, seg)
	return scalar{v: (s + p) / 2}, nil
}

// rowTable is a per-row correction table — SimpleOverscanCorrection's
// finer-grained variant, computed from each row's own serial overscan
// pixels rather than a single amplifier-wide scalar.
type rowTable struct {
	rows    []int32 // indexed by y - datasec.Y
	yOrigin int
	overall int32
}

func (r rowTable) At(_, y int) int32 {
	idx := y - r.yOrigin
	if idx < 0 || idx >= len(r.rows) {
		return r.overall
	}
	return r.rows[idx]
}

func (r rowTable) Overall() int32 { return r.overall }

// computeRowSerial computes one correction value per datasec row from that
// row's own serial overscan pixels (the "row-wise serial" variant named in
// §4.5). Used internally; exposed through the registry under
// SimpleOverscanCorrection for finer-grained correction than the
// single-scalar SimpleOverscanSubtraction.
func computeRowSerial(raw RawInt32, seg *fits.Segment) (Factors, error) {
	d := seg.Datasec
	rows := make([]int32, d.Height)
	var total int64
	for y := d.Y; y < d.Y+d.Height; y++ {
		var sum int64
		var n int64
		for x := 0; x < seg.NAxis1; x++ {
			if x >= d.X && x < d.X+d.Width {
				continue
			}
			sum += int64(raw.at(x, y))
			n++
		}
		var v int32
		if n > 0 {
			v = int32(roundDiv(sum, n))
		}
		rows[y-d.Y] = v
		total += int64(v)
	}
	overall := int32(0)
	if d.Height > 0 {
		overall = int32(roundDiv(total, int64(d.Height)))
	}
	return rowTable{rows: rows, yOrigin: d.Y, overall: overall}, nil
}

package fits

import (
	"encoding/binary"
	"math"
)

// RawData is the decoded pixel buffer for one Segment (§3): ownership pair
// of (Segment, buffer). Exactly one of IntBuf/FloatBuf is populated,
// according to Segment.BitPix — a tagged variant rather than an interface
// so the RawData cache's byte-weigher can read capacity without dynamic
// dispatch (§9 design note "polymorphic raw buffers").
//
// RawData is single-producer (the decoder) and read-only thereafter;
// callers must not mutate either buffer once it has been published through
// a cache.
type RawData struct {
	Segment  *Segment
	IntBuf   []int32
	FloatBuf []float32
}

// IsFloat reports whether this RawData holds float32 samples.
func (r *RawData) IsFloat() bool { return r.Segment.BitPix == BitPixFloat32 }

// Weight is the byte weight the RawData cache charges this entry (§4.8):
// bufferElements * 4 bytes, regardless of which buffer is populated.
func (r *RawData) Weight() int64 {
	return int64(r.Segment.BufferElements()) * 4
}

// DecodeRawBuffer converts a wire buffer of big-endian 4-byte words (§3) —
// either the segment's raw data block, or the output of
// compress.DecompressTiles — into a host-native RawData for seg.
func DecodeRawBuffer(seg *Segment, wire []byte) *RawData {
	n := seg.BufferElements()
	r := &RawData{Segment: seg}
	if seg.BitPix == BitPixFloat32 {
		buf := make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.BigEndian.Uint32(wire[i*4 : i*4+4])
			buf[i] = math.Float32frombits(bits)
		}
		r.FloatBuf = buf
		return r
	}
	buf := make([]int32, n)
	for i := 0; i < n; i++ {
		buf[i] = int32(binary.BigEndian.Uint32(wire[i*4 : i*4+4]))
	}
	r.IntBuf = buf
	return r
}

package compress

import (
	"encoding/binary"
	"math"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
	"github.com/lsst-camera-visualization/fpmosaic/internal/bitreader"
)

// Rice (RICE_1) tile compression as used by the FITS tile-compression
// convention: blockSize=32 samples per adaptive-k block, bytePix=4 (§4.4).
// There is no general-purpose Go library for this format in the retrieval
// pack (it is a narrow scientific-imaging convention) so both encoder and
// decoder are hand-written here, grounded on the bit-level reader idiom
// the teacher package uses for JPEG entropy decoding.
const (
	riceBlockSize = 32
	riceFSBits    = 5  // width of the per-block Golomb parameter field
	riceFSMax     = 31 // FS value signaling a verbatim (uncoded) block
)

// zigzag folds a signed delta into an unsigned value the way Rice coding
// conventionally does: small magnitudes (positive or negative) map to
// small unsigned codes.
func zigzagFold(v int32) uint32 {
	if v >= 0 {
		return uint32(v) << 1
	}
	return (uint32(-v) << 1) - 1
}

func zigzagUnfold(u uint32) int32 {
	if u&1 == 0 {
		return int32(u >> 1)
	}
	return -int32((u + 1) >> 1)
}

type riceDecoder struct{}

func (riceDecoder) decodeTile(payload []byte, nAxis1 int, bitPix fits.BitPix, out []byte, outOffset int) error {
	samples, err := riceDecodeSamples(payload, nAxis1)
	if err != nil {
		return err
	}
	writeSamples(samples, bitPix, out, outOffset)
	return nil
}

// riceDecodeSamples decodes n samples from a Rice-coded payload. The
// stream begins with the first sample stored verbatim as a 32-bit
// reference value, then proceeds in blocks of riceBlockSize residuals,
// each block preceded by a riceFSBits-wide Golomb parameter k (or the
// sentinel riceFSMax meaning "this block is stored as raw 32-bit values").
func riceDecodeSamples(payload []byte, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	if len(payload) < 4 {
		return nil, &errs.Internal{Reason: "rice payload too short for reference sample"}
	}
	samples := make([]int32, n)
	samples[0] = int32(binary.BigEndian.Uint32(payload[0:4]))

	br := bitreader.New(payload[4:])
	prev := samples[0]
	i := 1
	for i < n {
		k, ok := br.Bits(riceFSBits)
		if !ok {
			return nil, &errs.Internal{Reason: "rice stream truncated reading block parameter"}
		}
		blockLen := riceBlockSize
		if n-i < blockLen {
			blockLen = n - i
		}
		if int(k) == riceFSMax {
			for b := 0; b < blockLen; b++ {
				v, ok := br.Bits(32)
				if !ok {
					return nil, &errs.Internal{Reason: "rice stream truncated reading verbatim block"}
				}
				samples[i] = int32(v)
				prev = samples[i]
				i++
			}
			continue
		}
		for b := 0; b < blockLen; b++ {
			q, ok := br.UnaryZeros()
			if !ok {
				return nil, &errs.Internal{Reason: "rice stream truncated reading quotient"}
			}
			r := uint32(0)
			if k > 0 {
				r, ok = br.Bits(int(k))
				if !ok {
					return nil, &errs.Internal{Reason: "rice stream truncated reading remainder"}
				}
			}
			delta := zigzagUnfold(uint32(q)<<uint(k) | r)
			prev = prev + delta
			samples[i] = prev
			i++
		}
	}
	return samples, nil
}

// riceEncodeSamples is the encoder counterpart, used by this package's
// tests to build round-trip fixtures — the spec requires decompression
// idempotence (§8), not interoperability with a literal external
// bitstream we have no fixture for.
func riceEncodeSamples(samples []int32) []byte {
	if len(samples) == 0 {
		return nil
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(samples[0]))

	var bw bitWriter
	prev := samples[0]
	for i := 1; i < len(samples); i += riceBlockSize {
		end := i + riceBlockSize
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[i:end]
		k := bestRiceK(block, prev)
		bw.writeBits(uint32(k), riceFSBits)
		p := prev
		for _, s := range block {
			delta := s - p
			u := zigzagFold(delta)
			q := u >> uint(k)
			r := u & ((1 << uint(k)) - 1)
			bw.writeUnary(int(q))
			if k > 0 {
				bw.writeBits(r, k)
			}
			p = s
		}
		prev = p
	}
	return append(out, bw.bytes()...)
}

// bestRiceK picks the Golomb parameter minimizing encoded length for a
// block, a simple exhaustive search adequate for test fixture generation.
func bestRiceK(block []int32, prev int32) int {
	bestK, bestBits := 0, math.MaxInt64
	for k := 0; k <= 30; k++ {
		bits := 0
		p := prev
		for _, s := range block {
			u := zigzagFold(s - p)
			bits += int(u>>uint(k)) + 1 + k
			p = s
		}
		if bits < bestBits {
			bestBits, bestK = bits, k
		}
	}
	return bestK
}

// bitWriter is the minimal MSB-first companion to bitreader.Reader.
type bitWriter struct {
	buf    []byte
	cur    byte
	nbits  uint
}

func (w *bitWriter) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		w.cur = w.cur<<1 | bit
		w.nbits++
		if w.nbits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.nbits = 0, 0
		}
	}
}

func (w *bitWriter) writeUnary(q int) {
	for i := 0; i < q; i++ {
		w.writeBits(0, 1)
	}
	w.writeBits(1, 1)
}

func (w *bitWriter) bytes() []byte {
	if w.nbits > 0 {
		w.cur <<= (8 - w.nbits)
		return append(w.buf, w.cur)
	}
	return w.buf
}

// writeSamples writes each decoded 32-bit word verbatim as big-endian
// bytes; whether the bit pattern is an int32 or an IEEE-754 float32 is a
// RawData-level interpretation (§3), not something the tile decoder needs
// to branch on — bitPix is accepted for interface symmetry with gzip2Decoder.
func writeSamples(samples []int32, bitPix fits.BitPix, out []byte, outOffset int) {
	_ = bitPix
	for i, s := range samples {
		off := outOffset + i*4
		binary.BigEndian.PutUint32(out[off:off+4], uint32(s))
	}
}

// Package compress implements the Decompressor (C4): tile-wise RICE_1 and
// GZIP_2 inflation of FITS compressed-image HDUs into int32 or float32
// pixel buffers.
package compress

import (
	"encoding/binary"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

// tileDecoder decompresses one tile's payload (one image row) into nAxis1
// output samples, written as big-endian int32 or float32 bit patterns into
// out starting at outOffset.
type tileDecoder interface {
	decodeTile(payload []byte, nAxis1 int, bitPix fits.BitPix, out []byte, outOffset int) error
}

func decoderFor(kind fits.CompressionKind) (tileDecoder, error) {
	switch kind {
	case fits.CompressionRICE1:
		return riceDecoder{}, nil
	case fits.CompressionGZIP2:
		return gzip2Decoder{}, nil
	default:
		return nil, &errs.UnsupportedCompression{Kind: kind.String()}
	}
}

// DecompressTiles implements §4.4's algorithm: the fetched byte range is
// cAxis1*cAxis2 bytes of tile directory (pairs of big-endian int32
// length/offset, only length consulted) followed by cAxis2 concatenated
// tile payloads, each decompressed into one row of nAxis1 samples.
//
// The returned buffer holds nAxis1*cAxis2 samples as big-endian 4-byte
// words (int32 or float32 bit pattern, per bitPix) — the wire byte order
// RawData documents in §3; the cache layer that publishes RawData converts
// to host-native order once.
func DecompressTiles(raw []byte, kind fits.CompressionKind, cAxis1, cAxis2, nAxis1 int, bitPix fits.BitPix) ([]byte, error) {
	dirBytes := cAxis1 * cAxis2
	if dirBytes > len(raw) || dirBytes%4 != 0 {
		return nil, &errs.Internal{Reason: "malformed tile directory"}
	}
	nEntries := dirBytes / 4
	if nEntries != cAxis2*2 {
		return nil, &errs.Internal{Reason: "tile directory entry count does not match cAxis2"}
	}

	lengths := make([]int, cAxis2)
	for i := 0; i < cAxis2; i++ {
		base := i * 8
		lengths[i] = int(binary.BigEndian.Uint32(raw[base : base+4]))
	}

	dec, err := decoderFor(kind)
	if err != nil {
		return nil, err
	}

	out := make([]byte, nAxis1*cAxis2*4)
	cursor := dirBytes
	for i := 0; i < cAxis2; i++ {
		length := lengths[i]
		if cursor+length > len(raw) {
			return nil, &errs.Internal{Reason: "tile payload extends past fetched range"}
		}
		payload := raw[cursor : cursor+length]
		if err := dec.decodeTile(payload, nAxis1, bitPix, out, i*nAxis1*4); err != nil {
			return nil, err
		}
		cursor += length
	}
	return out, nil
}

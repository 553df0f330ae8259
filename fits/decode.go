package fits

import (
	"context"
	"strings"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
	"github.com/lsst-camera-visualization/fpmosaic/fetch"
)

const headerReadChunk = 10 * blockSize // read 10 header blocks at a time
const maxHeaderBlocks = 200            // guard against a file with no END card

const raftGridStep = 12700.0 // pixels per raft-grid step (§4.2 Q->E shift)
const dmGutterX = 150.0      // DM single-CCD synthesized WCS gutter (§4.2)
const dmGutterY = 200.0

// WCSOverride lets a caller (or the DM-single-CCD synthesis path) supply an
// explicit WCS letter, affine and datasec instead of the ones a header
// would otherwise require (§4.2: "Required when no override is supplied").
type WCSOverride struct {
	Letter  byte
	WCS     Affine
	Datasec Rect
}

// DecodeSegments implements C2: decodeSegments(descriptor, wcsLetter,
// wcsOverride) -> ordered list of Segment. tolerant controls whether a
// failure decoding a later HDU discards the whole result (false, default)
// or returns the Segments successfully built so far (true) per §4.2.
func DecodeSegments(ctx context.Context, reader fetch.Reader, descriptor SegmentDescriptor,
	wcsLetter byte, override *WCSOverride, tolerant bool) ([]*Segment, error) {

	dialect, _, err := ParseDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	if dialect == DialectDAQ {
		return nil, &errs.Unsupported{Feature: "DAQ descriptor dialect"}
	}

	file := string(descriptor)
	fileSize, err := reader.Size(ctx, file)
	if err != nil {
		return nil, err
	}

	primaryHeader, primaryHeaderLen, err := readHDUHeader(ctx, reader, file, 0)
	if err != nil {
		return nil, err
	}

	if _, ok := primaryHeader.str("N_STAMPS"); ok {
		return nil, nil // guider file: empty result (§4.2)
	}

	raft, _ := primaryHeader.str("RAFTBAY")
	ccdSlot, ok := primaryHeader.str("CCDSLOT")
	if !ok {
		ccdSlot, _ = primaryHeader.str("SENSNAME")
	}

	expID, hasExpID := primaryHeader.int("EXPID")
	dmSingle := hasExpID && expID != 0

	numHDU := 16
	if strings.HasPrefix(ccdSlot, "SW") {
		numHDU = 8
	}
	if dmSingle {
		numHDU = 1
	}

	primaryDataLen := dataByteLength(primaryHeader)
	offset := int64(primaryHeaderLen) + padTo2880(primaryDataLen)

	var segments []*Segment
	for hdu := 1; hdu <= numHDU; hdu++ {
		h, headerLen, err := readHDUHeader(ctx, reader, file, offset)
		if err != nil {
			if tolerant && len(segments) > 0 {
				return segments, nil
			}
			return nil, err
		}

		var seg *Segment
		if dmSingle {
			seg, err = buildDMSegment(h, file, hdu, fileSize, offset, headerLen, ccdSlot)
		} else {
			seg, err = buildSegment(h, file, hdu, fileSize, offset, headerLen, raft, wcsLetter, override)
		}
		if err != nil {
			if tolerant && len(segments) > 0 {
				return segments, nil
			}
			return nil, err
		}
		seg.Raft = raft
		seg.CCDSlot = ccdSlot
		segments = append(segments, seg)

		dataLen := seg.Length
		offset = seg.Offset + padTo2880(dataLen)
	}

	return segments, nil
}

// readHDUHeader fetches and parses the header of the HDU whose first byte
// is at fileOffset, growing the read window until an END card is found.
func readHDUHeader(ctx context.Context, reader fetch.Reader, file string, fileOffset int64) (*header, int, error) {
	chunk := int64(headerReadChunk)
	for blocks := 0; blocks < maxHeaderBlocks; blocks += headerReadChunk / blockSize {
		raw, err := reader.ReadRange(ctx, file, fileOffset, chunk)
		if err != nil {
			return nil, 0, err
		}
		h, n, done := parseHeader(raw)
		if done {
			return h, n, nil
		}
		chunk += headerReadChunk
	}
	return nil, 0, &errs.Internal{Reason: "HDU header exceeds " + itoa(maxHeaderBlocks) + " blocks without END card"}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

func padTo2880(n int64) int64 {
	r := n % blockSize
	if r == 0 {
		return n
	}
	return n + (blockSize - r)
}

// dataByteLength computes the data-block length of an (uncompressed) HDU
// from its header, 0 if the HDU carries no data (NAXIS == 0, as is typical
// of the primary HDU here).
func dataByteLength(h *header) int64 {
	naxis, _ := h.int("NAXIS")
	if naxis == 0 {
		return 0
	}
	bitpix, _ := h.int("BITPIX")
	total := int64(1)
	for i := 1; i <= naxis; i++ {
		n, _ := h.int("NAXIS" + itoa(i))
		total *= int64(n)
	}
	bytesPerSample := int64(4)
	if bitpix < 0 {
		bytesPerSample = int64(-bitpix) / 8
	} else {
		bytesPerSample = int64(bitpix) / 8
	}
	return total * bytesPerSample
}

// buildSegment constructs one Segment from a non-primary HDU header,
// following the compressed/uncompressed and WCS rules of §4.2.
func buildSegment(h *header, file string, hdu int, fileSize, offset int64, headerLen int,
	raft string, wcsLetter byte, override *WCSOverride) (*Segment, error) {

	seg := &Segment{
		File: file, HDU: hdu, FileSize: fileSize,
		Offset: offset + int64(headerLen),
	}

	zimage, _ := h.bool("ZIMAGE")
	if zimage {
		zcmptype, ok := h.str("ZCMPTYPE")
		if !ok {
			return nil, &errs.MissingHeader{Key: "ZCMPTYPE", HDU: hdu}
		}
		switch zcmptype {
		case "RICE_1":
			seg.Compression = CompressionRICE1
		case "GZIP_2":
			seg.Compression = CompressionGZIP2
		default:
			return nil, &errs.UnsupportedCompression{Kind: zcmptype}
		}
		seg.IsCompressed = true

		zbitpix, ok := h.int("ZBITPIX")
		if !ok {
			return nil, &errs.MissingHeader{Key: "ZBITPIX", HDU: hdu}
		}
		seg.BitPix = BitPix(zbitpix)

		nAxis1, ok1 := h.int("ZNAXIS1")
		nAxis2, ok2 := h.int("ZNAXIS2")
		if !ok1 || !ok2 {
			return nil, &errs.MissingHeader{Key: "ZNAXIS1/2", HDU: hdu}
		}
		seg.NAxis1, seg.NAxis2 = nAxis1, nAxis2

		cAxis1, ok1 := h.int("NAXIS1")
		cAxis2, ok2 := h.int("NAXIS2")
		if !ok1 || !ok2 {
			return nil, &errs.MissingHeader{Key: "NAXIS1/2", HDU: hdu}
		}
		seg.CAxis1, seg.CAxis2 = cAxis1, cAxis2

		pcount, _ := h.int("PCOUNT")
		seg.Length = int64(cAxis1*cAxis2) + int64(pcount)
	} else {
		bitpix, ok := h.int("BITPIX")
		if !ok {
			return nil, &errs.MissingHeader{Key: "BITPIX", HDU: hdu}
		}
		seg.BitPix = BitPix(bitpix)

		nAxis1, ok1 := h.int("NAXIS1")
		nAxis2, ok2 := h.int("NAXIS2")
		if !ok1 || !ok2 {
			return nil, &errs.MissingHeader{Key: "NAXIS1/2", HDU: hdu}
		}
		seg.NAxis1, seg.NAxis2 = nAxis1, nAxis2
		seg.Length = int64(nAxis1) * int64(nAxis2) * 4
	}

	var datasec Rect
	var affine Affine
	var letter byte
	if override != nil {
		datasec = override.Datasec
		affine = override.WCS
		letter = override.Letter
	} else {
		v, ok := h.str("DATASEC")
		if !ok {
			return nil, &errs.MissingHeader{Key: "DATASEC", HDU: hdu}
		}
		d, err := ParseDatasec(v)
		if err != nil {
			return nil, err
		}
		datasec = d
		letter = wcsLetter

		t, err := resolveWCS(h, hdu, wcsLetter, raft)
		if err != nil {
			return nil, err
		}
		affine = t
	}
	seg.Datasec = datasec
	seg.WCSLetter = letter

	affine = affine.Translated(float64(datasec.X)+0.5, float64(datasec.Y)+0.5)
	seg.WCS = affine
	seg.Bound = BoundingBox(affine, float64(datasec.Width), float64(datasec.Height))

	segName, _ := h.str("EXTNAME")
	seg.SegName = segName

	return seg, nil
}

// resolveWCS reads the six WCS doubles for wcsLetter (with the Q->E raft
// shift special case, §4.2) and builds the unshifted Affine.
func resolveWCS(h *header, hdu int, wcsLetter byte, raft string) (Affine, error) {
	letter := wcsLetter
	qSpecial := letter == 'Q'
	if qSpecial {
		letter = 'E'
	}
	suffix := string(letter)

	pc11, ok1 := h.float("PC1_1" + suffix)
	pc12, ok2 := h.float("PC1_2" + suffix)
	pc21, ok3 := h.float("PC2_1" + suffix)
	pc22, ok4 := h.float("PC2_2" + suffix)
	cr1, ok5 := h.float("CRVAL1" + suffix)
	cr2, ok6 := h.float("CRVAL2" + suffix)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return Affine{}, &errs.MissingHeader{Key: "PCn_n" + suffix + "/CRVALn" + suffix, HDU: hdu}
	}

	t := Affine{A: pc11, B: pc12, C: pc21, D: pc22, Tx: cr1, Ty: cr2}

	if qSpecial {
		d1, d2, ok := raftBayDigits(raft)
		if ok {
			t = t.Shifted(float64(d1)*raftGridStep, float64(d2)*raftGridStep)
		}
	}
	return t, nil
}

// buildDMSegment constructs the single Segment of a DM-produced exposure
// file (EXPID != 0), synthesizing the WCS override described in §4.2.
func buildDMSegment(h *header, file string, hdu int, fileSize, offset int64, headerLen int, ccdSlot string) (*Segment, error) {
	bitpix, ok := h.int("BITPIX")
	if !ok {
		return nil, &errs.MissingHeader{Key: "BITPIX", HDU: hdu}
	}
	nAxis1, ok1 := h.int("NAXIS1")
	nAxis2, ok2 := h.int("NAXIS2")
	if !ok1 || !ok2 {
		return nil, &errs.MissingHeader{Key: "NAXIS1/2", HDU: hdu}
	}

	d1, d2, _ := ccdSlotDigits(ccdSlot)
	tx := float64(d1)*(float64(nAxis1)+dmGutterX)
	ty := float64(d2)*(float64(nAxis2)+dmGutterY)

	datasec := Rect{X: 0, Y: 0, Width: nAxis1, Height: nAxis2}
	affine := Affine{A: 1, D: 1, Tx: tx, Ty: ty}
	affine = affine.Translated(float64(datasec.X)+0.5, float64(datasec.Y)+0.5)

	seg := &Segment{
		File: file, HDU: hdu, FileSize: fileSize,
		Offset:    offset + int64(headerLen),
		BitPix:    BitPix(bitpix),
		NAxis1:    nAxis1,
		NAxis2:    nAxis2,
		Length:    int64(nAxis1) * int64(nAxis2) * 4,
		Datasec:   datasec,
		WCSLetter: 'D',
		WCS:       affine,
		Bound:     BoundingBox(affine, float64(datasec.Width), float64(datasec.Height)),
	}
	return seg, nil
}

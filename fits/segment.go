package fits

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

// CompressionKind enumerates the two tile-compression schemes this core
// understands (§1 non-goals: no others are required).
type CompressionKind int

const (
	CompressionNone CompressionKind = iota
	CompressionRICE1
	CompressionGZIP2
)

func (k CompressionKind) String() string {
	switch k {
	case CompressionRICE1:
		return "RICE_1"
	case CompressionGZIP2:
		return "GZIP_2"
	default:
		return "none"
	}
}

// BitPix enumerates the two pixel sample formats the pipeline decodes.
type BitPix int

const (
	BitPixInt32   BitPix = 32
	BitPixFloat32 BitPix = -32
)

// Segment is the immutable metadata record for one amplifier HDU. See §3.
type Segment struct {
	File   string // source file URL or local path
	HDU    int    // HDU ordinal within File
	Offset int64  // byte offset of the data block
	Length int64  // byte length of the data block (compressed or raw)
	FileSize int64 // freshness witness: file size observed at decode time

	NAxis1, NAxis2 int
	BitPix         BitPix

	IsCompressed    bool
	Compression     CompressionKind
	CAxis1, CAxis2  int // compressed-table dims (tile directory + row count)

	Datasec Rect

	Raft       string
	CCDSlot    string
	SegName    string
	WCSLetter  byte

	WCS   Affine // segment-local pixel -> focal-plane, translated to datasec origin
	Bound FRect  // bounding box of WCS applied to datasec, used for region filtering
}

// Key is the cache identity of a Segment: (file, HDU ordinal, wcsLetter).
// Two Segments built from identical inputs must compare equal (§8 invariant
// "Segment immutability") — that's exactly the struct literal comparability
// Key gives us, independent of any other field.
type Key struct {
	File      string
	HDU       int
	WCSLetter byte
}

// Identity returns the cache-key triple for this Segment.
func (s *Segment) Identity() Key {
	return Key{File: s.File, HDU: s.HDU, WCSLetter: s.WCSLetter}
}

// BufferElements is the pixel count backing RawData for this segment, used
// by the RawData cache's byte-weigher without dynamic dispatch on the
// decoded buffer's tag (§9 design note "polymorphic raw buffers").
func (s *Segment) BufferElements() int {
	return s.NAxis1 * s.NAxis2
}

var datasecRE = regexp.MustCompile(`^\[\s*(\d+)\s*:\s*(\d+)\s*,\s*(\d+)\s*:\s*(\d+)\s*\]$`)

// ParseDatasec parses a FITS DATASEC value "[x1:x2,y1:y2]" (1-based
// inclusive) into the 0-based half-open Rect (x1-1, y1-1, x2-x1+1,
// y2-y1+1) per §4.2 and the round-trip invariant in §8.
func ParseDatasec(value string) (Rect, error) {
	m := datasecRE.FindStringSubmatch(value)
	if m == nil {
		return Rect{}, &errs.MalformedDatasec{Value: value}
	}
	x1, _ := strconv.Atoi(m[1])
	x2, _ := strconv.Atoi(m[2])
	y1, _ := strconv.Atoi(m[3])
	y2, _ := strconv.Atoi(m[4])
	if x1 < 1 || y1 < 1 || x2 < x1 || y2 < y1 {
		return Rect{}, &errs.MalformedDatasec{Value: value}
	}
	return Rect{
		X: x1 - 1, Y: y1 - 1,
		Width:  x2 - x1 + 1,
		Height: y2 - y1 + 1,
	}, nil
}

// FormatDatasec renders a Rect back to FITS DATASEC syntax — used only by
// tests exercising the round-trip invariant.
func FormatDatasec(r Rect) string {
	return fmt.Sprintf("[%d:%d,%d:%d]", r.X+1, r.X+r.Width, r.Y+1, r.Y+r.Height)
}

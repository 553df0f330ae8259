package fits

import (
	"strconv"
	"strings"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

// SegmentDescriptor identifies one CCD/extension. It is an opaque string
// with two recognized dialects: a filesystem path or object-store URL, and
// the DAQ dialect `DAQ:<partition>:<folder>/<image>:<raft>/<reb>` (§3). The
// DAQ dialect is recognized so it fails cleanly rather than falling through
// to the file/object path parser and producing a confusing I/O error.
type SegmentDescriptor string

// Dialect enumerates the recognized descriptor grammars.
type Dialect int

const (
	DialectFile Dialect = iota
	DialectDAQ
)

// DAQRef holds the parsed fields of a DAQ-dialect descriptor. The core
// never resolves these fields to pixel data (§3, §9): decodeSegments fails
// with errs.Unsupported as soon as parsing succeeds.
type DAQRef struct {
	Partition string
	Folder    string
	Image     string
	Raft      string
	REB       string
}

// ParseDescriptor classifies descriptor and, for the DAQ dialect, extracts its
// fields. A malformed DAQ-looking string (wrong field count) is reported as
// errs.MalformedDescriptor; a well-formed one is returned with Dialect ==
// DialectDAQ so the caller can reject it with errs.Unsupported.
func ParseDescriptor(d SegmentDescriptor) (Dialect, DAQRef, error) {
	s := string(d)
	if !strings.HasPrefix(s, "DAQ:") {
		return DialectFile, DAQRef{}, nil
	}

	rest := strings.TrimPrefix(s, "DAQ:")
	// <partition>:<folder>/<image>:<raft>/<reb>
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return DialectDAQ, DAQRef{}, &errs.MalformedDescriptor{
			Descriptor: s, Reason: "expected DAQ:<partition>:<folder>/<image>:<raft>/<reb>",
		}
	}
	partition := parts[0]
	folderImage := strings.SplitN(parts[1], "/", 2)
	if len(folderImage) != 2 {
		return DialectDAQ, DAQRef{}, &errs.MalformedDescriptor{
			Descriptor: s, Reason: "missing <folder>/<image>",
		}
	}
	raftReb := strings.SplitN(parts[2], "/", 2)
	if len(raftReb) != 2 {
		return DialectDAQ, DAQRef{}, &errs.MalformedDescriptor{
			Descriptor: s, Reason: "missing <raft>/<reb>",
		}
	}
	if partition == "" || folderImage[0] == "" || folderImage[1] == "" ||
		raftReb[0] == "" || raftReb[1] == "" {
		return DialectDAQ, DAQRef{}, &errs.MalformedDescriptor{
			Descriptor: s, Reason: "empty field",
		}
	}

	return DialectDAQ, DAQRef{
		Partition: partition,
		Folder:    folderImage[0],
		Image:     folderImage[1],
		Raft:      raftReb[0],
		REB:       raftReb[1],
	}, nil
}

// IsObjectURL reports whether a file-dialect descriptor names an
// object-store location (s3:<endpoint>/<bucket>/<object>) rather than a
// local path.
func IsObjectURL(s string) bool {
	return strings.HasPrefix(s, "s3:")
}

// raftBayDigits extracts the two grid digits from a four-character RAFTBAY
// name (e.g. "R22" style names are camera-specific; the convention used
// here is positions 1 and 2 of the name, per §4.2).
func raftBayDigits(raftbay string) (int, int, bool) {
	if len(raftbay) < 3 {
		return 0, 0, false
	}
	d1, err1 := strconv.Atoi(string(raftbay[1]))
	d2, err2 := strconv.Atoi(string(raftbay[2]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return d1, d2, true
}

// ccdSlotDigits extracts the two digits from a three-character CCDSLOT name
// (e.g. "S00"), used to synthesize the DM-single-CCD WCS override (§4.2).
func ccdSlotDigits(ccdslot string) (int, int, bool) {
	if len(ccdslot) < 3 {
		return 0, 0, false
	}
	d1, err1 := strconv.Atoi(string(ccdslot[1]))
	d2, err2 := strconv.Atoi(string(ccdslot[2]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return d1, d2, true
}

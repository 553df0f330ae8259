// Package fetch implements the Byte Reader (C3): asynchronous byte-range
// fetches from a local file or an s3-compatible object store, with
// per-URL handle caching and idle eviction.
package fetch

import (
	"context"
)

// Reader fetches byte ranges and, where needed, the total size of the
// resource named by url — the latter backs the Segment freshness witness
// (§3, §9). Implementations dispatch by URL scheme; callers never need to
// know which backend served a given descriptor.
type Reader interface {
	// ReadRange returns up to length bytes starting at offset. The
	// returned slice is a big-endian byte-order view (§3): the FITS wire
	// format is big-endian regardless of backend.
	ReadRange(ctx context.Context, url string, offset, length int64) ([]byte, error)

	// Size returns the total byte length of the resource, used as the
	// Segment freshness tag.
	Size(ctx context.Context, url string) (int64, error)
}

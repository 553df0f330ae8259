package fetch

import (
	"context"
	"strings"
)

// DispatchReader routes a byte-range request to the object-store backend
// when url has the "s3:" scheme (§6), and to the local filesystem backend
// otherwise. It is the Reader the rest of the pipeline is built against.
type DispatchReader struct {
	handles *handleCache
	files   *fileReader
	objects *objectReader
}

// NewDispatchReader constructs a Reader with its own handle cache. Callers
// should keep one DispatchReader for the process lifetime so the handle
// cache's idle-eviction policy (§3) has a stable population to operate on.
func NewDispatchReader() *DispatchReader {
	handles := newHandleCache()
	return &DispatchReader{
		handles: handles,
		files:   newFileReader(handles),
		objects: newObjectReader(handles),
	}
}

func (d *DispatchReader) ReadRange(ctx context.Context, url string, offset, length int64) ([]byte, error) {
	if strings.HasPrefix(url, "s3:") {
		return d.objects.readRange(ctx, url, offset, length)
	}
	return d.files.readRange(ctx, url, offset, length)
}

func (d *DispatchReader) Size(ctx context.Context, url string) (int64, error) {
	if strings.HasPrefix(url, "s3:") {
		return d.objects.size(ctx, url)
	}
	return d.files.size(ctx, url)
}

// Close releases every cached handle and stops the idle-eviction sweep.
func (d *DispatchReader) Close() {
	d.handles.close()
}

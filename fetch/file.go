package fetch

import (
	"context"
	"os"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

// fileReader serves local filesystem paths via positional reads. Handles
// are shared and idle-expired by the handleCache (handles.go); fileReader
// itself holds no per-call state.
type fileReader struct {
	handles *handleCache
}

func newFileReader(handles *handleCache) *fileReader {
	return &fileReader{handles: handles}
}

func (f *fileReader) readRange(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	h, err := f.handles.acquire(path, func() (closer, error) {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return fh, nil
	})
	if err != nil {
		return nil, &errs.IOError{URL: path, Err: err}
	}
	fh := h.(*os.File)

	buf := make([]byte, length)
	n, err := fh.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return nil, &errs.IOError{URL: path, Err: err}
	}
	return buf[:n], nil
}

func (f *fileReader) size(ctx context.Context, path string) (int64, error) {
	h, err := f.handles.acquire(path, func() (closer, error) {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return fh, nil
	})
	if err != nil {
		return 0, &errs.IOError{URL: path, Err: err}
	}
	fh := h.(*os.File)
	info, err := fh.Stat()
	if err != nil {
		return 0, &errs.IOError{URL: path, Err: err}
	}
	return info.Size(), nil
}

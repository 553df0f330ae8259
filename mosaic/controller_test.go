package mosaic

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/bias"
	"github.com/lsst-camera-visualization/fpmosaic/colormap"
	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

func rectFarAway() *fits.Rect {
	return &fits.Rect{X: 1_000_000, Y: 1_000_000, Width: 1, Height: 1}
}

const cardSize = 80
const blockSize = 2880

func card(key, value string) string {
	s := fmt.Sprintf("%-8s= %s", key, value)
	for len(s) < cardSize {
		s += " "
	}
	return s[:cardSize]
}

func strCard(key, value string) string {
	return card(key, fmt.Sprintf("'%-8s'", value))
}

func buildHeaderBytes(cards ...string) []byte {
	var raw []byte
	for _, c := range cards {
		raw = append(raw, []byte(c)...)
	}
	raw = append(raw, []byte(card("END", ""))...)
	for len(raw)%blockSize != 0 {
		raw = append(raw, ' ')
	}
	return raw
}

// buildDMFITSFile assembles a minimal DM-single-CCD FITS file: a
// data-less primary HDU (EXPID != 0) followed by one nAxis x nAxis int32
// data HDU.
func buildDMFITSFile(nAxis int) []byte {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		card("EXPID", "42"),
		strCard("CCDSLOT", "S11"),
	)
	hdu := buildHeaderBytes(
		card("BITPIX", "32"),
		card("NAXIS1", fmt.Sprintf("%d", nAxis)),
		card("NAXIS2", fmt.Sprintf("%d", nAxis)),
	)
	data := make([]byte, nAxis*nAxis*4)
	for i := 0; i < nAxis*nAxis; i++ {
		binary.BigEndian.PutUint32(data[i*4:i*4+4], uint32(i*7))
	}
	raw := append(append(primary, hdu...), data...)
	for len(raw)%blockSize != 0 {
		raw = append(raw, 0)
	}
	return raw
}

type memReader struct {
	files map[string][]byte
}

func (m *memReader) ReadRange(ctx context.Context, url string, offset, length int64) ([]byte, error) {
	data := m.files[url]
	end := offset + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return data[offset:end], nil
}

func (m *memReader) Size(ctx context.Context, url string) (int64, error) {
	return int64(len(m.files[url])), nil
}

type recordingRaster struct {
	writes int
}

func (r *recordingRaster) Set(fx, fy float64, c colormap.RGB) {
	if !math.IsNaN(fx) && !math.IsNaN(fy) {
		r.writes++
	}
}

func TestController_RenderEndToEnd(t *testing.T) {
	fitsBytes := buildDMFITSFile(4)
	reader := &memReader{files: map[string][]byte{
		"index.txt": []byte("amp.fits\n"),
		"amp.fits":  fitsBytes,
	}}

	core, err := New(reader, Config{})
	require.NoError(t, err)

	out := &recordingRaster{}
	req := Request{
		IndexURL: "index.txt",
		Colormap: colormap.Grey,
		BiasKind: bias.None,
	}
	err = core.Render(context.Background(), req, out)
	require.NoError(t, err)
	require.Equal(t, 16, out.writes) // full 4x4 datasec
}

func TestController_RenderFiltersBySourceRect(t *testing.T) {
	fitsBytes := buildDMFITSFile(4)
	reader := &memReader{files: map[string][]byte{
		"index.txt": []byte("amp.fits\n"),
		"amp.fits":  fitsBytes,
	}}

	core, err := New(reader, Config{})
	require.NoError(t, err)

	out := &recordingRaster{}
	req := Request{
		IndexURL:   "index.txt",
		Colormap:   colormap.Grey,
		BiasKind:   bias.None,
		SourceRect: rectFarAway(),
	}
	err = core.Render(context.Background(), req, out)
	require.NoError(t, err)
	require.Equal(t, 0, out.writes)
}

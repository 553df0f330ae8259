package compress

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/fits"
)

func buildTileDirectory(lengths []int) []byte {
	dir := make([]byte, len(lengths)*8)
	for i, l := range lengths {
		binary.BigEndian.PutUint32(dir[i*8:i*8+4], uint32(l))
		// offset field is present but unused by the reference implementation (§4.4)
		binary.BigEndian.PutUint32(dir[i*8+4:i*8+8], 0)
	}
	return dir
}

func TestDecompressTiles_RICE1_RoundTrip(t *testing.T) {
	nAxis1 := 20
	cAxis2 := 3
	rows := make([][]int32, cAxis2)
	for r := 0; r < cAxis2; r++ {
		row := make([]int32, nAxis1)
		for i := range row {
			row[i] = int32(1000 + r*7 + i*3 - i*i%5)
		}
		rows[r] = row
	}

	var payloads [][]byte
	for _, row := range rows {
		payloads = append(payloads, riceEncodeSamples(row))
	}
	lengths := make([]int, cAxis2)
	for i, p := range payloads {
		lengths[i] = len(p)
	}
	const cAxis1 = 8 // each directory entry is one (length, offset) int32 pair

	raw := buildTileDirectory(lengths)
	for _, p := range payloads {
		raw = append(raw, p...)
	}

	out, err := DecompressTiles(raw, fits.CompressionRICE1, cAxis1, cAxis2, nAxis1, fits.BitPixInt32)
	require.NoError(t, err)
	require.Len(t, out, nAxis1*cAxis2*4)

	for r := 0; r < cAxis2; r++ {
		for i := 0; i < nAxis1; i++ {
			off := (r*nAxis1 + i) * 4
			got := int32(binary.BigEndian.Uint32(out[off : off+4]))
			require.Equal(t, rows[r][i], got, "row %d sample %d", r, i)
		}
	}
}

func TestDecompressTiles_RICE1_Idempotent(t *testing.T) {
	nAxis1 := 16
	row := []int32{10, 12, 9, 9, 9, 100, -5, -5, -5, -5, 0, 1, 2, 3, 4, 5}
	payload := riceEncodeSamples(row)
	lengths := []int{len(payload)}
	raw := buildTileDirectory(lengths)
	raw = append(raw, payload...)

	cAxis1 := 8 // 1 tile * 8 bytes of directory
	out1, err := DecompressTiles(raw, fits.CompressionRICE1, cAxis1, 1, nAxis1, fits.BitPixInt32)
	require.NoError(t, err)
	out2, err := DecompressTiles(raw, fits.CompressionRICE1, cAxis1, 1, nAxis1, fits.BitPixInt32)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestDecompressTiles_GZIP2_RoundTrip(t *testing.T) {
	nAxis1 := 12
	cAxis2 := 2
	rows := make([][]uint32, cAxis2)
	for r := 0; r < cAxis2; r++ {
		row := make([]uint32, nAxis1)
		for i := range row {
			row[i] = uint32(500 + r*13 + i)
		}
		rows[r] = row
	}
	var payloads [][]byte
	for _, row := range rows {
		payloads = append(payloads, gzip2Encode(row))
	}
	lengths := make([]int, cAxis2)
	for i, p := range payloads {
		lengths[i] = len(p)
	}
	const cAxis1 = 8

	raw := buildTileDirectory(lengths)
	for _, p := range payloads {
		raw = append(raw, p...)
	}

	out, err := DecompressTiles(raw, fits.CompressionGZIP2, cAxis1, cAxis2, nAxis1, fits.BitPixFloat32)
	require.NoError(t, err)

	for r := 0; r < cAxis2; r++ {
		for i := 0; i < nAxis1; i++ {
			off := (r*nAxis1 + i) * 4
			got := binary.BigEndian.Uint32(out[off : off+4])
			require.Equal(t, rows[r][i], got)
		}
	}
}

func TestDecompressTiles_UnsupportedKind(t *testing.T) {
	_, err := DecompressTiles(make([]byte, 8), fits.CompressionNone, 8, 1, 4, fits.BitPixInt32)
	require.Error(t, err)
}

package fits

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

type fakeReader struct {
	data []byte
}

func (f *fakeReader) ReadRange(ctx context.Context, url string, offset, length int64) ([]byte, error) {
	end := offset + length
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	if offset > int64(len(f.data)) {
		offset = int64(len(f.data))
	}
	return f.data[offset:end], nil
}

func (f *fakeReader) Size(ctx context.Context, url string) (int64, error) {
	return int64(len(f.data)), nil
}

func TestDecodeSegments_DMSingleCCD(t *testing.T) {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		card("EXPID", "123"),
		strCard("CCDSLOT", "R22"),
	)
	hdu := buildHeaderBytes(
		card("BITPIX", "32"),
		card("NAXIS1", "4"),
		card("NAXIS2", "4"),
	)
	data := make([]byte, 4*4*4)
	raw := append(append(primary, hdu...), data...)
	// pad data block to 2880
	for len(raw)%blockSize != 0 {
		raw = append(raw, 0)
	}

	segs, err := DecodeSegments(context.Background(), &fakeReader{data: raw}, "test.fits", 'Q', nil, false)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, byte('D'), segs[0].WCSLetter)
	require.Equal(t, 4, segs[0].NAxis1)
	require.Equal(t, 4, segs[0].NAxis2)
}

func TestDecodeSegments_GuiderFileIsEmpty(t *testing.T) {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		card("N_STAMPS", "1"),
	)
	segs, err := DecodeSegments(context.Background(), &fakeReader{data: primary}, "test.fits", 'Q', nil, false)
	require.NoError(t, err)
	require.Nil(t, segs)
}

func buildAmplifierHDU(extname string) []byte {
	return buildHeaderBytes(
		card("BITPIX", "32"),
		card("NAXIS1", "4"),
		card("NAXIS2", "4"),
		strCard("DATASEC", "[1:4,1:4]"),
		card("PC1_1A", "1.0"),
		card("PC1_2A", "0.0"),
		card("PC2_1A", "0.0"),
		card("PC2_2A", "1.0"),
		card("CRVAL1A", "100.0"),
		card("CRVAL2A", "200.0"),
		strCard("EXTNAME", extname),
	)
}

func TestDecodeSegments_SWSlotEightAmplifiers(t *testing.T) {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		strCard("RAFTBAY", "R22"),
		strCard("CCDSLOT", "SW0"),
	)
	raw := append([]byte{}, primary...)
	for i := 0; i < 8; i++ {
		hdu := buildAmplifierHDU("SEG" + itoa(i))
		raw = append(raw, hdu...)
		data := make([]byte, 4*4*4)
		raw = append(raw, data...)
		for len(raw)%blockSize != 0 {
			raw = append(raw, 0)
		}
	}

	segs, err := DecodeSegments(context.Background(), &fakeReader{data: raw}, "test.fits", 'A', nil, false)
	require.NoError(t, err)
	require.Len(t, segs, 8)
	require.Equal(t, Rect{X: 0, Y: 0, Width: 4, Height: 4}, segs[0].Datasec)
	require.Equal(t, "R22", segs[0].Raft)
}

func TestDecodeSegments_MissingDatasecFails(t *testing.T) {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		strCard("CCDSLOT", "SW0"),
	)
	hdu := buildHeaderBytes(
		card("BITPIX", "32"),
		card("NAXIS1", "4"),
		card("NAXIS2", "4"),
	)
	data := make([]byte, 4*4*4)
	raw := append(append(primary, hdu...), data...)
	for len(raw)%blockSize != 0 {
		raw = append(raw, 0)
	}

	_, err := DecodeSegments(context.Background(), &fakeReader{data: raw}, "test.fits", 'A', nil, false)
	require.Error(t, err)
	var missing *errs.MissingHeader
	require.ErrorAs(t, err, &missing)
}

func TestDecodeSegments_UnsupportedCompressionFails(t *testing.T) {
	primary := buildHeaderBytes(
		card("NAXIS", "0"),
		strCard("CCDSLOT", "SW0"),
	)
	hdu := buildHeaderBytes(
		card("ZIMAGE", "T"),
		strCard("ZCMPTYPE", "PLIO_1"),
	)
	raw := append(primary, hdu...)
	for len(raw)%blockSize != 0 {
		raw = append(raw, 0)
	}

	_, err := DecodeSegments(context.Background(), &fakeReader{data: raw}, "test.fits", 'A', nil, false)
	require.Error(t, err)
	var unsupported *errs.UnsupportedCompression
	require.ErrorAs(t, err, &unsupported)
}

func TestDecodeSegments_DAQDescriptorUnsupported(t *testing.T) {
	_, err := DecodeSegments(context.Background(), &fakeReader{}, "DAQ:p:f/i:raft/reb", 'A', nil, false)
	require.Error(t, err)
	var unsupported *errs.Unsupported
	require.ErrorAs(t, err, &unsupported)
}

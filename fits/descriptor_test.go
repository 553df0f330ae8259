package fits

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lsst-camera-visualization/fpmosaic/errs"
)

func TestParseDescriptor_FileDialect(t *testing.T) {
	dialect, _, err := ParseDescriptor("s3:minio/bucket/obj.fits")
	require.NoError(t, err)
	require.Equal(t, DialectFile, dialect)
}

func TestParseDescriptor_DAQWellFormed(t *testing.T) {
	dialect, ref, err := ParseDescriptor("DAQ:part:folder/image:raft/reb")
	require.NoError(t, err)
	require.Equal(t, DialectDAQ, dialect)
	require.Equal(t, DAQRef{Partition: "part", Folder: "folder", Image: "image", Raft: "raft", REB: "reb"}, ref)
}

func TestParseDescriptor_DAQMalformed(t *testing.T) {
	_, _, err := ParseDescriptor("DAQ:part:justfolder")
	require.Error(t, err)
	var malformed *errs.MalformedDescriptor
	require.ErrorAs(t, err, &malformed)
}

func TestIsObjectURL(t *testing.T) {
	require.True(t, IsObjectURL("s3:minio/bucket/obj.fits"))
	require.False(t, IsObjectURL("/local/path.fits"))
}

func TestRaftBayDigits(t *testing.T) {
	d1, d2, ok := raftBayDigits("R22")
	require.True(t, ok)
	require.Equal(t, 2, d1)
	require.Equal(t, 2, d2)

	_, _, ok = raftBayDigits("R")
	require.False(t, ok)
}

func TestCcdSlotDigits(t *testing.T) {
	d1, d2, ok := ccdSlotDigits("S11")
	require.True(t, ok)
	require.Equal(t, 1, d1)
	require.Equal(t, 1, d2)
}

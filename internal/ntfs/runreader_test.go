package ntfs_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/kregerl/diskprobe/internal/ntfs"
	"github.com/stretchr/testify/require"
)

const runClusterSize = 512

// fragmentedReader maps a three-run stream over an 8 KiB image: two
// clusters at cluster 2, a two-cluster sparse hole, then one cluster at
// cluster 10. Run deltas are relative, so the last run's delta is +8.
func fragmentedReader(t *testing.T) (*ntfs.RunReader, []byte) {
	t.Helper()
	img := make([]byte, 16*runClusterSize)
	for i := range img {
		img[i] = byte(i % 251)
	}
	runs := []ntfs.DataRun{
		{OffsetDelta: 2, Length: 2},
		{OffsetDelta: 0, Length: 2}, // sparse
		{OffsetDelta: 8, Length: 1},
	}
	r, err := ntfs.NewRunReader(newMemRW(img), runs, runClusterSize, 0)
	require.NoError(t, err)
	return r, img
}

func TestRunReaderSize(t *testing.T) {
	r, _ := fragmentedReader(t)
	require.Equal(t, int64(5*runClusterSize), r.Size())
}

func TestRunReaderCrossesExtents(t *testing.T) {
	r, img := fragmentedReader(t)

	// A read spanning data, the sparse hole and the final extent.
	buf := make([]byte, 5*runClusterSize)
	n, err := r.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	require.Equal(t, img[2*runClusterSize:4*runClusterSize], buf[:2*runClusterSize])
	require.Equal(t, make([]byte, 2*runClusterSize), buf[2*runClusterSize:4*runClusterSize])
	require.Equal(t, img[10*runClusterSize:11*runClusterSize], buf[4*runClusterSize:])
}

func TestRunReaderSparseReadsZero(t *testing.T) {
	r, _ := fragmentedReader(t)

	buf := make([]byte, 64)
	n, err := r.ReadAt(buf, int64(2*runClusterSize)+100)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.True(t, bytes.Equal(buf, make([]byte, len(buf))))
}

func TestRunReaderPastEnd(t *testing.T) {
	r, _ := fragmentedReader(t)

	buf := make([]byte, 32)
	_, err := r.ReadAt(buf, r.Size())
	require.ErrorIs(t, err, io.EOF)

	// A read touching the end returns the short count with io.EOF.
	n, err := r.ReadAt(buf, r.Size()-16)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 16, n)
}

func TestRunReaderMap(t *testing.T) {
	r, _ := fragmentedReader(t)

	abs, err := r.Map(100, 64)
	require.NoError(t, err)
	require.Equal(t, int64(2*runClusterSize+100), abs)

	abs, err = r.Map(4*runClusterSize, runClusterSize)
	require.NoError(t, err)
	require.Equal(t, int64(10*runClusterSize), abs)
}

func TestRunReaderMapStraddle(t *testing.T) {
	r, _ := fragmentedReader(t)

	_, err := r.Map(2*runClusterSize-64, 128)
	require.Error(t, err)
}

func TestRunReaderMapSparse(t *testing.T) {
	r, _ := fragmentedReader(t)

	_, err := r.Map(3*runClusterSize, 64)
	require.Error(t, err)

	_, err = r.Map(r.Size()-32, 64)
	require.Error(t, err)
}

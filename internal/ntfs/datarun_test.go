package ntfs_test

import (
	"testing"

	"github.com/kregerl/diskprobe/internal/ntfs"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataRuns(t *testing.T) {
	// 0x21: 1 length byte, 2 offset bytes.
	raw := []byte{0x21, 0x18, 0x34, 0x56, 0x00}

	runs, err := ntfs.DecodeDataRuns(raw)
	require.NoError(t, err)
	require.Equal(t, []ntfs.DataRun{{OffsetDelta: 0x5634, Length: 0x18}}, runs)
}

func TestDecodeDataRunsNegativeDelta(t *testing.T) {
	// Second run steps backwards: 0xF4 sign-extends to -12.
	raw := []byte{0x11, 0x08, 0x40, 0x11, 0x04, 0xF4, 0x00}

	runs, err := ntfs.DecodeDataRuns(raw)
	require.NoError(t, err)
	require.Equal(t, []ntfs.DataRun{
		{OffsetDelta: 0x40, Length: 8},
		{OffsetDelta: -12, Length: 4},
	}, runs)
}

func TestDecodeDataRunsLoneTerminator(t *testing.T) {
	runs, err := ntfs.DecodeDataRuns([]byte{0x00})
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestDecodeDataRunsTruncated(t *testing.T) {
	_, err := ntfs.DecodeDataRuns([]byte{0x21, 0x18})
	require.ErrorIs(t, err, ntfs.ErrInvalidDataRun)

	_, err = ntfs.DecodeDataRuns([]byte{0x11, 0x08, 0x40}) // missing terminator
	require.ErrorIs(t, err, ntfs.ErrInvalidDataRun)
}

func TestDataRunsRoundTrip(t *testing.T) {
	cases := [][]ntfs.DataRun{
		nil,
		{{OffsetDelta: 4, Length: 8}},
		{{OffsetDelta: 0x40, Length: 8}, {OffsetDelta: -12, Length: 4}},
		{{OffsetDelta: 0x123456, Length: 0x10000}, {OffsetDelta: 0, Length: 16}, {OffsetDelta: -0x80, Length: 1}},
		{{OffsetDelta: -1, Length: 255}, {OffsetDelta: 127, Length: 256}},
	}

	for _, runs := range cases {
		encoded := ntfs.EncodeDataRuns(runs)
		decoded, err := ntfs.DecodeDataRuns(encoded)
		require.NoError(t, err)
		if len(runs) == 0 {
			require.Empty(t, decoded)
		} else {
			require.Equal(t, runs, decoded)
		}
	}
}

func TestRunExtents(t *testing.T) {
	runs := []ntfs.DataRun{
		{OffsetDelta: 0x40, Length: 8},
		{OffsetDelta: 0, Length: 4}, // sparse
		{OffsetDelta: -12, Length: 2},
	}

	extents, err := ntfs.RunExtents(runs)
	require.NoError(t, err)
	require.Equal(t, []ntfs.Extent{
		{Cluster: 0x40, Clusters: 8},
		{Clusters: 4, Sparse: true},
		{Cluster: 0x34, Clusters: 2},
	}, extents)
}

func TestRunExtentsBelowZero(t *testing.T) {
	_, err := ntfs.RunExtents([]ntfs.DataRun{{OffsetDelta: -5, Length: 1}})
	require.ErrorIs(t, err, ntfs.ErrInvalidDataRun)
}

package disk_test

import (
	"testing"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/stretchr/testify/require"
)

func TestDetectMBR(t *testing.T) {
	table, err := disk.Detect(newMemImage(buildExtendedImage(t)))
	require.NoError(t, err)
	require.Equal(t, disk.SchemeMBR, table.Scheme)
	require.Len(t, table.Partitions, 5)
}

func TestDetectGPTBehindProtectiveMBR(t *testing.T) {
	table, err := disk.Detect(newMemImage(buildGPTImage(t, testGPTEntries())))
	require.NoError(t, err)
	require.Equal(t, disk.SchemeGPT, table.Scheme)
	require.Len(t, table.Partitions, 2)
}

func TestDetectAPM(t *testing.T) {
	table, err := disk.Detect(newMemImage(buildAPMImage(t, testAPMEntries())))
	require.NoError(t, err)
	require.Equal(t, disk.SchemeAPM, table.Scheme)
	require.Len(t, table.Partitions, 3)
}

func TestDetectUnknownLayout(t *testing.T) {
	_, err := disk.Detect(newMemImage(make([]byte, 4096)))
	require.ErrorIs(t, err, disk.ErrUnsupportedScheme)
}

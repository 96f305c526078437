package disk_test

import (
	"encoding/binary"
	"testing"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/stretchr/testify/require"
)

type apmTestEntry struct {
	mapEntries uint32
	start      uint32
	sectors    uint32
	name       string
	typ        string
	status     uint32
}

func encodeAPMEntry(buf []byte, e apmTestEntry) {
	copy(buf[0:2], "PM")
	binary.BigEndian.PutUint32(buf[4:], e.mapEntries)
	binary.BigEndian.PutUint32(buf[8:], e.start)
	binary.BigEndian.PutUint32(buf[12:], e.sectors)
	copy(buf[16:48], e.name)
	copy(buf[48:80], e.typ)
	binary.BigEndian.PutUint32(buf[80:], e.start)
	binary.BigEndian.PutUint32(buf[84:], e.sectors)
	binary.BigEndian.PutUint32(buf[88:], e.status)
}

func buildAPMImage(t *testing.T, entries []apmTestEntry) []byte {
	t.Helper()
	img := make([]byte, 64*512)
	copy(img[0:2], "ER")
	binary.BigEndian.PutUint16(img[2:], 512)
	for i, e := range entries {
		encodeAPMEntry(img[(i+1)*512:(i+2)*512], e)
	}
	return img
}

func testAPMEntries() []apmTestEntry {
	return []apmTestEntry{
		{mapEntries: 3, start: 1, sectors: 3, name: "Apple", typ: "Apple_partition_map"},
		{mapEntries: 3, start: 64, sectors: 1024, name: "MacOS", typ: "Apple_HFS", status: 0x0000000B},
		{mapEntries: 3, start: 1088, sectors: 512, name: "Scratch", typ: "Apple_Free"},
	}
}

func TestIsAPMDisk(t *testing.T) {
	ok, err := disk.IsAPMDisk(newMemImage(buildAPMImage(t, testAPMEntries())))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = disk.IsAPMDisk(newMemImage(make([]byte, 1024)))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseAPMPartitions(t *testing.T) {
	img := newMemImage(buildAPMImage(t, testAPMEntries()))

	partitions, err := disk.ParseAPMPartitions(img)
	require.NoError(t, err)
	require.Len(t, partitions, 3)

	require.Equal(t, "Apple_partition_map", partitions[0].TypeName)
	require.Equal(t, "MacOS", partitions[1].Name)
	require.Equal(t, uint64(64), partitions[1].StartLBA)
	require.Equal(t, uint64(64+1024), partitions[1].EndLBA)
	require.True(t, partitions[1].Bootable)
	require.False(t, partitions[2].Bootable)

	for _, p := range partitions {
		require.Equal(t, disk.SchemeAPM, p.Scheme)
		require.Equal(t, p.EndLBA, p.StartLBA+p.SectorCount)
	}
}

// Entry 0's declared count caps the walk even when more "PM" blocks
// follow on disk.
func TestParseAPMPartitionsCountBound(t *testing.T) {
	entries := testAPMEntries()
	extra := apmTestEntry{mapEntries: 3, start: 2000, sectors: 8, name: "Extra", typ: "Apple_Free"}
	img := newMemImage(buildAPMImage(t, append(entries, extra)))

	partitions, err := disk.ParseAPMPartitions(img)
	require.NoError(t, err)
	require.Len(t, partitions, 3)
}

// A bad signature ends the walk early even when entry 0 declares more.
func TestParseAPMPartitionsStopsAtBadSignature(t *testing.T) {
	raw := buildAPMImage(t, testAPMEntries())
	copy(raw[3*512:3*512+2], "XX") // clobber the last entry

	partitions, err := disk.ParseAPMPartitions(newMemImage(raw))
	require.NoError(t, err)
	require.Len(t, partitions, 2)
}

func TestParseAPMPartitionsBadFirstEntry(t *testing.T) {
	raw := buildAPMImage(t, nil)

	_, err := disk.ParseAPMPartitions(newMemImage(raw))
	require.ErrorIs(t, err, disk.ErrCorruptHeader)
}

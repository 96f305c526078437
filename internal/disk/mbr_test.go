package disk_test

import (
	"encoding/binary"
	"testing"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/stretchr/testify/require"
)

type mbrEntry struct {
	boot     byte
	typeID   byte
	startLBA uint32
	sectors  uint32
}

func putMBREntry(sector []byte, slot int, e mbrEntry) {
	off := 0x1BE + slot*16
	sector[off] = e.boot
	sector[off+4] = e.typeID
	binary.LittleEndian.PutUint32(sector[off+8:], e.startLBA)
	binary.LittleEndian.PutUint32(sector[off+12:], e.sectors)
}

func putMBRSignature(sector []byte) {
	sector[0x1FE] = 0x55
	sector[0x1FF] = 0xAA
}

// buildExtendedImage lays out 2 primaries plus an extended partition at
// LBA 2048 whose EBR chain carries two logical partitions.
func buildExtendedImage(t *testing.T) []byte {
	t.Helper()
	img := make([]byte, 3000*512)

	mbr := img[:512]
	putMBREntry(mbr, 0, mbrEntry{boot: 0x80, typeID: 0x07, startLBA: 64, sectors: 1000})
	putMBREntry(mbr, 1, mbrEntry{typeID: 0x83, startLBA: 1064, sectors: 500})
	putMBREntry(mbr, 2, mbrEntry{typeID: 0x05, startLBA: 2048, sectors: 900})
	putMBRSignature(mbr)

	// First EBR at LBA 2048: a logical partition relative to this EBR,
	// and a link to the next EBR relative to the chain base.
	ebr0 := img[2048*512 : 2048*512+512]
	putMBREntry(ebr0, 0, mbrEntry{typeID: 0x83, startLBA: 64, sectors: 100})
	putMBREntry(ebr0, 1, mbrEntry{typeID: 0x05, startLBA: 400, sectors: 200})
	putMBRSignature(ebr0)

	// Second EBR at chain base + 400.
	ebr1 := img[2448*512 : 2448*512+512]
	putMBREntry(ebr1, 0, mbrEntry{typeID: 0x0B, startLBA: 64, sectors: 120})
	putMBRSignature(ebr1)

	return img
}

func TestParseMBRPartitionsWithExtendedChain(t *testing.T) {
	img := newMemImage(buildExtendedImage(t))

	partitions, err := disk.ParseMBRPartitions(img)
	require.NoError(t, err)
	require.Len(t, partitions, 5)

	extended := 0
	for _, p := range partitions {
		require.Equal(t, disk.SchemeMBR, p.Scheme)
		require.Equal(t, p.EndLBA, p.StartLBA+p.SectorCount)
		if p.TypeID == "0x05" {
			extended++
		}
	}
	require.Equal(t, 1, extended)

	require.True(t, partitions[0].Bootable)
	require.Equal(t, uint64(64), partitions[0].StartLBA)
	require.Equal(t, "HPFS/NTFS/exFAT", partitions[0].TypeName)

	// Logical partitions resolve relative to their own EBR sectors.
	require.Equal(t, uint64(2048+64), partitions[3].StartLBA)
	require.Equal(t, uint64(100), partitions[3].SectorCount)
	require.Equal(t, uint64(2448+64), partitions[4].StartLBA)
	require.Equal(t, uint64(120), partitions[4].SectorCount)
}

func TestParseMBRPartitionsCyclicChainTerminates(t *testing.T) {
	raw := buildExtendedImage(t)

	// Point the second EBR's link back at the first EBR.
	ebr1 := raw[2448*512 : 2448*512+512]
	putMBREntry(ebr1, 1, mbrEntry{typeID: 0x05, startLBA: 0, sectors: 200})

	_, err := disk.ParseMBRPartitions(newMemImage(raw))
	require.ErrorIs(t, err, disk.ErrCorruptHeader)
}

func TestParseMBRWithoutSignature(t *testing.T) {
	sector := make([]byte, 512)
	putMBREntry(sector, 0, mbrEntry{typeID: 0x83, startLBA: 64, sectors: 100})

	_, err := disk.ParseMBR(sector)
	require.ErrorIs(t, err, disk.ErrCorruptHeader)
}

func TestParseMBRPartitionsTruncatedImage(t *testing.T) {
	raw := buildExtendedImage(t)[:2048*512] // cut the image before the first EBR

	_, err := disk.ParseMBRPartitions(newMemImage(raw))
	require.ErrorIs(t, err, disk.ErrTruncatedImage)
}

func TestMBRPartitionEntryCHS(t *testing.T) {
	sector := make([]byte, 512)
	putMBREntry(sector, 0, mbrEntry{typeID: 0x83, startLBA: 2048, sectors: 100})
	// head 254, sector 63, cylinder 1023
	copy(sector[0x1BE+1:], []byte{0xFE, 0xFF, 0xFF})
	putMBRSignature(sector)

	mbr, err := disk.ParseMBR(sector)
	require.NoError(t, err)

	chs := mbr.PartitionEntries[0].ReadStartCHS()
	require.Equal(t, uint16(1023), chs.Cylinder)
	require.Equal(t, uint8(254), chs.Head)
	require.Equal(t, uint8(63), chs.Sector)
}

func TestMBRTypeName(t *testing.T) {
	require.Equal(t, "Linux", disk.MBRTypeName(0x83))
	require.Equal(t, "W95 Ext'd (LBA)", disk.MBRTypeName(0x0F))
	require.Equal(t, "Unknown", disk.MBRTypeName(0x9C))
}

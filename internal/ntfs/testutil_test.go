package ntfs_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/kregerl/diskprobe/internal/ntfs"
	"github.com/stretchr/testify/require"
)

// memRW is an in-memory image satisfying fs.RWFile.
type memRW struct {
	*bytes.Reader
	data []byte
}

func newMemRW(data []byte) *memRW {
	return &memRW{Reader: bytes.NewReader(data), data: data}
}

func (m *memRW) Close() error { return nil }

func (m *memRW) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, fmt.Errorf("write at %d out of bounds", off)
	}
	return copy(m.data[off:], p), nil
}

func (m *memRW) Stat() (os.FileInfo, error) {
	return memFileInfo{size: int64(len(m.data))}, nil
}

type memFileInfo struct {
	size int64
}

func (fi memFileInfo) Name() string       { return "test.dd" }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() any           { return nil }

// Synthetic volume geometry: 512-byte sectors and clusters, 1 KiB file
// records, MFT occupying clusters 8..15 (4 record slots).
const (
	volSectorSize  = 512
	volTotalSector = 16
	volMFTCluster  = 8
	volRecordSize  = 1024
)

func buildTestBootSector(clustersPerRecord byte) []byte {
	b := make([]byte, volSectorSize)
	copy(b[3:], "NTFS    ")
	binary.LittleEndian.PutUint16(b[0x0B:], volSectorSize)
	b[0x0D] = 1
	binary.LittleEndian.PutUint64(b[0x28:], volTotalSector)
	binary.LittleEndian.PutUint64(b[0x30:], volMFTCluster)
	binary.LittleEndian.PutUint64(b[0x38:], 2)
	b[0x40] = clustersPerRecord
	b[0x44] = 0xF6
	binary.LittleEndian.PutUint64(b[0x48:], 0xC0FFEE)
	b[0x1FE] = 0x55
	b[0x1FF] = 0xAA
	return b
}

func put64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

func residentAttr(attrType uint32, value []byte) []byte {
	const valueOff = 24
	length := (valueOff + len(value) + 7) &^ 7
	buf := make([]byte, length)
	binary.LittleEndian.PutUint32(buf[0:], attrType)
	binary.LittleEndian.PutUint32(buf[4:], uint32(length))
	binary.LittleEndian.PutUint32(buf[16:], uint32(len(value)))
	binary.LittleEndian.PutUint16(buf[20:], valueOff)
	copy(buf[valueOff:], value)
	return buf
}

// siValue encodes a $STANDARD_INFORMATION value whose four timestamps
// are ft, ft+1, ft+2, ft+3.
func siValue(ft uint64) []byte {
	v := make([]byte, 48)
	for i := 0; i < 4; i++ {
		put64(v[8*i:], ft+uint64(i))
	}
	binary.LittleEndian.PutUint32(v[32:], 0x20)
	return v
}

func fnValue(name string, ft uint64, namespace byte) []byte {
	units := utf16.Encode([]rune(name))
	v := make([]byte, 66+2*len(units))
	put64(v[0:], 5) // parent directory reference
	for i := 0; i < 4; i++ {
		put64(v[8+8*i:], ft+uint64(i))
	}
	put64(v[40:], volRecordSize)
	put64(v[48:], 900)
	v[64] = byte(len(units))
	v[65] = namespace
	for i, u := range units {
		binary.LittleEndian.PutUint16(v[66+2*i:], u)
	}
	return v
}

func nonResidentDataAttr(runs []ntfs.DataRun, allocated, real uint64) []byte {
	runList := ntfs.EncodeDataRuns(runs)
	length := (0x40 + len(runList) + 7) &^ 7
	buf := make([]byte, length)
	binary.LittleEndian.PutUint32(buf[0:], ntfs.AttrTypeData)
	binary.LittleEndian.PutUint32(buf[4:], uint32(length))
	buf[8] = 1 // non-resident
	binary.LittleEndian.PutUint16(buf[0x20:], 0x40)
	put64(buf[0x28:], allocated)
	put64(buf[0x30:], real)
	put64(buf[0x38:], real)
	copy(buf[0x40:], runList)
	return buf
}

// buildRawRecord assembles a record from attribute payloads and converts
// it to its on-disk fixed-up form.
func buildRawRecord(t *testing.T, attrs [][]byte, inUse bool, usn uint16) []byte {
	t.Helper()
	buf := make([]byte, volRecordSize)
	copy(buf[0:4], "FILE")
	binary.LittleEndian.PutUint16(buf[4:], 0x30) // USA offset
	binary.LittleEndian.PutUint16(buf[6:], 3)    // USA count
	binary.LittleEndian.PutUint16(buf[0x10:], 1) // sequence number
	binary.LittleEndian.PutUint16(buf[0x12:], 1) // hard links
	binary.LittleEndian.PutUint16(buf[0x14:], 0x38)
	var flags uint16
	if inUse {
		flags = ntfs.RecordFlagInUse
	}
	binary.LittleEndian.PutUint16(buf[0x16:], flags)

	off := 0x38
	for _, a := range attrs {
		copy(buf[off:], a)
		off += len(a)
	}
	binary.LittleEndian.PutUint32(buf[off:], 0xFFFFFFFF)
	off += 8
	binary.LittleEndian.PutUint32(buf[0x18:], uint32(off))
	binary.LittleEndian.PutUint32(buf[0x1C:], volRecordSize)

	require.NoError(t, ntfs.ReverseFixups(buf, volSectorSize, usn))
	return buf
}

type testMFTFile struct {
	names     []string
	namespace byte
	inUse     bool
	filetime  uint64
}

// buildTestVolume lays out a boot sector plus an MFT whose record 0 maps
// the table's own 8-cluster extent. Up to three files follow record 0.
func buildTestVolume(t *testing.T, files []testMFTFile) []byte {
	t.Helper()
	require.LessOrEqual(t, len(files), 3)

	img := make([]byte, volTotalSector*volSectorSize)
	copy(img, buildTestBootSector(0xF6))

	mftAttrs := [][]byte{
		residentAttr(ntfs.AttrTypeStandardInformation, siValue(0x1D00000000000000)),
		residentAttr(ntfs.AttrTypeFileName, fnValue("$MFT", 0x1D00000000000000, ntfs.NamespaceWin32)),
		nonResidentDataAttr([]ntfs.DataRun{{OffsetDelta: volMFTCluster, Length: 8}}, 8*volSectorSize, 8*volSectorSize),
	}
	mftOffset := volMFTCluster * volSectorSize
	copy(img[mftOffset:], buildRawRecord(t, mftAttrs, true, 2))

	for i, f := range files {
		attrs := [][]byte{residentAttr(ntfs.AttrTypeStandardInformation, siValue(f.filetime))}
		for _, name := range f.names {
			attrs = append(attrs, residentAttr(ntfs.AttrTypeFileName, fnValue(name, f.filetime, f.namespace)))
		}
		copy(img[mftOffset+(i+1)*volRecordSize:], buildRawRecord(t, attrs, f.inUse, uint16(10+i)))
	}
	return img
}

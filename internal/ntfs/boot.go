// Copyright (c) 2025 kregerl
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package ntfs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/kregerl/diskprobe/internal/fs"
)

var ntfsOEMID = []byte("NTFS    ")

// BootSector holds the fields of the NTFS partition boot record needed
// for MFT addressing.
type BootSector struct {
	OEMID             string
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalSectors      uint64
	MFTCluster        uint64
	MFTMirrorCluster  uint64
	ClustersPerRecord int8
	ClustersPerIndex  int8
	SerialNumber      uint64
}

// ParseBootSector decodes an NTFS boot sector from its first 512 bytes.
func ParseBootSector(b []byte) (*BootSector, error) {
	if len(b) < disk.DefaultSectorSize {
		return nil, fmt.Errorf("%w: boot sector needs %d bytes, got %d", ErrInvalidBootSector, disk.DefaultSectorSize, len(b))
	}
	if !bytes.Equal(b[3:11], ntfsOEMID) {
		return nil, fmt.Errorf("%w: OEM ID %q", ErrInvalidBootSector, b[3:11])
	}
	if binary.LittleEndian.Uint16(b[0x1FE:]) != 0xAA55 {
		return nil, fmt.Errorf("%w: missing boot signature", ErrInvalidBootSector)
	}

	bs := &BootSector{
		OEMID:             string(bytes.TrimRight(b[3:11], " ")),
		BytesPerSector:    binary.LittleEndian.Uint16(b[0x0B:]),
		SectorsPerCluster: b[0x0D],
		TotalSectors:      binary.LittleEndian.Uint64(b[0x28:]),
		MFTCluster:        binary.LittleEndian.Uint64(b[0x30:]),
		MFTMirrorCluster:  binary.LittleEndian.Uint64(b[0x38:]),
		ClustersPerRecord: int8(b[0x40]),
		ClustersPerIndex:  int8(b[0x44]),
		SerialNumber:      binary.LittleEndian.Uint64(b[0x48:]),
	}
	if bs.BytesPerSector == 0 || bs.BytesPerSector%256 != 0 || bs.SectorsPerCluster == 0 {
		return nil, fmt.Errorf("%w: implausible geometry (%d bytes/sector, %d sectors/cluster)",
			ErrInvalidBootSector, bs.BytesPerSector, bs.SectorsPerCluster)
	}
	return bs, nil
}

// BytesPerCluster returns the volume's cluster size in bytes.
func (bs *BootSector) BytesPerCluster() uint64 {
	return uint64(bs.BytesPerSector) * uint64(bs.SectorsPerCluster)
}

// FileRecordSize returns the size of one MFT file record in bytes. A
// negative stored value is a signed exponent (1 << |v|); a positive value
// counts clusters.
func (bs *BootSector) FileRecordSize() uint64 {
	if bs.ClustersPerRecord < 0 {
		return 1 << uint(-bs.ClustersPerRecord)
	}
	return uint64(bs.ClustersPerRecord) * bs.BytesPerCluster()
}

// Volume is an NTFS volume anchored at a partition of an image.
type Volume struct {
	img  fs.File
	base uint64 // absolute byte offset of the partition start
	Boot *BootSector
}

// OpenVolume reads and validates the boot sector of the NTFS volume
// beginning at the given partition.
func OpenVolume(img fs.File, p *disk.Partition) (*Volume, error) {
	var sector [disk.DefaultSectorSize]byte
	base := p.Offset()
	if _, err := img.ReadAt(sector[:], int64(base)); err != nil {
		return nil, fmt.Errorf("reading boot sector: %w", err)
	}
	boot, err := ParseBootSector(sector[:])
	if err != nil {
		return nil, err
	}
	return &Volume{img: img, base: base, Boot: boot}, nil
}

// MFTOffset returns the absolute byte offset of the MFT's first cluster.
func (v *Volume) MFTOffset() uint64 {
	return v.base + v.Boot.MFTCluster*v.Boot.BytesPerCluster()
}

// ClusterOffset returns the absolute byte offset of a volume cluster.
func (v *Volume) ClusterOffset(lcn uint64) uint64 {
	return v.base + lcn*v.Boot.BytesPerCluster()
}

// RecordOffset returns the absolute byte offset of an MFT record assuming
// a contiguous MFT. Fragmented volumes map records through the run list
// of record 0's $DATA attribute instead.
func (v *Volume) RecordOffset(n uint64) uint64 {
	return v.MFTOffset() + n*v.Boot.FileRecordSize()
}

// ReadAt reads from the underlying image at an absolute byte offset.
func (v *Volume) ReadAt(p []byte, off int64) (int, error) {
	return v.img.ReadAt(p, off)
}

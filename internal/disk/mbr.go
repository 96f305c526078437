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
package disk

import (
	"encoding/binary"
	"fmt"

	"github.com/kregerl/diskprobe/internal/fs"
)

const (
	mbrSize            = 512
	mbrSignature       = 0xAA55
	mbrTableOffset     = 0x1BE
	mbrEntrySize       = 16
	mbrBootableFlag    = 0x80
	mbrTypeExtendedCHS = 0x05
	mbrTypeExtendedLBA = 0x0F
	mbrTypeGPT         = 0xEE

	// maxEBRHops bounds the extended partition chain so a malformed or
	// deliberately cyclic link list cannot spin the parser forever.
	maxEBRHops = 128
)

// MBRPartitionEntry represents a single 16-byte entry in the MBR's partition table.
// All multi-byte fields are stored as byte arrays to explicitly handle little-endian
// conversion when reading from the raw MBR byte slice.
type MBRPartitionEntry struct {
	BootIndicator uint8   // 0x00: 0x80 for bootable, 0x00 for inactive
	StartCHS      [3]byte // 0x01: Starting Cylinder-Head-Sector address
	PartitionType uint8   // 0x04: Partition type ID (e.g., 0x07 for NTFS, 0x83 for Linux)
	EndCHS        [3]byte // 0x05: Ending Cylinder-Head-Sector address
	StartLBA      [4]byte // 0x08: Starting Logical Block Address (LBA) - uint32, Little-Endian
	TotalSectors  [4]byte // 0x0C: Total sectors in partition - uint32, Little-Endian
}

// ReadStartLBA returns the starting LBA of the partition.
func (p *MBRPartitionEntry) ReadStartLBA() uint32 {
	return binary.LittleEndian.Uint32(p.StartLBA[:])
}

// ReadTotalSectors returns the total number of sectors in the partition.
func (p *MBRPartitionEntry) ReadTotalSectors() uint32 {
	return binary.LittleEndian.Uint32(p.TotalSectors[:])
}

// IsEmpty reports whether the entry is an all-zero unused slot.
func (p *MBRPartitionEntry) IsEmpty() bool {
	return p.BootIndicator == 0 &&
		p.StartCHS == [3]byte{} &&
		p.PartitionType == 0 &&
		p.EndCHS == [3]byte{} &&
		p.ReadStartLBA() == 0 &&
		p.ReadTotalSectors() == 0
}

// IsExtended reports whether the entry points at an EBR chain rather than
// a filesystem.
func (p *MBRPartitionEntry) IsExtended() bool {
	return p.PartitionType == mbrTypeExtendedCHS || p.PartitionType == mbrTypeExtendedLBA
}

// ValidBootIndicator reports whether the boot flag byte is one of the two
// values MBRs accept. 0x01-0x7F are invalid and mark a garbage entry.
func (p *MBRPartitionEntry) ValidBootIndicator() bool {
	return p.BootIndicator == 0x00 || p.BootIndicator == mbrBootableFlag
}

// ReadStartCHS decodes the packed 3-byte starting CHS address:
// head in byte 0, sector in the low 6 bits of byte 1, cylinder in the top
// 2 bits of byte 1 plus byte 2.
func (p *MBRPartitionEntry) ReadStartCHS() CHS {
	return decodeCHS(p.StartCHS)
}

// ReadEndCHS decodes the packed 3-byte ending CHS address.
func (p *MBRPartitionEntry) ReadEndCHS() CHS {
	return decodeCHS(p.EndCHS)
}

func decodeCHS(b [3]byte) CHS {
	return CHS{
		Cylinder: (uint16(b[1]&0xC0) << 2) | uint16(b[2]),
		Head:     b[0],
		Sector:   b[1] & 0x3F,
	}
}

// MBR represents the Master Boot Record structure.
type MBR struct {
	BootCode         [440]byte            // 0x000-0x1B7: Bootstrap code
	DiskSignature    [4]byte              // 0x1B8-0x1BB: Optional 32-bit disk signature
	Reserved         [2]byte              // 0x1BC-0x1BD: Usually 0x0000
	PartitionEntries [4]MBRPartitionEntry // 0x1BE-0x1FD: Four 16-byte partition entries
	Signature        [2]byte              // 0x1FE-0x1FF: MBR signature (0x55AA)
}

// ReadDiskSignature returns the disk signature as a uint32.
func (m *MBR) ReadDiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.DiskSignature[:])
}

// ReadSignature returns the MBR signature (should be 0xAA55).
func (m *MBR) ReadSignature() uint16 {
	return binary.LittleEndian.Uint16(m.Signature[:])
}

// ParseMBR parses a 512-byte slice into an MBR struct.
// It assumes the input slice is exactly 512 bytes long and contains
// the raw binary data of an MBR in little-endian format.
func ParseMBR(data []byte) (*MBR, error) {
	if len(data) != mbrSize {
		return nil, fmt.Errorf("input data slice size mismatch: expected %d bytes, got %d bytes", mbrSize, len(data))
	}

	var mbr MBR
	copy(mbr.BootCode[:], data[0x000:0x1B8])
	copy(mbr.DiskSignature[:], data[0x1B8:0x1BC])
	copy(mbr.Reserved[:], data[0x1BC:0x1BE])

	for i := 0; i < 4; i++ {
		entryOffset := mbrTableOffset + (i * mbrEntrySize)
		mbr.PartitionEntries[i] = parseMBREntry(data[entryOffset : entryOffset+mbrEntrySize])
	}

	copy(mbr.Signature[:], data[0x1FE:0x200])

	if mbr.ReadSignature() != mbrSignature {
		return nil, fmt.Errorf("%w: invalid MBR signature 0x%04X", ErrCorruptHeader, mbr.ReadSignature())
	}
	return &mbr, nil
}

func parseMBREntry(b []byte) MBRPartitionEntry {
	var e MBRPartitionEntry
	e.BootIndicator = b[0x00]
	copy(e.StartCHS[:], b[0x01:0x04])
	e.PartitionType = b[0x04]
	copy(e.EndCHS[:], b[0x05:0x08])
	copy(e.StartLBA[:], b[0x08:0x0C])
	copy(e.TotalSectors[:], b[0x0C:0x10])
	return e
}

// ParseMBRPartitions reads the 4 primary entries of the MBR at sector 0
// and flattens them, together with any logical partitions found by
// walking extended (EBR) chains, into a single sequence in physical disk
// order.
func ParseMBRPartitions(img fs.File) ([]Partition, error) {
	var sector [mbrSize]byte
	if err := readLBA(img, 0, sector[:]); err != nil {
		return nil, err
	}

	mbr, err := ParseMBR(sector[:])
	if err != nil {
		return nil, err
	}

	var partitions []Partition
	for _, entry := range mbr.PartitionEntries {
		if entry.IsEmpty() || !entry.ValidBootIndicator() {
			continue
		}

		partitions = append(partitions, mbrPartition(&entry, 0, len(partitions)))

		if entry.IsExtended() {
			logical, err := walkEBRChain(img, uint64(entry.ReadStartLBA()), len(partitions))
			if err != nil {
				return nil, err
			}
			partitions = append(partitions, logical...)
		}
	}
	return partitions, nil
}

// walkEBRChain follows the singly-linked list of Extended Boot Records
// starting at extendedBase. Each EBR carries two entries: the first is a
// logical partition relative to the EBR's own LBA, the second links to
// the next EBR relative to the chain's base. A visited-offset set plus a
// fixed hop cap bound traversal on malformed or cyclic chains.
func walkEBRChain(img fs.File, extendedBase uint64, num int) ([]Partition, error) {
	var (
		partitions []Partition
		sector     [mbrSize]byte
	)

	visited := map[uint64]bool{}
	next := extendedBase

	for hops := 0; ; hops++ {
		if hops >= maxEBRHops || visited[next] {
			return nil, fmt.Errorf("%w: EBR chain does not terminate (base LBA %d)", ErrCorruptHeader, extendedBase)
		}
		visited[next] = true

		if err := readLBA(img, next, sector[:]); err != nil {
			return nil, err
		}
		ebr, err := ParseMBR(sector[:])
		if err != nil {
			return nil, fmt.Errorf("EBR at LBA %d: %w", next, err)
		}

		// First entry is the logical partition, relative to this EBR.
		if e := ebr.PartitionEntries[0]; !e.IsEmpty() && e.ReadTotalSectors() != 0 {
			p := mbrPartition(&e, next, num)
			partitions = append(partitions, p)
			num++
		}

		// Second entry links to the next EBR, relative to the chain base.
		link := ebr.PartitionEntries[1]
		if link.IsEmpty() || link.ReadTotalSectors() == 0 {
			return partitions, nil
		}
		next = extendedBase + uint64(link.ReadStartLBA())
	}
}

func mbrPartition(e *MBRPartitionEntry, baseLBA uint64, num int) Partition {
	start := baseLBA + uint64(e.ReadStartLBA())
	count := uint64(e.ReadTotalSectors())
	startCHS := e.ReadStartCHS()
	endCHS := e.ReadEndCHS()

	return Partition{
		Scheme:      SchemeMBR,
		Num:         num,
		StartLBA:    start,
		EndLBA:      start + count,
		SectorCount: count,
		Bootable:    e.BootIndicator == mbrBootableFlag,
		TypeID:      fmt.Sprintf("0x%02X", e.PartitionType),
		TypeName:    MBRTypeName(e.PartitionType),
		StartCHS:    &startCHS,
		EndCHS:      &endCHS,
	}
}

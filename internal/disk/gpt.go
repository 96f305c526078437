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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/kregerl/diskprobe/internal/fs"
)

const (
	gptHeaderLBA     = 1
	gptMinHeaderSize = 92

	// gptNameCapacity is the fixed UTF-16 character capacity of the
	// partition name field in a 128-byte entry.
	gptNameCapacity = 36

	// gptAttrLegacyBootable is bit 2 of the entry attribute flags.
	gptAttrLegacyBootable = 0x4
)

var gptSignature = [8]byte{'E', 'F', 'I', ' ', 'P', 'A', 'R', 'T'}

// GPTHeader is the decoded GUID Partition Table header at LBA 1 (primary)
// or the last LBA of the disk (backup).
type GPTHeader struct {
	Revision          uint32
	HeaderSize        uint32
	HeaderCRC32       uint32
	CurrentLBA        uint64
	BackupLBA         uint64
	FirstUsableLBA    uint64
	LastUsableLBA     uint64
	DiskGUID          uuid.UUID
	PartitionArrayLBA uint64
	EntryCount        uint32
	EntrySize         uint32
	ArrayCRC32        uint32
}

// ParseGPTHeader decodes and validates a GPT header. The header CRC32 is
// computed over the first HeaderSize bytes with the CRC field itself
// zeroed; a mismatch returns ErrCorruptHeader so the caller can fall back
// to the backup header.
func ParseGPTHeader(data []byte) (*GPTHeader, error) {
	if len(data) < gptMinHeaderSize {
		return nil, fmt.Errorf("%w: GPT header needs %d bytes, got %d", ErrCorruptHeader, gptMinHeaderSize, len(data))
	}
	if !bytes.Equal(data[0:8], gptSignature[:]) {
		return nil, fmt.Errorf("%w: bad GPT signature %q", ErrCorruptHeader, data[0:8])
	}

	hdr := &GPTHeader{
		Revision:          binary.LittleEndian.Uint32(data[8:12]),
		HeaderSize:        binary.LittleEndian.Uint32(data[12:16]),
		HeaderCRC32:       binary.LittleEndian.Uint32(data[16:20]),
		CurrentLBA:        binary.LittleEndian.Uint64(data[24:32]),
		BackupLBA:         binary.LittleEndian.Uint64(data[32:40]),
		FirstUsableLBA:    binary.LittleEndian.Uint64(data[40:48]),
		LastUsableLBA:     binary.LittleEndian.Uint64(data[48:56]),
		DiskGUID:          guidFromBytes(data[56:72]),
		PartitionArrayLBA: binary.LittleEndian.Uint64(data[72:80]),
		EntryCount:        binary.LittleEndian.Uint32(data[80:84]),
		EntrySize:         binary.LittleEndian.Uint32(data[84:88]),
		ArrayCRC32:        binary.LittleEndian.Uint32(data[88:92]),
	}

	if hdr.HeaderSize < gptMinHeaderSize || int(hdr.HeaderSize) > len(data) {
		return nil, fmt.Errorf("%w: implausible GPT header size %d", ErrCorruptHeader, hdr.HeaderSize)
	}

	scratch := make([]byte, hdr.HeaderSize)
	copy(scratch, data[:hdr.HeaderSize])
	// CRC field is zeroed during computation.
	for i := 16; i < 20; i++ {
		scratch[i] = 0
	}
	if crc32.ChecksumIEEE(scratch) != hdr.HeaderCRC32 {
		return nil, fmt.Errorf("%w: GPT header CRC32 mismatch", ErrCorruptHeader)
	}
	return hdr, nil
}

// GPTEntry is one slot of the GPT partition entry array.
type GPTEntry struct {
	TypeGUID   uuid.UUID
	UniqueGUID uuid.UUID
	FirstLBA   uint64
	LastLBA    uint64 // inclusive, per the GPT on-disk convention
	Attributes uint64
	Name       string
}

func parseGPTEntry(b []byte) GPTEntry {
	nameBytes := b[56:]
	if len(nameBytes) > 2*gptNameCapacity {
		nameBytes = nameBytes[:2*gptNameCapacity]
	}
	return GPTEntry{
		TypeGUID:   guidFromBytes(b[0:16]),
		UniqueGUID: guidFromBytes(b[16:32]),
		FirstLBA:   binary.LittleEndian.Uint64(b[32:40]),
		LastLBA:    binary.LittleEndian.Uint64(b[40:48]),
		Attributes: binary.LittleEndian.Uint64(b[48:56]),
		Name:       decodeUTF16Name(nameBytes),
	}
}

// ParseGPTPartitions reads the primary GPT at LBA 1, falling back to the
// backup header mirrored at the disk's last LBA if the primary fails
// validation. Unused entry slots (all-zero type GUID) are skipped.
func ParseGPTPartitions(img fs.File) ([]Partition, error) {
	entries, err := readGPT(img, gptHeaderLBA)
	if err != nil {
		sectors, serr := imageSectors(img)
		if serr != nil || sectors == 0 {
			return nil, err
		}
		entries, err = readGPT(img, sectors-1)
		if err != nil {
			return nil, fmt.Errorf("primary and backup GPT headers unusable: %w", err)
		}
	}

	partitions := make([]Partition, 0, len(entries))
	for _, e := range entries {
		if e.TypeGUID == (uuid.UUID{}) {
			continue
		}
		// The on-disk ending LBA is inclusive; normalize to exclusive.
		partitions = append(partitions, Partition{
			Scheme:      SchemeGPT,
			Num:         len(partitions),
			StartLBA:    e.FirstLBA,
			EndLBA:      e.LastLBA + 1,
			SectorCount: e.LastLBA - e.FirstLBA + 1,
			Bootable:    e.Attributes&gptAttrLegacyBootable != 0,
			TypeID:      strings.ToUpper(e.TypeGUID.String()),
			TypeName:    GPTTypeName(e.TypeGUID),
			Name:        e.Name,
		})
	}
	return partitions, nil
}

// readGPT decodes the header at headerLBA plus its entry array, and
// validates the array against the CRC32 recorded in the header.
func readGPT(img fs.File, headerLBA uint64) ([]GPTEntry, error) {
	var sector [DefaultSectorSize]byte
	if err := readLBA(img, headerLBA, sector[:]); err != nil {
		return nil, err
	}
	hdr, err := ParseGPTHeader(sector[:])
	if err != nil {
		return nil, err
	}

	if hdr.EntrySize < 128 || hdr.EntryCount == 0 || uint64(hdr.EntrySize)*uint64(hdr.EntryCount) > 16<<20 {
		return nil, fmt.Errorf("%w: implausible GPT entry array geometry (%d x %d)", ErrCorruptHeader, hdr.EntryCount, hdr.EntrySize)
	}

	array := make([]byte, hdr.EntryCount*hdr.EntrySize)
	if err := readLBA(img, hdr.PartitionArrayLBA, array); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(array) != hdr.ArrayCRC32 {
		return nil, fmt.Errorf("%w: GPT partition entry array CRC32 mismatch", ErrCorruptHeader)
	}

	entries := make([]GPTEntry, 0, hdr.EntryCount)
	for i := uint32(0); i < hdr.EntryCount; i++ {
		entries = append(entries, parseGPTEntry(array[i*hdr.EntrySize:(i+1)*hdr.EntrySize]))
	}
	return entries, nil
}

// guidFromBytes converts the mixed-endian on-disk GUID layout (first
// three fields little-endian, rest big-endian) to a canonical uuid.UUID.
func guidFromBytes(b []byte) uuid.UUID {
	var g uuid.UUID
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]
	copy(g[8:], b[8:16])
	return g
}

// decodeUTF16Name decodes a NUL-padded little-endian UTF-16 string,
// stopping at the first NUL or the capacity limit.
func decodeUTF16Name(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

package disk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kregerl/diskprobe/internal/fs"
)

// Apple Partition Map. The driver descriptor map lives at block 0 with an
// "ER" signature; partition entries start at block 1, each signed "PM".
// The map describes itself, so entry 0 carries the entry count.

const (
	apmMaxEntries = 62

	apmStatusValid     = 0x00000001
	apmStatusAllocated = 0x00000002
	apmStatusInUse     = 0x00000004
	apmStatusBootInfo  = 0x00000008
)

var (
	apmDriverSignature = []byte("ER")
	apmEntrySignature  = []byte("PM")
)

// APMEntry is a single Apple Partition Map entry, decoded from its
// big-endian on-disk layout.
type APMEntry struct {
	MapEntries uint32
	StartLBA   uint32
	BlockCount uint32
	Name       string
	Type       string
	DataStart  uint32
	DataSize   uint32
	Status     uint32
}

func parseAPMEntry(b []byte) (*APMEntry, error) {
	if len(b) < 136 {
		return nil, fmt.Errorf("%w: APM entry needs 136 bytes, got %d", ErrCorruptHeader, len(b))
	}
	if !bytes.Equal(b[0:2], apmEntrySignature) {
		return nil, fmt.Errorf("%w: bad APM entry signature %q", ErrCorruptHeader, b[0:2])
	}
	return &APMEntry{
		MapEntries: binary.BigEndian.Uint32(b[4:8]),
		StartLBA:   binary.BigEndian.Uint32(b[8:12]),
		BlockCount: binary.BigEndian.Uint32(b[12:16]),
		Name:       decodePascalPadded(b[16:48]),
		Type:       decodePascalPadded(b[48:80]),
		DataStart:  binary.BigEndian.Uint32(b[80:84]),
		DataSize:   binary.BigEndian.Uint32(b[84:88]),
		Status:     binary.BigEndian.Uint32(b[88:92]),
	}, nil
}

// IsAPMDisk reports whether block 0 carries the "ER" driver descriptor
// signature.
func IsAPMDisk(img fs.File) (bool, error) {
	var sector [DefaultSectorSize]byte
	if err := readLBA(img, 0, sector[:]); err != nil {
		return false, err
	}
	return bytes.Equal(sector[0:2], apmDriverSignature), nil
}

// ParseAPMPartitions walks the partition map starting at block 1. Entry
// 0's map count bounds the walk; a missing "PM" signature ends it early.
func ParseAPMPartitions(img fs.File) ([]Partition, error) {
	var sector [DefaultSectorSize]byte

	partitions := make([]Partition, 0, 4)
	limit := uint32(apmMaxEntries)
	for i := uint32(0); i < limit; i++ {
		if err := readLBA(img, uint64(i)+1, sector[:]); err != nil {
			return nil, err
		}
		entry, err := parseAPMEntry(sector[:])
		if err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
		if i == 0 {
			if entry.MapEntries > 0 && entry.MapEntries < limit {
				limit = entry.MapEntries
			}
		}
		partitions = append(partitions, Partition{
			Scheme:      SchemeAPM,
			Num:         int(i),
			StartLBA:    uint64(entry.StartLBA),
			EndLBA:      uint64(entry.StartLBA) + uint64(entry.BlockCount),
			SectorCount: uint64(entry.BlockCount),
			Bootable:    entry.Status&apmStatusBootInfo != 0,
			TypeID:      entry.Type,
			TypeName:    entry.Type,
			Name:        entry.Name,
		})
	}
	return partitions, nil
}

// decodePascalPadded trims a NUL-padded fixed-width ASCII field.
func decodePascalPadded(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

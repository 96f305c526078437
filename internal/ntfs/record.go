package ntfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var recordMagic = []byte("FILE")

// MFT record header flags.
const (
	RecordFlagInUse     = 0x0001
	RecordFlagDirectory = 0x0002
)

// RecordHeader is the fixed-size header of an MFT file record.
type RecordHeader struct {
	USAOffset       uint16
	USACount        uint16
	LogSequence     uint64
	SequenceNumber  uint16
	HardLinkCount   uint16
	FirstAttrOffset uint16
	Flags           uint16
	UsedSize        uint32
	AllocatedSize   uint32
	BaseRecord      uint64
	NextAttrID      uint16
}

func parseRecordHeader(b []byte) (*RecordHeader, error) {
	if len(b) < 42 {
		return nil, fmt.Errorf("record buffer too short: %d bytes", len(b))
	}
	if !bytes.Equal(b[0:4], recordMagic) {
		return nil, fmt.Errorf("bad record magic %q", b[0:4])
	}
	return &RecordHeader{
		USAOffset:       binary.LittleEndian.Uint16(b[0x04:]),
		USACount:        binary.LittleEndian.Uint16(b[0x06:]),
		LogSequence:     binary.LittleEndian.Uint64(b[0x08:]),
		SequenceNumber:  binary.LittleEndian.Uint16(b[0x10:]),
		HardLinkCount:   binary.LittleEndian.Uint16(b[0x12:]),
		FirstAttrOffset: binary.LittleEndian.Uint16(b[0x14:]),
		Flags:           binary.LittleEndian.Uint16(b[0x16:]),
		UsedSize:        binary.LittleEndian.Uint32(b[0x18:]),
		AllocatedSize:   binary.LittleEndian.Uint32(b[0x1C:]),
		BaseRecord:      binary.LittleEndian.Uint64(b[0x20:]),
		NextAttrID:      binary.LittleEndian.Uint16(b[0x28:]),
	}, nil
}

// Record is a decoded MFT file record.
type Record struct {
	Num        uint64
	Header     RecordHeader
	Attributes []Attribute
}

// DecodeRecord parses a raw record buffer: magic check, fixup
// application, then the attribute walk. buf is not modified; the fixups
// are applied to an internal copy.
func DecodeRecord(buf []byte, num uint64, sectorSize int, decodeData bool) (*Record, error) {
	hdr, err := parseRecordHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", num, err)
	}

	rec := append([]byte(nil), buf...)
	if err := ApplyFixups(rec, sectorSize); err != nil {
		return nil, fmt.Errorf("record %d: %w", num, err)
	}

	attrs, err := parseAttributes(rec, int(hdr.FirstAttrOffset), decodeData)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", num, err)
	}
	return &Record{Num: num, Header: *hdr, Attributes: attrs}, nil
}

// InUse reports whether the record is allocated to a live file.
func (r *Record) InUse() bool {
	return r.Header.Flags&RecordFlagInUse != 0
}

// IsDirectory reports whether the record describes a directory.
func (r *Record) IsDirectory() bool {
	return r.Header.Flags&RecordFlagDirectory != 0
}

// FileNames returns all decoded $FILE_NAME attributes, in record order.
func (r *Record) FileNames() []*FileName {
	var names []*FileName
	for i := range r.Attributes {
		if r.Attributes[i].FN != nil {
			names = append(names, r.Attributes[i].FN)
		}
	}
	return names
}

// StandardInformation returns the record's first decoded
// $STANDARD_INFORMATION attribute, or nil.
func (r *Record) StandardInformation() *StandardInformation {
	for i := range r.Attributes {
		if r.Attributes[i].SI != nil {
			return r.Attributes[i].SI
		}
	}
	return nil
}

// HasFileName reports whether any $FILE_NAME attribute carries the exact
// given name.
func (r *Record) HasFileName(name string) bool {
	for _, fn := range r.FileNames() {
		if fn.Name == name {
			return true
		}
	}
	return false
}

// DataAttribute returns the record's decoded $DATA attribute, or nil.
func (r *Record) DataAttribute() *DataAttr {
	for i := range r.Attributes {
		if r.Attributes[i].Type == AttrTypeData && r.Attributes[i].Data != nil {
			return r.Attributes[i].Data
		}
	}
	return nil
}

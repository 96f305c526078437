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
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// MFT attribute type identifiers.
const (
	AttrTypeStandardInformation = 0x10
	AttrTypeFileName            = 0x30
	AttrTypeData                = 0x80
	attrTypeEnd                 = 0xFFFFFFFF
)

// $FILE_NAME namespace tags.
const (
	NamespacePOSIX       = 0
	NamespaceWin32       = 1
	NamespaceDOS         = 2
	NamespaceWin32AndDOS = 3
)

// NamespaceName returns the label for a $FILE_NAME namespace tag.
func NamespaceName(ns uint8) string {
	switch ns {
	case NamespacePOSIX:
		return "POSIX"
	case NamespaceWin32:
		return "Win32"
	case NamespaceDOS:
		return "DOS"
	case NamespaceWin32AndDOS:
		return "Win32&DOS"
	default:
		return fmt.Sprintf("Unknown(%d)", ns)
	}
}

// StandardInformation is the decoded $STANDARD_INFORMATION attribute.
// Timestamps are raw FILETIME values.
type StandardInformation struct {
	Created     uint64
	Modified    uint64
	MFTModified uint64
	Accessed    uint64
	Flags       uint32
}

// FileName is the decoded $FILE_NAME attribute. A record may carry more
// than one, e.g. a Win32 long name paired with a DOS short name.
type FileName struct {
	ParentRef     uint64
	Created       uint64
	Modified      uint64
	MFTModified   uint64
	Accessed      uint64
	AllocatedSize uint64
	RealSize      uint64
	Flags         uint32
	Namespace     uint8
	Name          string
}

// DataAttr is the decoded $DATA attribute, either resident bytes or a
// non-resident run list with its size triple.
type DataAttr struct {
	Resident        bool
	Value           []byte
	Runs            []DataRun
	AllocatedSize   uint64
	RealSize        uint64
	InitializedSize uint64
}

// Attribute is one entry of a record's attribute list. Only
// $STANDARD_INFORMATION, $FILE_NAME and $DATA get their content decoded;
// other types carry header fields only. ValueOffset is the byte offset
// of the attribute's value within the record buffer, kept so the write
// path can patch fields in place.
type Attribute struct {
	Type        uint32
	Length      uint32
	NonResident bool
	Name        string
	ValueOffset int
	SI          *StandardInformation
	FN          *FileName
	Data        *DataAttr
}

// parseAttributes walks the attribute list of a fixup-applied record
// buffer from firstOffset until the end marker. $DATA content decode is
// gated by decodeData since only record 0's run list is ever needed.
func parseAttributes(rec []byte, firstOffset int, decodeData bool) ([]Attribute, error) {
	var attrs []Attribute
	off := firstOffset
	for {
		if off < 0 || off+4 > len(rec) {
			return nil, fmt.Errorf("attribute walk out of bounds at offset %d", off)
		}
		attrType := binary.LittleEndian.Uint32(rec[off:])
		if attrType == attrTypeEnd {
			return attrs, nil
		}
		if off+16 > len(rec) {
			return nil, fmt.Errorf("truncated attribute header at offset %d", off)
		}
		length := binary.LittleEndian.Uint32(rec[off+4:])
		if length < 16 || off+int(length) > len(rec) {
			return nil, fmt.Errorf("attribute at offset %d declares implausible length %d", off, length)
		}
		hdr := rec[off : off+int(length)]

		attr := Attribute{
			Type:        attrType,
			Length:      length,
			NonResident: hdr[8] != 0,
		}
		if nameLen := int(hdr[9]); nameLen > 0 {
			nameOff := int(binary.LittleEndian.Uint16(hdr[10:]))
			if nameOff+2*nameLen <= len(hdr) {
				attr.Name = decodeUTF16(hdr[nameOff : nameOff+2*nameLen])
			}
		}

		if !attr.NonResident {
			if len(hdr) < 24 {
				return nil, fmt.Errorf("truncated resident attribute header")
			}
			valueLen := int(binary.LittleEndian.Uint32(hdr[16:]))
			valueOff := int(binary.LittleEndian.Uint16(hdr[20:]))
			if valueOff+valueLen > len(hdr) {
				return nil, fmt.Errorf("resident value of attribute 0x%X overruns its header", attrType)
			}
			value := hdr[valueOff : valueOff+valueLen]
			attr.ValueOffset = off + valueOff

			switch attrType {
			case AttrTypeStandardInformation:
				si, err := parseStandardInformation(value)
				if err != nil {
					return nil, err
				}
				attr.SI = si
			case AttrTypeFileName:
				fn, err := parseFileName(value)
				if err != nil {
					return nil, err
				}
				attr.FN = fn
			case AttrTypeData:
				if decodeData {
					attr.Data = &DataAttr{
						Resident: true,
						Value:    append([]byte(nil), value...),
						RealSize: uint64(valueLen),
					}
				}
			}
		} else if attrType == AttrTypeData && decodeData {
			if len(hdr) < 0x40 {
				return nil, fmt.Errorf("truncated non-resident attribute header")
			}
			runsOff := int(binary.LittleEndian.Uint16(hdr[0x20:]))
			if runsOff > len(hdr) {
				return nil, fmt.Errorf("%w: run list offset out of bounds", ErrInvalidDataRun)
			}
			runs, err := DecodeDataRuns(hdr[runsOff:])
			if err != nil {
				return nil, err
			}
			attr.Data = &DataAttr{
				Runs:            runs,
				AllocatedSize:   binary.LittleEndian.Uint64(hdr[0x28:]),
				RealSize:        binary.LittleEndian.Uint64(hdr[0x30:]),
				InitializedSize: binary.LittleEndian.Uint64(hdr[0x38:]),
			}
		}

		attrs = append(attrs, attr)
		off += int(length)
	}
}

func parseStandardInformation(value []byte) (*StandardInformation, error) {
	if len(value) < 36 {
		return nil, fmt.Errorf("$STANDARD_INFORMATION value too short: %d bytes", len(value))
	}
	return &StandardInformation{
		Created:     binary.LittleEndian.Uint64(value[0:]),
		Modified:    binary.LittleEndian.Uint64(value[8:]),
		MFTModified: binary.LittleEndian.Uint64(value[16:]),
		Accessed:    binary.LittleEndian.Uint64(value[24:]),
		Flags:       binary.LittleEndian.Uint32(value[32:]),
	}, nil
}

func parseFileName(value []byte) (*FileName, error) {
	if len(value) < 66 {
		return nil, fmt.Errorf("$FILE_NAME value too short: %d bytes", len(value))
	}
	nameLen := int(value[64])
	if 66+2*nameLen > len(value) {
		return nil, fmt.Errorf("$FILE_NAME name overruns its value")
	}
	return &FileName{
		ParentRef:     binary.LittleEndian.Uint64(value[0:]),
		Created:       binary.LittleEndian.Uint64(value[8:]),
		Modified:      binary.LittleEndian.Uint64(value[16:]),
		MFTModified:   binary.LittleEndian.Uint64(value[24:]),
		Accessed:      binary.LittleEndian.Uint64(value[32:]),
		AllocatedSize: binary.LittleEndian.Uint64(value[40:]),
		RealSize:      binary.LittleEndian.Uint64(value[48:]),
		Flags:         binary.LittleEndian.Uint32(value[56:]),
		Namespace:     value[65],
		Name:          decodeUTF16(value[66 : 66+2*nameLen]),
	}, nil
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}

package ntfs

import (
	"encoding/binary"
	"fmt"
)

// The last two bytes of every sector of an on-disk record are replaced
// with the record's update sequence number (USN). The original bytes live
// in the update sequence array (USA) in the record header: slot 0 is the
// USN itself, slot i holds sector i-1's true tail bytes.

// usaBounds validates the USA geometry declared in a record header and
// returns the array offset and the sector count it covers.
func usaBounds(buf []byte, sectorSize int) (offset, sectors int, err error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("%w: record too short for a USA header", ErrFixupMismatch)
	}
	offset = int(binary.LittleEndian.Uint16(buf[4:6]))
	count := int(binary.LittleEndian.Uint16(buf[6:8]))
	sectors = count - 1
	if sectors < 1 || offset+2*count > len(buf) || sectors*sectorSize > len(buf) {
		return 0, 0, fmt.Errorf("%w: implausible USA geometry (offset %d, count %d)", ErrFixupMismatch, offset, count)
	}
	return offset, sectors, nil
}

// ApplyFixups verifies the USN at the tail of each sector of buf and
// restores the original bytes from the USA, yielding the logically true
// record. It must run before any attribute content is interpreted.
func ApplyFixups(buf []byte, sectorSize int) error {
	usaOffset, sectors, err := usaBounds(buf, sectorSize)
	if err != nil {
		return err
	}
	usn := binary.LittleEndian.Uint16(buf[usaOffset:])
	for i := 0; i < sectors; i++ {
		tail := (i+1)*sectorSize - 2
		if binary.LittleEndian.Uint16(buf[tail:]) != usn {
			return fmt.Errorf("%w: sector %d", ErrFixupMismatch, i)
		}
		slot := usaOffset + 2*(i+1)
		copy(buf[tail:tail+2], buf[slot:slot+2])
	}
	return nil
}

// ReverseFixups is the inverse of ApplyFixups, used before writing a
// modified record back to disk. It stashes each sector's current tail
// bytes into the USA and stamps newUSN into every sector tail and the
// USN slot.
func ReverseFixups(buf []byte, sectorSize int, newUSN uint16) error {
	usaOffset, sectors, err := usaBounds(buf, sectorSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[usaOffset:], newUSN)
	for i := 0; i < sectors; i++ {
		tail := (i+1)*sectorSize - 2
		slot := usaOffset + 2*(i+1)
		copy(buf[slot:slot+2], buf[tail:tail+2])
		binary.LittleEndian.PutUint16(buf[tail:], newUSN)
	}
	return nil
}

// RecordUSN reads the current update sequence number of a raw record.
func RecordUSN(buf []byte) (uint16, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("%w: record too short for a USA header", ErrFixupMismatch)
	}
	usaOffset := int(binary.LittleEndian.Uint16(buf[4:6]))
	if usaOffset+2 > len(buf) {
		return 0, fmt.Errorf("%w: USA offset out of bounds", ErrFixupMismatch)
	}
	return binary.LittleEndian.Uint16(buf[usaOffset:]), nil
}

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
	"time"

	"github.com/kregerl/diskprobe/internal/fs"
)

// RecordStore walks the records of a volume's MFT. Record 0 describes
// the MFT itself; its $DATA run list bounds the record numbers and maps
// logical record offsets onto the (possibly fragmented) on-disk extents.
type RecordStore struct {
	vol         *Volume
	mft         *RunReader
	recordSize  uint64
	recordCount uint64
}

// OpenRecordStore decodes MFT record 0 and builds the extent map for the
// rest of the table.
func OpenRecordStore(vol *Volume) (*RecordStore, error) {
	recordSize := vol.Boot.FileRecordSize()
	if recordSize == 0 || recordSize%uint64(vol.Boot.BytesPerSector) != 0 {
		return nil, fmt.Errorf("%w: file record size %d is not sector aligned", ErrInvalidBootSector, recordSize)
	}

	buf := make([]byte, recordSize)
	if _, err := vol.ReadAt(buf, int64(vol.MFTOffset())); err != nil {
		return nil, fmt.Errorf("reading $MFT record: %w", err)
	}
	rec0, err := DecodeRecord(buf, 0, int(vol.Boot.BytesPerSector), true)
	if err != nil {
		return nil, fmt.Errorf("decoding $MFT record: %w", err)
	}

	data := rec0.DataAttribute()
	if data == nil {
		return nil, fmt.Errorf("$MFT record has no $DATA attribute")
	}
	if data.Resident {
		return nil, fmt.Errorf("$MFT record carries a resident $DATA attribute")
	}

	mft, err := NewRunReader(vol.img, data.Runs, vol.Boot.BytesPerCluster(), vol.base)
	if err != nil {
		return nil, fmt.Errorf("mapping $MFT extents: %w", err)
	}
	return &RecordStore{
		vol:         vol,
		mft:         mft,
		recordSize:  recordSize,
		recordCount: uint64(mft.Size()) / recordSize,
	}, nil
}

// RecordCount returns the number of record slots inside the MFT's
// allocated extent.
func (s *RecordStore) RecordCount() uint64 {
	return s.recordCount
}

// Record reads and decodes a single record by number.
func (s *RecordStore) Record(n uint64) (*Record, error) {
	if n >= s.recordCount {
		return nil, fmt.Errorf("record %d beyond MFT extent (%d records)", n, s.recordCount)
	}
	buf := make([]byte, s.recordSize)
	if _, err := s.mft.ReadAt(buf, int64(n*s.recordSize)); err != nil {
		return nil, fmt.Errorf("reading record %d: %w", n, err)
	}
	return DecodeRecord(buf, n, int(s.vol.Boot.BytesPerSector), n == 0)
}

// Records scans every record slot in order. Slots that fail magic or
// fixup validation are skipped; the scan never aborts on a single bad
// record. Not-in-use records are included so callers can surface deleted
// entries.
func (s *RecordStore) Records() []*Record {
	records := make([]*Record, 0, s.recordCount)
	for n := uint64(0); n < s.recordCount; n++ {
		rec, err := s.Record(n)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Timestomp rewrites every $STANDARD_INFORMATION and $FILE_NAME
// timestamp of the unique in-use record named name to ts, preserving the
// record's fixup integrity. The write only happens after a unique match
// is confirmed; zero matches and ambiguous matches leave the image
// untouched.
func (s *RecordStore) Timestomp(rw fs.RWFile, name string, ts time.Time) error {
	matches := 0
	var target uint64
	for n := uint64(0); n < s.recordCount; n++ {
		rec, err := s.Record(n)
		if err != nil || !rec.InUse() {
			continue
		}
		if rec.HasFileName(name) {
			matches++
			target = n
		}
	}
	if matches == 0 {
		return fmt.Errorf("%q: %w", name, ErrRecordNotFound)
	}
	if matches > 1 {
		return fmt.Errorf("%q (%d records): %w", name, matches, ErrAmbiguousFileName)
	}

	raw := make([]byte, s.recordSize)
	if _, err := s.mft.ReadAt(raw, int64(target*s.recordSize)); err != nil {
		return fmt.Errorf("reading record %d: %w", target, err)
	}
	hdr, err := parseRecordHeader(raw)
	if err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}
	usn, err := RecordUSN(raw)
	if err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}

	sectorSize := int(s.vol.Boot.BytesPerSector)
	if err := ApplyFixups(raw, sectorSize); err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}
	attrs, err := parseAttributes(raw, int(hdr.FirstAttrOffset), false)
	if err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}

	filetime := TimeToFiletime(ts)
	for i := range attrs {
		switch {
		case attrs[i].SI != nil:
			// Created, modified, MFT-modified, accessed.
			patchTimestamps(raw, attrs[i].ValueOffset, filetime)
		case attrs[i].FN != nil:
			// Same four fields, shifted past the parent reference.
			patchTimestamps(raw, attrs[i].ValueOffset+8, filetime)
		}
	}

	newUSN := usn + 1
	if newUSN == 0 {
		newUSN = 1
	}
	if err := ReverseFixups(raw, sectorSize, newUSN); err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}

	abs, err := s.mft.Map(int64(target*s.recordSize), int64(s.recordSize))
	if err != nil {
		return fmt.Errorf("record %d: %w", target, err)
	}
	if _, err := rw.WriteAt(raw, abs); err != nil {
		return fmt.Errorf("writing record %d: %w", target, err)
	}
	return nil
}

func patchTimestamps(raw []byte, offset int, filetime uint64) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(raw[offset+8*i:], filetime)
	}
}

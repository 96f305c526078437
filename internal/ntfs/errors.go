package ntfs

import "errors"

var (
	// ErrInvalidBootSector is returned when a partition does not carry a
	// decodable NTFS boot sector.
	ErrInvalidBootSector = errors.New("invalid NTFS boot sector")

	// ErrFixupMismatch is returned when a record sector's trailing update
	// sequence number does not match the record's USN. It usually means a
	// torn write or a misparsed record boundary.
	ErrFixupMismatch = errors.New("update sequence number mismatch")

	// ErrInvalidDataRun is returned for malformed run-list encodings.
	ErrInvalidDataRun = errors.New("invalid data run encoding")

	// ErrRecordNotFound is returned when no in-use MFT record carries the
	// requested file name.
	ErrRecordNotFound = errors.New("no MFT record with the given file name")

	// ErrAmbiguousFileName is returned when more than one in-use MFT
	// record carries the requested file name.
	ErrAmbiguousFileName = errors.New("file name matches multiple MFT records")
)

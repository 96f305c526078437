package disk

import "errors"

var (
	// ErrUnsupportedScheme is returned when no known partition table is
	// recognized on the image.
	ErrUnsupportedScheme = errors.New("disk: no supported partition table found")

	// ErrCorruptHeader is returned on a checksum or signature mismatch
	// with no viable fallback.
	ErrCorruptHeader = errors.New("disk: corrupt partition table header")

	// ErrTruncatedImage is returned when a structure points past the end
	// of the image.
	ErrTruncatedImage = errors.New("disk: read past end of image")
)

package disk

import (
	"errors"
	"fmt"
	"io"

	"github.com/kregerl/diskprobe/internal/fs"
)

// readLBA fills buf starting at the given sector, mapping short reads to
// ErrTruncatedImage so callers can tell a bad pointer from an I/O fault.
func readLBA(img fs.File, lba uint64, buf []byte) error {
	_, err := img.ReadAt(buf, int64(lba)*DefaultSectorSize)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: sector %d", ErrTruncatedImage, lba)
		}
		return fmt.Errorf("read sector %d: %w", lba, err)
	}
	return nil
}

// imageSectors returns the number of whole sectors in the image.
func imageSectors(img fs.File) (uint64, error) {
	finfo, err := img.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(finfo.Size()) / DefaultSectorSize, nil
}

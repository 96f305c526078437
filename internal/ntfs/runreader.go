package ntfs

import (
	"fmt"
	"io"

	"github.com/kregerl/diskprobe/internal/fs"
)

type runExtent struct {
	logical int64 // byte offset within the logical stream
	abs     int64 // absolute byte offset within the image, -1 for sparse
	length  int64
}

// RunReader presents a non-resident attribute's fragmented extents as a
// single flat io.ReaderAt over the image. Sparse extents read as zeros.
type RunReader struct {
	img     fs.File
	extents []runExtent
	size    int64
}

// NewRunReader builds a flat view over the run list of a non-resident
// attribute. clusterSize is the volume's cluster size and base the
// absolute byte offset of the partition start.
func NewRunReader(img fs.File, runs []DataRun, clusterSize, base uint64) (*RunReader, error) {
	resolved, err := RunExtents(runs)
	if err != nil {
		return nil, err
	}
	extents := make([]runExtent, 0, len(resolved))
	var logical int64
	for _, e := range resolved {
		length := int64(e.Clusters * clusterSize)
		abs := int64(-1)
		if !e.Sparse {
			abs = int64(base + e.Cluster*clusterSize)
		}
		extents = append(extents, runExtent{logical: logical, abs: abs, length: length})
		logical += length
	}
	return &RunReader{img: img, extents: extents, size: logical}, nil
}

// Size returns the total byte length of the flattened stream.
func (r *RunReader) Size() int64 {
	return r.size
}

// ReadAt implements io.ReaderAt over the extent sequence, crossing extent
// boundaries transparently.
func (r *RunReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	total := 0
	for total < len(p) {
		if off >= r.size {
			return total, io.EOF
		}
		ext := r.extentAt(off)
		within := off - ext.logical
		n := len(p) - total
		if remain := ext.length - within; int64(n) > remain {
			n = int(remain)
		}
		if ext.abs < 0 {
			for i := 0; i < n; i++ {
				p[total+i] = 0
			}
		} else {
			if _, err := r.img.ReadAt(p[total:total+n], ext.abs+within); err != nil {
				return total, err
			}
		}
		total += n
		off += int64(n)
	}
	return total, nil
}

// Map translates a logical stream offset to its absolute image offset.
// The caller's [off, off+length) range must not cross an extent boundary;
// the write path relies on a record living inside a single extent.
func (r *RunReader) Map(off, length int64) (int64, error) {
	if off < 0 || off+length > r.size {
		return 0, fmt.Errorf("offset %d out of stream bounds", off)
	}
	ext := r.extentAt(off)
	within := off - ext.logical
	if within+length > ext.length {
		return 0, fmt.Errorf("range at offset %d straddles an extent boundary", off)
	}
	if ext.abs < 0 {
		return 0, fmt.Errorf("offset %d falls in a sparse extent", off)
	}
	return ext.abs + within, nil
}

func (r *RunReader) extentAt(off int64) *runExtent {
	// Linear scan; MFT run lists are short.
	for i := range r.extents {
		if off < r.extents[i].logical+r.extents[i].length {
			return &r.extents[i]
		}
	}
	return &r.extents[len(r.extents)-1]
}

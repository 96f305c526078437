package fs

import (
	"io"
	"os"
)

// File is the read side of an image: a byte-addressable source with a
// known size.
type File interface {
	io.ReadCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
}

// RWFile extends File with positional writes. The timestomp path is the
// only consumer; everything else opens read-only.
type RWFile interface {
	File
	io.WriterAt
}

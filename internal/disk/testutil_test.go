package disk_test

import (
	"bytes"
	"io"
	"os"
	"time"
)

// memImage is an in-memory disk image satisfying fs.File.
type memImage struct {
	*bytes.Reader
	name string
}

func newMemImage(data []byte) *memImage {
	return &memImage{Reader: bytes.NewReader(data), name: "test.dd"}
}

func (m *memImage) Close() error { return nil }

func (m *memImage) Stat() (os.FileInfo, error) {
	return memFileInfo{name: m.name, size: m.Size()}, nil
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() any           { return nil }

var _ io.ReaderAt = (*memImage)(nil)

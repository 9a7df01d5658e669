//go:build !tinygo

package storage

import (
	"bytes"
	"fmt"
	"os"
)

// FileDevice is a tinyfs.BlockDevice backed by a flash image file, used to
// build and inspect images on a host.
type FileDevice struct {
	f          *os.File
	size       int64
	pageSize   int64
	eraseBlock int64
}

// CreateFileDevice creates (or truncates) path as an erased image of
// blocks erase blocks.
func CreateFileDevice(path string, pageSize, blockSize, blocks int64) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	d := &FileDevice{f: f, size: blockSize * blocks, pageSize: pageSize, eraseBlock: blockSize}
	if err := d.EraseBlocks(0, blocks); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

// OpenFileDevice opens an existing image. Its size must be a whole number
// of erase blocks.
func OpenFileDevice(path string, pageSize, blockSize int64) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size()%blockSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%s: size %d is not a multiple of %d", path, st.Size(), blockSize)
	}
	return &FileDevice{f: f, size: st.Size(), pageSize: pageSize, eraseBlock: blockSize}, nil
}

func (d *FileDevice) ReadAt(buf []byte, off int64) (int, error) {
	return d.f.ReadAt(buf, off)
}

func (d *FileDevice) WriteAt(buf []byte, off int64) (int, error) {
	if off+int64(len(buf)) > d.size {
		return 0, fmt.Errorf("write past end of image: %d+%d > %d", off, len(buf), d.size)
	}
	return d.f.WriteAt(buf, off)
}

func (d *FileDevice) Size() int64 { return d.size }

func (d *FileDevice) WriteBlockSize() int64 { return d.pageSize }

func (d *FileDevice) EraseBlockSize() int64 { return d.eraseBlock }

// EraseBlocks fills the blocks with 0xFF, the erased state of NOR flash.
func (d *FileDevice) EraseBlocks(start, length int64) error {
	erased := bytes.Repeat([]byte{0xFF}, int(d.eraseBlock))
	for b := start; b < start+length; b++ {
		if _, err := d.f.WriteAt(erased, b*d.eraseBlock); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the image file.
func (d *FileDevice) Close() error {
	if err := d.f.Sync(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

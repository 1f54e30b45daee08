package amxx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/klauspost/compress/zlib"
)

var (
	ErrStreamCorrupt     = errors.New("amxx: compressed section stream corrupt")
	ErrImageSizeMismatch = errors.New("amxx: imagesize does not match section unpacked contents")
)

// ImageSizeError reports an inflated body whose length differs from imagesize.
// Actual is capped at Expected+1 since inflation stops one byte past the
// declared size.
type ImageSizeError struct {
	Expected uint32
	Actual   int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("amxx: imagesize mismatch, expected %d bytes, got %d", e.Expected, e.Actual)
}

func (e *ImageSizeError) Unwrap() error { return ErrImageSizeMismatch }

// maxPrealloc bounds the up-front allocation; imagesize comes from the file.
const maxPrealloc = 1 << 24

// Section is one compressed AMX image inside the archive.
type Section struct {
	Index     int
	CellSize  uint8
	DiskSize  uint32 // compressed length
	ImageSize uint32 // expected inflated length
	MemSize   uint32 // runtime memory requirement, informational
	Offset    uint32 // absolute offset of Body in the archive
	Body      []byte // borrowed from the archive buffer
}

// Unpack inflates the section body and checks it against ImageSize.
func (s Section) Unpack() ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(s.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamCorrupt, err)
	}
	defer zr.Close()

	// Read at most one byte past the declared size: enough to detect an
	// oversized stream without inflating all of it.
	buf := bytes.NewBuffer(make([]byte, 0, min(int(s.ImageSize), maxPrealloc)))
	if _, err := io.Copy(buf, io.LimitReader(zr, int64(s.ImageSize)+1)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamCorrupt, err)
	}

	image := buf.Bytes()
	if len(image) != int(s.ImageSize) {
		return nil, &ImageSizeError{Expected: s.ImageSize, Actual: len(image)}
	}
	glog.V(2).Infof("amxx: section %d inflated %d -> %d bytes", s.Index, s.DiskSize, len(image))
	return image, nil
}

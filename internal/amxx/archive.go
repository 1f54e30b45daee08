// Package amxx parses the AMX Mod X plugin container: a small header followed by
// one or two zlib-compressed AMX images, one per VM cell width.
package amxx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-restruct/restruct"
	"github.com/golang/glog"
)

// Magic is "XXMA" read as a little-endian uint32.
const (
	Magic            uint32 = 0x414D5858
	SupportedVersion uint16 = 768

	// HeaderSize is magic:u32 + version:u16 + sections:u8.
	HeaderSize = 7
	// SectionHeaderSize is cellsize:u8 + disksize + imagesize + memsize + offset (u32 each).
	SectionHeaderSize = 17

	// MaxSections caps the section count. Real plugins carry one section per
	// cell width; anything above two is treated as hostile input.
	MaxSections = 2
)

var (
	ErrHeaderTruncated    = errors.New("amxx: header truncated")
	ErrInvalidMagic       = errors.New("amxx: invalid file magic")
	ErrUnsupportedVersion = errors.New("amxx: unsupported file version")
	ErrNoSections         = errors.New("amxx: file has no sections")
	ErrTooManySections    = errors.New("amxx: more than two sections (malicious file?)")
	ErrInvalidSection     = errors.New("amxx: invalid section")
	ErrInvalidCellSize    = errors.New("amxx: invalid section cellsize")
)

// VersionError reports a container version other than SupportedVersion.
type VersionError struct {
	Expected uint16
	Actual   uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("amxx: unsupported file version, supported: %d, requested: %d", e.Expected, e.Actual)
}

func (e *VersionError) Unwrap() error { return ErrUnsupportedVersion }

// SectionError describes why the section at Index could not be read.
type SectionError struct {
	Index  int
	Reason string
	Err    error // ErrInvalidSection or ErrInvalidCellSize
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("amxx: section %d: %s", e.Index, e.Reason)
}

func (e *SectionError) Unwrap() error { return e.Err }

// Header is the fixed archive header.
type Header struct {
	Magic        uint32
	Version      uint16
	SectionCount uint8
}

// rawSectionHeader mirrors the 17-byte on-disk section record.
type rawSectionHeader struct {
	CellSize  uint8
	DiskSize  uint32
	ImageSize uint32
	MemSize   uint32
	Offset    uint32
}

// Archive is a validated container. Sections are decoded lazily.
type Archive struct {
	Header Header
	data   []byte // entire file
}

// Parse validates the archive header. Section records are not touched until
// Sections is iterated, so a damaged second record does not hide the first.
func Parse(data []byte) (*Archive, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrHeaderTruncated, len(data), HeaderSize)
	}

	var h Header
	if err := restruct.Unpack(data[:HeaderSize], binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderTruncated, err)
	}
	glog.V(2).Infof("amxx: magic=0x%08x version=%d sections=%d", h.Magic, h.Version, h.SectionCount)

	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != SupportedVersion {
		return nil, &VersionError{Expected: SupportedVersion, Actual: h.Version}
	}
	if h.SectionCount == 0 {
		return nil, ErrNoSections
	}
	if h.SectionCount > MaxSections {
		return nil, fmt.Errorf("%w: %d", ErrTooManySections, h.SectionCount)
	}

	return &Archive{Header: h, data: data}, nil
}

// Sections returns a fresh single-pass iterator over the section records.
func (a *Archive) Sections() *SectionIterator {
	return &SectionIterator{archive: a}
}

// SectionIterator yields sections in file order. After the first error or
// the last section, Next returns io.EOF forever.
type SectionIterator struct {
	archive *Archive
	index   int
	done    bool
}

// Next returns the next section, or io.EOF when iteration is over.
func (it *SectionIterator) Next() (Section, error) {
	if it.done || it.index >= int(it.archive.Header.SectionCount) {
		it.done = true
		return Section{}, io.EOF
	}
	s, err := it.archive.section(it.index)
	if err != nil {
		it.done = true
		return Section{}, err
	}
	it.index++
	return s, nil
}

// Collect drains the iterator. On error it returns the sections read so far.
func (it *SectionIterator) Collect() ([]Section, error) {
	var out []Section
	for {
		s, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}

func (a *Archive) section(index int) (Section, error) {
	// Everything after the archive header: section records, then bodies.
	rest := a.data[HeaderSize:]

	start := SectionHeaderSize * index
	if start+SectionHeaderSize > len(rest) {
		return Section{}, &SectionError{Index: index, Reason: "header out of bounds", Err: ErrInvalidSection}
	}

	var raw rawSectionHeader
	if err := restruct.Unpack(rest[start:start+SectionHeaderSize], binary.LittleEndian, &raw); err != nil {
		return Section{}, &SectionError{Index: index, Reason: err.Error(), Err: ErrInvalidSection}
	}
	glog.V(2).Infof("amxx: section %d: cellsize=%d disksize=%d imagesize=%d memsize=%d offset=0x%x",
		index, raw.CellSize, raw.DiskSize, raw.ImageSize, raw.MemSize, raw.Offset)

	if raw.CellSize != 4 && raw.CellSize != 8 {
		return Section{}, &SectionError{
			Index:  index,
			Reason: fmt.Sprintf("cellsize must be 4 or 8, got %d", raw.CellSize),
			Err:    ErrInvalidCellSize,
		}
	}

	// Offset is absolute; rest starts HeaderSize bytes into the file.
	if raw.Offset < HeaderSize {
		return Section{}, &SectionError{
			Index:  index,
			Reason: fmt.Sprintf("body offset 0x%x inside archive header", raw.Offset),
			Err:    ErrInvalidSection,
		}
	}
	bodyStart := uint64(raw.Offset) - HeaderSize
	bodyEnd := bodyStart + uint64(raw.DiskSize)
	if bodyEnd > uint64(len(rest)) {
		return Section{}, &SectionError{
			Index:  index,
			Reason: fmt.Sprintf("body [0x%x, 0x%x) beyond end of file (%d bytes)", raw.Offset, uint64(raw.Offset)+uint64(raw.DiskSize), len(a.data)),
			Err:    ErrInvalidSection,
		}
	}

	return Section{
		Index:     index,
		CellSize:  raw.CellSize,
		DiskSize:  raw.DiskSize,
		ImageSize: raw.ImageSize,
		MemSize:   raw.MemSize,
		Offset:    raw.Offset,
		Body:      rest[bodyStart:bodyEnd],
	}, nil
}

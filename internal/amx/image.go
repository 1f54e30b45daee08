// Package amx parses an inflated AMX image: the fixed header, the section
// boundaries it declares, the public/native symbol tables and data constants.
package amx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-restruct/restruct"
	"github.com/golang/glog"
)

const (
	Magic       uint16 = 0xF1E0
	FileVersion uint8  = 8
	AMXVersion  uint8  = 8

	// DefSize is the only supported public/native record size.
	DefSize uint16 = 8

	// HeaderSize is the byte count of the fields in Header.
	HeaderSize = 56
)

var (
	ErrHeaderTruncated   = errors.New("amx: header truncated")
	ErrMagicMismatch     = errors.New("amx: magic mismatch")
	ErrVersionMismatch   = errors.New("amx: version mismatch")
	ErrUnknownFlags      = errors.New("amx: unknown flag bits")
	ErrDefSize           = errors.New("amx: unsupported defsize")
	ErrSectionOutOfRange = errors.New("amx: section out of range")
	ErrInvalidNameOffset = errors.New("amx: invalid name offset")
)

// MismatchError carries the expected and actual value of a header field.
type MismatchError struct {
	Field    string
	Expected uint32
	Actual   uint32
	Err      error
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("amx: %s mismatch, expected: 0x%X, got: 0x%X", e.Field, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return e.Err }

// SectionOutOfRangeError names the section whose header-derived bounds are bad.
type SectionOutOfRangeError struct {
	Section string
	Start   uint32
	End     uint32
	Size    int // image length
}

func (e *SectionOutOfRangeError) Error() string {
	return fmt.Sprintf("amx: %s section [0x%x, 0x%x) out of range (image is %d bytes)", e.Section, e.Start, e.End, e.Size)
}

func (e *SectionOutOfRangeError) Unwrap() error { return ErrSectionOutOfRange }

// Header is the fixed AMX header, all fields little-endian.
type Header struct {
	Size        uint32
	Magic       uint16
	FileVersion uint8
	AMXVersion  uint8
	Flags       uint16
	DefSize     uint16
	Cod         uint32
	Dat         uint32
	Hea         uint32
	Stp         uint32
	Cip         uint32
	Publics     uint32
	Natives     uint32
	Libraries   uint32
	PubVars     uint32
	Tags        uint32
	NameTable   uint32
}

// Image is a parsed AMX image. It owns the inflated buffer; every slice it
// hands out aliases that buffer and must not be modified.
type Image struct {
	Header
	Flags Flags
	bin   []byte
}

// Parse reads and validates the header of an inflated AMX image.
func Parse(bin []byte) (*Image, error) {
	if len(bin) < HeaderSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrHeaderTruncated, len(bin), HeaderSize)
	}

	var h Header
	if err := restruct.Unpack(bin[:HeaderSize], binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderTruncated, err)
	}
	traceHeader(&h)

	if h.Magic != Magic {
		return nil, &MismatchError{Field: "magic", Expected: uint32(Magic), Actual: uint32(h.Magic), Err: ErrMagicMismatch}
	}
	if h.FileVersion != FileVersion {
		return nil, &MismatchError{Field: "file version", Expected: uint32(FileVersion), Actual: uint32(h.FileVersion), Err: ErrVersionMismatch}
	}
	if h.AMXVersion != AMXVersion {
		return nil, &MismatchError{Field: "amx version", Expected: uint32(AMXVersion), Actual: uint32(h.AMXVersion), Err: ErrVersionMismatch}
	}
	flags, err := ParseFlags(h.Flags)
	if err != nil {
		return nil, err
	}
	if h.DefSize != DefSize {
		return nil, &MismatchError{Field: "defsize", Expected: uint32(DefSize), Actual: uint32(h.DefSize), Err: ErrDefSize}
	}

	img := &Image{Header: h, Flags: flags, bin: bin}
	if err := img.checkOrder(); err != nil {
		return nil, err
	}
	return img, nil
}

func traceHeader(h *Header) {
	if !glog.V(2) {
		return
	}
	glog.Infof("amx: size=%d magic=0x%X file_version=%d amx_version=%d flags=0x%X defsize=%d",
		h.Size, h.Magic, h.FileVersion, h.AMXVersion, h.Flags, h.DefSize)
	glog.Infof("amx: cod=0x%X dat=0x%X hea=0x%X stp=0x%X cip=0x%X",
		h.Cod, h.Dat, h.Hea, h.Stp, h.Cip)
	glog.Infof("amx: publics=0x%X natives=0x%X libraries=0x%X pubvars=0x%X tags=0x%X nametable=0x%X",
		h.Publics, h.Natives, h.Libraries, h.PubVars, h.Tags, h.NameTable)
}

// checkOrder enforces cod <= dat <= hea <= stp and publics <= natives <= libraries.
// stp lies past the end of the file (it is the runtime stack top), so only
// the ordering is checked here; the slice accessors check the buffer bounds.
func (img *Image) checkOrder() error {
	pairs := []struct {
		name   string
		lo, hi uint32
	}{
		{"cod", img.Cod, img.Dat},
		{"dat", img.Dat, img.Hea},
		{"hea", img.Hea, img.Stp},
		{"publics", img.Publics, img.Natives},
		{"natives", img.Natives, img.Libraries},
	}
	for _, p := range pairs {
		if p.lo > p.hi {
			return &SectionOutOfRangeError{Section: p.name, Start: p.lo, End: p.hi, Size: len(img.bin)}
		}
	}
	return nil
}

// Bytes returns the whole image buffer.
func (img *Image) Bytes() []byte { return img.bin }

func (img *Image) slice(name string, start, end uint32) ([]byte, error) {
	if start > end || uint64(end) > uint64(len(img.bin)) {
		return nil, &SectionOutOfRangeError{Section: name, Start: start, End: end, Size: len(img.bin)}
	}
	return img.bin[start:end], nil
}

// CodeSlice returns the bytecode section [cod, dat).
func (img *Image) CodeSlice() ([]byte, error) { return img.slice("cod", img.Cod, img.Dat) }

// DataSlice returns the data section [dat, hea).
func (img *Image) DataSlice() ([]byte, error) { return img.slice("dat", img.Dat, img.Hea) }

// PublicsSlice returns the public function table [publics, natives).
func (img *Image) PublicsSlice() ([]byte, error) {
	return img.slice("publics", img.Publics, img.Natives)
}

// NativesSlice returns the native function table [natives, libraries).
func (img *Image) NativesSlice() ([]byte, error) {
	return img.slice("natives", img.Natives, img.Libraries)
}

// DataSize is hea - dat, the declared extent of the data segment.
func (img *Image) DataSize() uint32 { return img.Hea - img.Dat }

package amx

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
	"unamxx/internal/amxfmt"
)

// Symbol is a public or native table entry. Address is a code offset for
// publics and zero for natives until they are bound at load time.
type Symbol struct {
	Name    string
	Address uint32
}

// symbolRecord is one defsize-8 table entry.
type symbolRecord struct {
	Address    uint32
	NameOffset uint32
}

// ReadPublics decodes the public function table.
func (img *Image) ReadPublics() ([]Symbol, error) {
	tbl, err := img.PublicsSlice()
	if err != nil {
		return nil, err
	}
	return img.readSymbols("publics", tbl)
}

// ReadNatives decodes the native function table. Table order matters: SYSREQ.C
// operands index into it.
func (img *Image) ReadNatives() ([]Symbol, error) {
	tbl, err := img.NativesSlice()
	if err != nil {
		return nil, err
	}
	return img.readSymbols("natives", tbl)
}

func (img *Image) readSymbols(table string, tbl []byte) ([]Symbol, error) {
	size := int(img.DefSize)
	if len(tbl)%size != 0 {
		return nil, fmt.Errorf("%w: %s table length %d is not a multiple of %d",
			ErrSectionOutOfRange, table, len(tbl), size)
	}

	out := make([]Symbol, 0, len(tbl)/size)
	for off := 0; off < len(tbl); off += size {
		var rec symbolRecord
		if err := restruct.Unpack(tbl[off:off+size], binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("amx: %s entry %d: %w", table, off/size, err)
		}
		name, err := img.readName(rec.NameOffset)
		if err != nil {
			return nil, fmt.Errorf("amx: %s entry %d: %w", table, off/size, err)
		}
		out = append(out, Symbol{Name: name, Address: rec.Address})
	}
	return out, nil
}

// readName reads the NUL-terminated name at an absolute image offset.
func (img *Image) readName(offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(img.bin)) {
		return "", fmt.Errorf("%w: 0x%x beyond image (%d bytes)", ErrInvalidNameOffset, offset, len(img.bin))
	}
	s := amxfmt.NewStreamAt(img.bin, int(offset))
	name, err := s.ReadCString()
	if err != nil {
		return "", fmt.Errorf("%w: 0x%x: %v", ErrInvalidNameOffset, offset, err)
	}
	return name, nil
}

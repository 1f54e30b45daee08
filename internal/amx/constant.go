package amx

import (
	"fmt"
	"strconv"
	"strings"

	"unamxx/internal/amxfmt"
)

// ConstantKind tells how a pushed operand was interpreted.
type ConstantKind uint8

const (
	ConstCell ConstantKind = iota
	ConstText
)

// Constant is a native call argument resolved against the data segment.
type Constant struct {
	Kind ConstantKind
	Cell uint32
	Text string
}

// CellConstant wraps a raw integer operand.
func CellConstant(v uint32) Constant { return Constant{Kind: ConstCell, Cell: v} }

// TextConstant wraps a decoded string operand.
func TextConstant(s string) Constant { return Constant{Kind: ConstText, Text: s} }

func (c Constant) String() string {
	if c.Kind == ConstText {
		return strconv.Quote(c.Text)
	}
	return strconv.FormatUint(uint64(c.Cell), 10)
}

// GoString is used by %#v in test failures.
func (c Constant) GoString() string {
	if c.Kind == ConstText {
		return fmt.Sprintf("Text(%q)", c.Text)
	}
	return fmt.Sprintf("Cell(%d)", c.Cell)
}

// ReadConstant interprets a PUSH.C operand.
//
// An offset greater than hea-dat cannot address the data segment and is
// returned as a Cell. Otherwise the operand is treated as the address of an
// unpacked string: one character per cell, taken from the cell's low byte,
// ending at the first zero cell or at the end of the segment.
//
// Small integers that happen to fall inside the data segment are therefore
// read as strings; nothing in the bytecode distinguishes the two.
func (img *Image) ReadConstant(offset uint32) Constant {
	if offset > img.DataSize() {
		return CellConstant(offset)
	}
	data, err := img.DataSlice()
	if err != nil {
		return CellConstant(offset)
	}

	var b strings.Builder
	for i := uint64(offset); i < uint64(len(data)); i += amxfmt.CellSize {
		c := data[i]
		if c == 0 {
			break
		}
		b.WriteByte(c)
	}
	return TextConstant(b.String())
}

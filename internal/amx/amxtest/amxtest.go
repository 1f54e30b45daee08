// Package amxtest assembles synthetic AMX images and AMXX archives for tests.
package amxtest

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"
)

// Symbol is a table entry to emit.
type Symbol struct {
	Name    string
	Address uint32
}

// Image describes an AMX image to assemble.
type Image struct {
	Flags   uint16
	Code    []uint32 // one entry per cell
	Data    []byte
	Publics []Symbol
	Natives []Symbol
}

// Layout records where Bytes placed each region.
type Layout struct {
	Publics, Natives, NameTable uint32
	Cod, Dat, Hea, Stp          uint32
}

const headerSize = 56

// Bytes serialises the image: header, publics, natives, name table, code, data.
func (m *Image) Bytes() []byte {
	b, _ := m.Build()
	return b
}

// Build serialises the image and reports its layout.
func (m *Image) Build() ([]byte, Layout) {
	var l Layout
	l.Publics = headerSize
	l.Natives = l.Publics + uint32(8*len(m.Publics))
	l.NameTable = l.Natives + uint32(8*len(m.Natives))

	var names bytes.Buffer
	// Name table starts with the maximum symbol name length.
	binary.Write(&names, binary.LittleEndian, uint16(31))
	nameOff := func(s string) uint32 {
		off := l.NameTable + uint32(names.Len())
		names.WriteString(s)
		names.WriteByte(0)
		return off
	}

	var tables bytes.Buffer
	for _, group := range [][]Symbol{m.Publics, m.Natives} {
		for _, s := range group {
			binary.Write(&tables, binary.LittleEndian, s.Address)
			binary.Write(&tables, binary.LittleEndian, nameOff(s.Name))
		}
	}

	l.Cod = align4(l.NameTable + uint32(names.Len()))
	l.Dat = l.Cod + uint32(4*len(m.Code))
	l.Hea = l.Dat + uint32(len(m.Data))
	l.Stp = l.Hea + 16384

	out := make([]byte, l.Cod, l.Hea)
	le := binary.LittleEndian
	le.PutUint32(out[0:], l.Hea)
	le.PutUint16(out[4:], 0xF1E0)
	out[6] = 8
	out[7] = 8
	le.PutUint16(out[8:], m.Flags)
	le.PutUint16(out[10:], 8)
	for i, v := range []uint32{
		l.Cod, l.Dat, l.Hea, l.Stp, 0,
		l.Publics, l.Natives, l.NameTable, l.NameTable, l.NameTable, l.NameTable,
	} {
		le.PutUint32(out[12+4*i:], v)
	}
	copy(out[l.Publics:], tables.Bytes())
	copy(out[l.NameTable:], names.Bytes())

	for _, c := range m.Code {
		out = le.AppendUint32(out, c)
	}
	out = append(out, m.Data...)
	return out, l
}

func align4(v uint32) uint32 { return (v + 3) &^ 3 }

// Unpacked lays a string out one character per cell, NUL cell terminated.
func Unpacked(s string) []byte {
	out := make([]byte, 0, 4*(len(s)+1))
	for i := 0; i < len(s); i++ {
		out = append(out, s[i], 0, 0, 0)
	}
	return append(out, 0, 0, 0, 0)
}

// Section is one archive entry.
type Section struct {
	CellSize uint8
	Image    []byte
}

// Archive wraps images in an AMXX container, compressing each with zlib.
func Archive(sections ...Section) []byte {
	const hdr, rec = 7, 17
	bodies := make([][]byte, len(sections))
	for i, s := range sections {
		var b bytes.Buffer
		zw := zlib.NewWriter(&b)
		zw.Write(s.Image)
		zw.Close()
		bodies[i] = b.Bytes()
	}

	le := binary.LittleEndian
	out := make([]byte, hdr+rec*len(sections))
	le.PutUint32(out[0:], 0x414D5858)
	le.PutUint16(out[4:], 768)
	out[6] = uint8(len(sections))

	offset := len(out)
	for i, s := range sections {
		r := out[hdr+rec*i:]
		r[0] = s.CellSize
		le.PutUint32(r[1:], uint32(len(bodies[i])))
		le.PutUint32(r[5:], uint32(len(s.Image)))
		le.PutUint32(r[9:], uint32(len(s.Image))+16384)
		le.PutUint32(r[13:], uint32(offset))
		offset += len(bodies[i])
	}
	for _, b := range bodies {
		out = append(out, b...)
	}
	return out
}

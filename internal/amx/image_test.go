package amx

import (
	"encoding/binary"
	"errors"
	"testing"

	"unamxx/internal/amx/amxtest"
)

func sampleImage() *amxtest.Image {
	return &amxtest.Image{
		Flags: uint16(FlagNoChecks | FlagNtvReg),
		Code:  []uint32{120, 0, 46, 137, 48, 0},
		Data:  amxtest.Unpacked("hello"),
		Publics: []amxtest.Symbol{
			{Name: "func", Address: 8},
		},
		Natives: []amxtest.Symbol{
			{Name: "server_print"},
			{Name: "log_amx"},
		},
	}
}

func TestParseImage(t *testing.T) {
	bin, layout := sampleImage().Build()
	img, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if img.Cod != layout.Cod || img.Dat != layout.Dat || img.Hea != layout.Hea {
		t.Errorf("offsets = cod 0x%x dat 0x%x hea 0x%x, want %+v", img.Cod, img.Dat, img.Hea, layout)
	}
	if img.Publics != layout.Publics || img.Natives != layout.Natives {
		t.Errorf("tables = publics 0x%x natives 0x%x, want %+v", img.Publics, img.Natives, layout)
	}
	if !img.Flags.Has(FlagNoChecks) || img.Flags.Has(FlagCompact) {
		t.Errorf("Flags = %v", img.Flags)
	}

	code, err := img.CodeSlice()
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 24 {
		t.Errorf("code length = %d, want 24", len(code))
	}
	data, err := img.DataSlice()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 24 || img.DataSize() != 24 {
		t.Errorf("data length = %d, DataSize = %d", len(data), img.DataSize())
	}

	pubs, err := img.PublicsSlice()
	if err != nil {
		t.Fatal(err)
	}
	nats, err := img.NativesSlice()
	if err != nil {
		t.Fatal(err)
	}
	if len(pubs) != 8 || len(nats) != 16 {
		t.Errorf("table lengths = publics %d natives %d, want 8 and 16", len(pubs), len(nats))
	}
}

func TestParseHeaderErrors(t *testing.T) {
	good := sampleImage().Bytes()
	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated", good[:HeaderSize-1], ErrHeaderTruncated},
		{"magic", mutate(func(b []byte) { b[4] = 0 }), ErrMagicMismatch},
		{"file version", mutate(func(b []byte) { b[6] = 7 }), ErrVersionMismatch},
		{"amx version", mutate(func(b []byte) { b[7] = 9 }), ErrVersionMismatch},
		{"char16 flag", mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[8:], 0x01) }), ErrUnknownFlags},
		{"high unknown flag", mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[8:], 0x0100) }), ErrUnknownFlags},
		{"defsize", mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[10:], 12) }), ErrDefSize},
		{"cod after dat", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[12:], 0xFFFF) }), ErrSectionOutOfRange},
		{"publics after natives", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[32:], 0xFFFF) }), ErrSectionOutOfRange},
		{"natives after libraries", mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[36:], 0xFFFF) }), ErrSectionOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMismatchErrorValues(t *testing.T) {
	bin := sampleImage().Bytes()
	binary.LittleEndian.PutUint16(bin[4:], 0xBEEF)
	_, err := Parse(bin)
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MismatchError", err)
	}
	if me.Expected != 0xF1E0 || me.Actual != 0xBEEF {
		t.Errorf("MismatchError = %+v", me)
	}
}

func TestKnownFlagsAccepted(t *testing.T) {
	for _, f := range flagNames {
		m := sampleImage()
		m.Flags = uint16(f.f)
		if _, err := Parse(m.Bytes()); err != nil {
			t.Errorf("flag %s: %v", f.name, err)
		}
	}
	m := sampleImage()
	m.Flags = uint16(KnownFlags)
	if _, err := Parse(m.Bytes()); err != nil {
		t.Errorf("all known flags: %v", err)
	}
}

func TestFlagsString(t *testing.T) {
	tests := []struct {
		f    Flags
		want string
	}{
		{0, "0"},
		{FlagDebug, "DEBUG"},
		{FlagNoChecks | FlagNtvReg, "NOCHECKS|NTVREG"},
		{FlagCompact | 0x01, "COMPACT|0x1"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Flags(0x%x).String() = %q, want %q", uint16(tt.f), got, tt.want)
		}
	}
}

func TestSliceOutOfRange(t *testing.T) {
	m := sampleImage()
	bin := m.Bytes()
	// Data segment claims more bytes than the buffer has.
	hea := binary.LittleEndian.Uint32(bin[20:])
	binary.LittleEndian.PutUint32(bin[20:], hea+64)
	binary.LittleEndian.PutUint32(bin[24:], hea+64+16384)

	img, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := img.CodeSlice(); err != nil {
		t.Errorf("CodeSlice: %v", err)
	}
	_, err = img.DataSlice()
	var se *SectionOutOfRangeError
	if !errors.As(err, &se) || se.Section != "dat" {
		t.Fatalf("DataSlice err = %v", err)
	}
	if se.End != hea+64 || se.Size != len(bin) {
		t.Errorf("SectionOutOfRangeError = %+v", se)
	}
}

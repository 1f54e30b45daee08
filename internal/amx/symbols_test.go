package amx

import (
	"encoding/binary"
	"errors"
	"testing"

	"unamxx/internal/amx/amxtest"
)

func TestPublicsAndNatives(t *testing.T) {
	img, err := Parse(sampleImage().Bytes())
	if err != nil {
		t.Fatal(err)
	}

	pubs, err := img.ReadPublics()
	if err != nil {
		t.Fatal(err)
	}
	if len(pubs) != 1 || pubs[0] != (Symbol{Name: "func", Address: 8}) {
		t.Errorf("Publics = %+v", pubs)
	}

	nats, err := img.ReadNatives()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"server_print", "log_amx"}
	if len(nats) != len(want) {
		t.Fatalf("Natives = %+v", nats)
	}
	for i, n := range nats {
		if n.Name != want[i] {
			t.Errorf("native %d = %q, want %q", i, n.Name, want[i])
		}
	}
}

func TestEmptyTables(t *testing.T) {
	img, err := Parse((&amxtest.Image{Code: []uint32{120, 0}}).Bytes())
	if err != nil {
		t.Fatal(err)
	}
	pubs, err := img.ReadPublics()
	if err != nil || len(pubs) != 0 {
		t.Errorf("Publics = %v, %v", pubs, err)
	}
	nats, err := img.ReadNatives()
	if err != nil || len(nats) != 0 {
		t.Errorf("Natives = %v, %v", nats, err)
	}
}

func TestInvalidNameOffset(t *testing.T) {
	bin, layout := sampleImage().Build()
	// Point the first public's name past the end of the image.
	binary.LittleEndian.PutUint32(bin[layout.Publics+4:], uint32(len(bin)+10))

	img, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := img.ReadPublics(); !errors.Is(err, ErrInvalidNameOffset) {
		t.Errorf("Publics err = %v, want ErrInvalidNameOffset", err)
	}
	// Natives are unaffected.
	if _, err := img.ReadNatives(); err != nil {
		t.Errorf("Natives: %v", err)
	}
}

func TestUnterminatedName(t *testing.T) {
	m := &amxtest.Image{Natives: []amxtest.Symbol{{Name: "x"}}}
	bin, layout := m.Build()
	// Aim the name at the last byte of the buffer, which is not a NUL.
	bin = append(bin, 'z')
	binary.LittleEndian.PutUint32(bin[layout.Natives+4:], uint32(len(bin)-1))

	img, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := img.ReadNatives(); !errors.Is(err, ErrInvalidNameOffset) {
		t.Errorf("Natives err = %v, want ErrInvalidNameOffset", err)
	}
}

func TestPartialTableRecord(t *testing.T) {
	bin := sampleImage().Bytes()
	natives := binary.LittleEndian.Uint32(bin[36:])
	binary.LittleEndian.PutUint32(bin[36:], natives-3)

	img, err := Parse(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := img.ReadPublics(); !errors.Is(err, ErrSectionOutOfRange) {
		t.Errorf("Publics err = %v, want ErrSectionOutOfRange", err)
	}
}

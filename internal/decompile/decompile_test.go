package decompile

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unamxx/internal/amx"
	"unamxx/internal/amx/amxtest"
	"unamxx/internal/amxfmt"
	"unamxx/internal/amxx"
	"unamxx/internal/disasm"
)

func u(op disasm.Opcode) uint32 { return uint32(op) }

// helloImage is a plugin whose only public, "func", prints a greeting and
// the number 42 through a native.
func helloImage() *amxtest.Image {
	return &amxtest.Image{
		Flags: uint16(amx.FlagNoChecks | amx.FlagNtvReg),
		Code: []uint32{
			u(disasm.OpHalt), 0,
			u(disasm.OpProc), // 8
			u(disasm.OpBreak),
			u(disasm.OpPushC), 1000, // second argument: past the data segment
			u(disasm.OpPushC), 0, // first argument: "hello"
			u(disasm.OpPushC), 8,
			u(disasm.OpSysreqC), 1,
			u(disasm.OpStack), 12,
			u(disasm.OpZeroPri),
			u(disasm.OpBreak),
			u(disasm.OpRetn),
		},
		Data:    amxtest.Unpacked("hello"),
		Publics: []amxtest.Symbol{{Name: "func", Address: 8}},
		Natives: []amxtest.Symbol{{Name: "register_plugin"}, {Name: "server_print"}},
	}
}

func TestDecompileEndToEnd(t *testing.T) {
	data := amxtest.Archive(amxtest.Section{CellSize: 4, Image: helloImage().Bytes()})
	src, err := Decompile(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "public func () {") {
		t.Errorf("missing function header in:\n%s", src)
	}
	want := "// Plugin source approximation starts here\n\n" +
		"#emit HALT\t0x0\n" +
		"public func () {\n" +
		"  server_print(\"hello\", 1000);\n" +
		"}\n\n"
	if src != want {
		t.Errorf("Decompile =\n%s\nwant\n%s", src, want)
	}
}

func TestDecompilePicksCell4Section(t *testing.T) {
	data := amxtest.Archive(
		amxtest.Section{CellSize: 8, Image: []byte("64-bit image, never parsed")},
		amxtest.Section{CellSize: 4, Image: helloImage().Bytes()},
	)
	src, p, err := DecompileWith(data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if p.Section.Index != 1 || len(p.Sections) != 2 {
		t.Errorf("selected section %d of %d", p.Section.Index, len(p.Sections))
	}
	if !strings.Contains(src, "public func () {") {
		t.Errorf("output:\n%s", src)
	}
}

func TestLoadImageMatchesLoad(t *testing.T) {
	bin := helloImage().Bytes()
	p, err := LoadImage(bin, amxfmt.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Archive != nil || len(p.Sections) != 0 {
		t.Errorf("raw image reports a container: %+v", p.Sections)
	}
	q, err := Load(amxtest.Archive(amxtest.Section{CellSize: 4, Image: bin}), amxfmt.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Instructions) != len(q.Instructions) || len(p.Natives) != 2 || p.Publics[0].Name != "func" {
		t.Errorf("LoadImage = %d insts %+v, Load = %d insts", len(p.Instructions), p.Publics, len(q.Instructions))
	}

	if _, err := LoadImage(bin[:amx.HeaderSize-1], amxfmt.Options{}); !errors.Is(err, amx.ErrHeaderTruncated) {
		t.Errorf("truncated image err = %v", err)
	}
}

func TestDecompileNoCell4Section(t *testing.T) {
	data := amxtest.Archive(amxtest.Section{CellSize: 8, Image: helloImage().Bytes()})
	if _, err := Decompile(data); !errors.Is(err, ErrNoCell4Section) {
		t.Fatalf("err = %v, want ErrNoCell4Section", err)
	}
}

func TestDecompileCompactRejected(t *testing.T) {
	m := helloImage()
	m.Flags |= uint16(amx.FlagCompact)
	data := amxtest.Archive(amxtest.Section{CellSize: 4, Image: m.Bytes()})
	if _, err := Decompile(data); !errors.Is(err, ErrCompactEncoding) {
		t.Fatalf("err = %v, want ErrCompactEncoding", err)
	}
}

func TestDecompileFatalErrors(t *testing.T) {
	good := helloImage().Bytes()

	badMagic := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(badMagic[4:], 0x1234)

	badFlags := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(badFlags[8:], 0x0001)

	badOpcode := helloImage()
	badOpcode.Code[2] = 500

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"archive magic", []byte("not an amxx file"), amxx.ErrInvalidMagic},
		{"image magic", amxtest.Archive(amxtest.Section{CellSize: 4, Image: badMagic}), amx.ErrMagicMismatch},
		{"image flags", amxtest.Archive(amxtest.Section{CellSize: 4, Image: badFlags}), amx.ErrUnknownFlags},
		{"opcode", amxtest.Archive(amxtest.Section{CellSize: 4, Image: badOpcode.Bytes()}), disasm.ErrInvalidOpcode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Decompile(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if src != "" {
				t.Errorf("partial output on error: %q", src)
			}
		})
	}
}

func TestDecompileBestEffortKeepsPrefix(t *testing.T) {
	m := helloImage()
	m.Code = append(m.Code[:len(m.Code)-1], 0xBAD) // replace RETN
	data := amxtest.Archive(amxtest.Section{CellSize: 4, Image: m.Bytes()})

	opts := DefaultOptions()
	opts.Mode = amxfmt.ModeBestEffort
	src, p, err := DecompileWith(data, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "server_print(\"hello\", 1000);") {
		t.Errorf("output:\n%s", src)
	}
	kinds := map[amxfmt.DiagKind]int{}
	for _, d := range p.Diags.Items() {
		kinds[d.Kind]++
	}
	if kinds[amxfmt.DiagUnknownOpcode] != 1 || kinds[amxfmt.DiagPattern] != 1 {
		t.Errorf("diags = %v", p.Diags.Items())
	}
}

func TestDecompileIrregularCallLeftRaw(t *testing.T) {
	m := helloImage()
	m.Code = []uint32{
		u(disasm.OpProc),
		u(disasm.OpZeroPri),
		u(disasm.OpSysreqC), 0,
		u(disasm.OpRetn),
	}
	m.Publics = []amxtest.Symbol{{Name: "func", Address: 0}}
	data := amxtest.Archive(amxtest.Section{CellSize: 4, Image: m.Bytes()})

	src, p, err := DecompileWith(data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "  #emit ZERO.pri\n  #emit SYSREQ.C\t0x0\n") {
		t.Errorf("output:\n%s", src)
	}
	if p.Diags.Len() != 1 {
		t.Errorf("diags = %v", p.Diags.Items())
	}
}

func TestPublicLookupFirstWins(t *testing.T) {
	p := &Program{Publics: []amx.Symbol{{Name: "a", Address: 8}, {Name: "b", Address: 8}}}
	if name, ok := p.PublicLookup()(8); !ok || name != "a" {
		t.Errorf("lookup(8) = %q, %v", name, ok)
	}
}

// findSample returns the path to a real plugin under samples/, or skips.
func findSample(t *testing.T, name string) string {
	t.Helper()
	for _, dir := range []string{"samples", "../../samples"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skipf("sample %s not found", name)
	return ""
}

func TestDecompileSample(t *testing.T) {
	path := findSample(t, "simple.amxx")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	src, err := Decompile(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "public func () {") {
		t.Errorf("output:\n%s", src)
	}
}

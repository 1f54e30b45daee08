// Package decompile runs the whole pipeline: container, image, disassembly,
// tree building, pattern rewriting and printing.
package decompile

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"unamxx/internal/amx"
	"unamxx/internal/amxfmt"
	"unamxx/internal/amxx"
	"unamxx/internal/disasm"
	"unamxx/internal/tree"
)

var (
	ErrNoCell4Section  = errors.New("decompile: no 32-bit (cellsize 4) section in file")
	ErrCompactEncoding = errors.New("decompile: compact-encoded images are not supported")
)

// Program is a loaded plugin: the selected section, its parsed image, the
// symbol tables and the decoded instructions.
type Program struct {
	Archive      *amxx.Archive
	Sections     []amxx.Section // sections read up to and including Section
	Section      amxx.Section
	Image        *amx.Image
	Publics      []amx.Symbol
	Natives      []amx.Symbol
	Instructions []disasm.Instruction
	Diags        amxfmt.Diags
}

// Load parses an .amxx file up to disassembly.
func Load(data []byte, opts amxfmt.Options) (*Program, error) {
	a, err := amxx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decompile: %w", err)
	}
	p := &Program{Archive: a}
	if err := p.selectSection(); err != nil {
		return nil, err
	}

	bin, err := p.Section.Unpack()
	if err != nil {
		return nil, fmt.Errorf("decompile: section %d: %w", p.Section.Index, err)
	}
	if err := p.loadImage(bin, opts); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadImage runs the same steps as Load on an already inflated AMX image.
func LoadImage(bin []byte, opts amxfmt.Options) (*Program, error) {
	p := &Program{}
	if err := p.loadImage(bin, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) selectSection() error {
	it := p.Archive.Sections()
	for {
		s, err := it.Next()
		if err == io.EOF {
			return ErrNoCell4Section
		}
		if err != nil {
			return fmt.Errorf("decompile: %w", err)
		}
		p.Sections = append(p.Sections, s)
		if s.CellSize == amxfmt.CellSize {
			p.Section = s
			glog.V(2).Infof("decompile: using section %d (%d bytes packed)", s.Index, s.DiskSize)
			return nil
		}
		glog.V(2).Infof("decompile: skipping section %d with cellsize %d", s.Index, s.CellSize)
	}
}

func (p *Program) loadImage(bin []byte, opts amxfmt.Options) error {
	img, err := amx.Parse(bin)
	if err != nil {
		return fmt.Errorf("decompile: %w", err)
	}
	if img.Flags.Has(amx.FlagCompact) {
		return ErrCompactEncoding
	}
	p.Image = img

	if p.Publics, err = img.ReadPublics(); err != nil {
		return fmt.Errorf("decompile: %w", err)
	}
	if p.Natives, err = img.ReadNatives(); err != nil {
		return fmt.Errorf("decompile: %w", err)
	}

	code, err := img.CodeSlice()
	if err != nil {
		return fmt.Errorf("decompile: %w", err)
	}
	p.Instructions, err = disasm.Disassemble(code, disasm.Options{
		Mode:     opts.Mode,
		MaxSteps: opts.MaxSteps,
		Diags:    &p.Diags,
	})
	if err != nil {
		return fmt.Errorf("decompile: %w", err)
	}
	glog.V(2).Infof("decompile: %d instructions, %d publics, %d natives",
		len(p.Instructions), len(p.Publics), len(p.Natives))
	return nil
}

// Tree builds and rewrites a fresh tree from the loaded instructions.
// Pattern mismatches are appended to p.Diags.
func (p *Program) Tree() *tree.Tree {
	b := tree.NewBuilder(p.Publics)
	b.Diags = &p.Diags
	t := b.Build(p.Instructions)

	r := tree.NewRewriter(p.Natives, p.Image)
	r.Diags = &p.Diags
	r.Rewrite(t)
	return t
}

// NativeNames returns native names in table order.
func (p *Program) NativeNames() []string {
	out := make([]string, len(p.Natives))
	for i, n := range p.Natives {
		out[i] = n.Name
	}
	return out
}

// PublicLookup resolves code addresses to public names.
func (p *Program) PublicLookup() disasm.SymbolLookup {
	m := make(map[uint32]string, len(p.Publics))
	for i := len(p.Publics) - 1; i >= 0; i-- {
		m[p.Publics[i].Address] = p.Publics[i].Name // first entry wins
	}
	return disasm.MapLookup(m)
}

// Options configures DecompileWith.
type Options struct {
	amxfmt.Options
	Print tree.PrintOptions
}

// DefaultOptions is strict parsing with the standard print layout.
func DefaultOptions() Options {
	return Options{Print: tree.DefaultPrintOptions()}
}

// Decompile turns the raw bytes of an .amxx file into pseudo-source.
func Decompile(data []byte) (string, error) {
	src, _, err := DecompileWith(data, DefaultOptions())
	return src, err
}

// DecompileWith is Decompile with explicit options. The Program is returned
// for access to diagnostics and symbols; it is nil on error.
func DecompileWith(data []byte, opts Options) (string, *Program, error) {
	p, err := Load(data, opts.Options)
	if err != nil {
		return "", nil, err
	}
	return tree.Print(p.Tree(), opts.Print), p, nil
}

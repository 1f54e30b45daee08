// Package disasm decodes AMX bytecode into typed instructions.
package disasm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"
	"unamxx/internal/amxfmt"
)

var (
	ErrInvalidOpcode     = errors.New("disasm: invalid opcode")
	ErrTruncatedArgument = errors.New("disasm: truncated argument")
	ErrTruncatedOpcode   = errors.New("disasm: trailing bytes shorter than a cell")
	ErrStepLimit         = errors.New("disasm: step limit reached")
)

// InvalidOpcodeError carries the raw cell that failed to decode.
type InvalidOpcodeError struct {
	Addr uint32
	Raw  uint32
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("disasm: invalid opcode %d (0x%X) at 0x%x", e.Raw, e.Raw, e.Addr)
}

func (e *InvalidOpcodeError) Unwrap() error { return ErrInvalidOpcode }

// Instruction is one decoded opcode. Addr is the byte offset of the opcode
// cell within the code section; publics are matched against it.
type Instruction struct {
	Addr   uint32
	Op     Opcode
	Arg    uint32
	HasArg bool
}

// Size is the number of stream bytes the instruction occupies. Case table
// pseudo-records each account for their own cells.
func (i Instruction) Size() int {
	switch {
	case i.Op.IsPseudo():
		return amxfmt.CellSize
	case i.HasArg:
		return 2 * amxfmt.CellSize
	}
	return amxfmt.CellSize
}

func (i Instruction) String() string {
	if i.HasArg {
		return fmt.Sprintf("%s 0x%X", i.Op, i.Arg)
	}
	return i.Op.String()
}

// Disassembler yields instructions from a code section one at a time.
// After the first error, or once the code is exhausted, Next returns io.EOF.
type Disassembler struct {
	s        *amxfmt.Stream
	pending  []Instruction // expanded case table still to hand out
	done     bool
	steps    int
	maxSteps int
}

// New returns a disassembler over code. maxSteps <= 0 uses the default cap.
func New(code []byte, maxSteps int) *Disassembler {
	if maxSteps <= 0 {
		maxSteps = amxfmt.DefaultMaxSteps
	}
	return &Disassembler{s: amxfmt.NewStream(code), maxSteps: maxSteps}
}

// Offset is the number of code bytes consumed so far.
func (d *Disassembler) Offset() int { return d.s.Position() }

// Next decodes the next instruction.
func (d *Disassembler) Next() (Instruction, error) {
	if len(d.pending) > 0 {
		inst := d.pending[0]
		d.pending = d.pending[1:]
		return inst, nil
	}
	if d.done {
		return Instruction{}, io.EOF
	}
	if d.s.Remaining() == 0 {
		d.done = true
		return Instruction{}, io.EOF
	}
	if d.steps >= d.maxSteps {
		return d.fail(fmt.Errorf("%w: %d instructions", ErrStepLimit, d.steps))
	}
	d.steps++

	addr := uint32(d.s.Position())
	raw, err := d.s.ReadCell()
	if err != nil {
		return d.fail(fmt.Errorf("%w: %d bytes at 0x%x", ErrTruncatedOpcode, d.s.Remaining(), addr))
	}
	op, ok := Decode(raw)
	if !ok {
		return d.fail(&InvalidOpcodeError{Addr: addr, Raw: raw})
	}

	if op == OpCasetbl {
		recs, err := d.caseTable(addr)
		if err != nil {
			return d.fail(err)
		}
		d.pending = recs[1:]
		return recs[0], nil
	}

	inst := Instruction{Addr: addr, Op: op}
	if op.HasArg() {
		arg, err := d.s.ReadCell()
		if err != nil {
			return d.fail(fmt.Errorf("%w: %s at 0x%x", ErrTruncatedArgument, op, addr))
		}
		inst.Arg = arg
		inst.HasArg = true
	}
	if glog.V(3) {
		glog.Infof("disasm: 0x%06x %s", addr, inst)
	}
	return inst, nil
}

func (d *Disassembler) fail(err error) (Instruction, error) {
	d.done = true
	d.pending = nil
	return Instruction{}, err
}

// caseTable expands a CASETBL at addr (whose opcode cell has been read) into
//
//	CASETBL(n) CASENONE(default) {CASE(value) CASEJMP(target)} x n
//
// Each record carries the address of the cell it came from.
func (d *Disassembler) caseTable(addr uint32) ([]Instruction, error) {
	n, err := d.s.ReadCell()
	if err != nil {
		return nil, fmt.Errorf("%w: CASETBL count at 0x%x", ErrTruncatedArgument, addr)
	}
	def, err := d.s.ReadCell()
	if err != nil {
		return nil, fmt.Errorf("%w: CASETBL default at 0x%x", ErrTruncatedArgument, addr)
	}
	// Reject the count before allocating: it comes straight from the stream.
	if uint64(n) > uint64(d.s.Remaining()/(2*amxfmt.CellSize)) {
		return nil, fmt.Errorf("%w: CASETBL at 0x%x declares %d cases, %d bytes remain",
			ErrTruncatedArgument, addr, n, d.s.Remaining())
	}

	recs := make([]Instruction, 0, 2+2*int(n))
	recs = append(recs,
		Instruction{Addr: addr, Op: OpCasetbl, Arg: n, HasArg: true},
		Instruction{Addr: addr + 2*amxfmt.CellSize, Op: OpCaseNone, Arg: def, HasArg: true},
	)
	for i := uint32(0); i < n; i++ {
		at := uint32(d.s.Position())
		value, _ := d.s.ReadCell()
		target, _ := d.s.ReadCell()
		recs = append(recs,
			Instruction{Addr: at, Op: OpCase, Arg: value, HasArg: true},
			Instruction{Addr: at + amxfmt.CellSize, Op: OpCaseJmp, Arg: target, HasArg: true},
		)
	}
	glog.V(3).Infof("disasm: 0x%06x CASETBL %d cases, default 0x%X", addr, n, def)
	return recs, nil
}

// Options controls Disassemble.
type Options struct {
	Mode     amxfmt.Mode
	MaxSteps int           // 0 = amxfmt.DefaultMaxSteps
	Diags    *amxfmt.Diags // best-effort mode records the stopping error here
}

// Disassemble decodes the whole code section. In strict mode the first
// decode error is returned together with the instructions decoded before it.
// In best-effort mode the error is recorded in opts.Diags and nil is returned.
func Disassemble(code []byte, opts Options) ([]Instruction, error) {
	d := New(code, opts.MaxSteps)
	insts := make([]Instruction, 0, len(code)/(2*amxfmt.CellSize))
	for {
		inst, err := d.Next()
		if err == io.EOF {
			return insts, nil
		}
		if err != nil {
			if opts.Mode == amxfmt.ModeBestEffort {
				if opts.Diags != nil {
					opts.Diags.Add(uint64(d.Offset()), diagKind(err), err.Error())
				}
				glog.Warningf("disasm: stopping after %d instructions: %v", len(insts), err)
				return insts, nil
			}
			return insts, err
		}
		insts = append(insts, inst)
	}
}

func diagKind(err error) amxfmt.DiagKind {
	switch {
	case errors.Is(err, ErrInvalidOpcode):
		return amxfmt.DiagUnknownOpcode
	case errors.Is(err, ErrStepLimit):
		return amxfmt.DiagSkipped
	}
	return amxfmt.DiagTruncated
}

// SymbolLookup resolves a code address to a name. Returns ("", false) if unknown.
type SymbolLookup func(addr uint32) (name string, ok bool)

// Format renders instructions as a listing, one per line:
//
//	<addr>  <mnemonic> <arg>  ; <comment>
//
// A symbol at the instruction's address gets a label line before it.
// Annotators are tried in order; the first non-empty result is used.
func Format(insts []Instruction, lookup SymbolLookup, annotators ...Annotator) string {
	var b strings.Builder
	for _, inst := range insts {
		if lookup != nil && inst.Op == OpProc {
			if name, ok := lookup(inst.Addr); ok {
				fmt.Fprintf(&b, "\n%s:\n", name)
			}
		}
		fmt.Fprintf(&b, "0x%08x  ", inst.Addr)
		indent := ""
		if inst.Op.IsPseudo() {
			indent = "  "
		}
		if inst.HasArg {
			fmt.Fprintf(&b, "%s%-12s 0x%X", indent, inst.Op, inst.Arg)
		} else {
			fmt.Fprintf(&b, "%s%s", indent, inst.Op)
		}
		for _, ann := range annotators {
			if s := ann(inst); s != "" {
				fmt.Fprintf(&b, "  ; %s", s)
				break
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MapLookup returns a SymbolLookup backed by a map of entry points.
func MapLookup(entryPoints map[uint32]string) SymbolLookup {
	return func(addr uint32) (string, bool) {
		name, ok := entryPoints[addr]
		return name, ok
	}
}

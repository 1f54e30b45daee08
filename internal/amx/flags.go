package amx

import (
	"fmt"
	"strings"
)

// Flags is the AMX header flag word.
type Flags uint16

const (
	FlagDebug    Flags = 0x02   // symbolic info available
	FlagCompact  Flags = 0x04   // compact encoding
	FlagByteOpc  Flags = 0x08   // opcode is a byte, not a cell
	FlagNoChecks Flags = 0x10   // no array bounds checking, no BREAK opcodes
	FlagNtvReg   Flags = 0x1000 // all native functions are registered
	FlagJITC     Flags = 0x2000 // abstract machine is JIT compiled
	FlagBrowse   Flags = 0x4000 // busy browsing
	FlagReloc    Flags = 0x8000 // jump/call addresses relocated
)

// KnownFlags is the union of every flag bit this parser understands.
// 0x01 (the retired CHAR16 flag) is deliberately absent.
const KnownFlags = FlagDebug | FlagCompact | FlagByteOpc | FlagNoChecks |
	FlagNtvReg | FlagJITC | FlagBrowse | FlagReloc

var flagNames = []struct {
	f    Flags
	name string
}{
	{FlagDebug, "DEBUG"},
	{FlagCompact, "COMPACT"},
	{FlagByteOpc, "BYTEOPC"},
	{FlagNoChecks, "NOCHECKS"},
	{FlagNtvReg, "NTVREG"},
	{FlagJITC, "JITC"},
	{FlagBrowse, "BROWSE"},
	{FlagReloc, "RELOC"},
}

// ParseFlags rejects any bit outside KnownFlags.
func ParseFlags(raw uint16) (Flags, error) {
	f := Flags(raw)
	if unknown := f &^ KnownFlags; unknown != 0 {
		return 0, fmt.Errorf("%w: 0x%04X (unknown bits 0x%04X)", ErrUnknownFlags, raw, uint16(unknown))
	}
	return f, nil
}

// Has reports whether every bit of g is set.
func (f Flags) Has(g Flags) bool { return f&g == g }

func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.f) {
			parts = append(parts, fn.name)
		}
	}
	if rest := f &^ KnownFlags; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

// Package amxfmt provides shared types and diagnostics for AMX/AMXX parsing.
package amxfmt

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagTruncated     DiagKind = "truncated"
	DiagInvalid       DiagKind = "invalid"
	DiagUnknownOpcode DiagKind = "unknown_opcode"
	DiagPattern       DiagKind = "pattern"
	DiagSkipped       DiagKind = "skipped"
)

// Diag records a non-fatal issue encountered during parsing or decompilation.
type Diag struct {
	Offset uint64   `json:"offset"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
	Func   string   `json:"func,omitempty"`
}

func (d Diag) String() string {
	if d.Func != "" {
		return fmt.Sprintf("[%s] %s 0x%x: %s", d.Kind, d.Func, d.Offset, d.Msg)
	}
	return fmt.Sprintf("[%s] 0x%x: %s", d.Kind, d.Offset, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(offset uint64, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(offset uint64, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// AddFunc records a diagnostic attributed to a named function.
func (d *Diags) AddFunc(fn string, offset uint64, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: msg, Func: fn})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

// Mode controls error handling behavior.
type Mode int

const (
	ModeStrict     Mode = iota // first structural error returns error
	ModeBestEffort             // keep what was decoded, accumulate diags
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeBestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "strict":
		return ModeStrict, nil
	case "best-effort", "besteffort":
		return ModeBestEffort, nil
	}
	return ModeStrict, fmt.Errorf("amxfmt: unknown mode %q (use strict or best-effort)", name)
}

// Options controls parsing behavior across packages.
type Options struct {
	Mode     Mode
	MaxSteps int // global loop cap; 0 = use default
}

// DefaultMaxSteps is the global default loop cap.
const DefaultMaxSteps = 10_000_000

func (o Options) EffectiveMaxSteps() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return DefaultMaxSteps
}

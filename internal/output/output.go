// Package output writes decompilation results to files.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"unamxx/internal/amx"
	"unamxx/internal/disasm"
)

// SymbolEntry is one public or native table entry.
type SymbolEntry struct {
	Kind    string `json:"kind" cbor:"kind"` // "public" or "native"
	Index   int    `json:"index" cbor:"index"`
	Address uint32 `json:"address" cbor:"address"`
	Name    string `json:"name" cbor:"name"`
}

// Symbols flattens both tables, publics first, each in table order.
func Symbols(publics, natives []amx.Symbol) []SymbolEntry {
	out := make([]SymbolEntry, 0, len(publics)+len(natives))
	for i, s := range publics {
		out = append(out, SymbolEntry{Kind: "public", Index: i, Address: s.Address, Name: s.Name})
	}
	for i, s := range natives {
		out = append(out, SymbolEntry{Kind: "native", Index: i, Address: s.Address, Name: s.Name})
	}
	return out
}

// WriteSymbolsJSON writes symbols to symbols.json.
func WriteSymbolsJSON(dir string, symbols []SymbolEntry) error {
	return writeJSON(filepath.Join(dir, "symbols.json"), symbols)
}

// WriteASM writes a disassembly listing to asm.txt.
func WriteASM(dir string, insts []disasm.Instruction, lookup disasm.SymbolLookup, annotators ...disasm.Annotator) error {
	path := filepath.Join(dir, "asm.txt")
	text := disasm.Format(insts, lookup, annotators...)
	return os.WriteFile(path, []byte(text), 0644)
}

// WriteSource writes decompiled pseudo-source to <name>.sma.
func WriteSource(dir, name, src string) error {
	return os.WriteFile(filepath.Join(dir, name+".sma"), []byte(src), 0644)
}

// WriteRecordsJSONL writes functions.jsonl, call_edges.jsonl and
// string_refs.jsonl.
func WriteRecordsJSONL(dir string, r *Records) error {
	if err := writeJSONL(filepath.Join(dir, "functions.jsonl"), r.Functions); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, "call_edges.jsonl"), r.CallEdges); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dir, "string_refs.jsonl"), r.StringRefs)
}

// Dump is the single-file CBOR export.
type Dump struct {
	Symbols    []SymbolEntry            `cbor:"symbols"`
	Functions  []disasm.FuncRecord      `cbor:"functions"`
	CallEdges  []disasm.CallEdgeRecord  `cbor:"call_edges"`
	StringRefs []disasm.StringRefRecord `cbor:"string_refs"`
}

var cborEnc cbor.EncMode

func init() {
	var err error
	cborEnc, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("output: cbor enc mode: %v", err))
	}
}

// EncodeCBOR writes d to w in canonical CBOR, so equal dumps are byte-equal.
func EncodeCBOR(w io.Writer, d *Dump) error {
	if err := cborEnc.NewEncoder(w).Encode(d); err != nil {
		return fmt.Errorf("output: encode cbor: %w", err)
	}
	return nil
}

// DecodeCBOR reads a dump written by EncodeCBOR.
func DecodeCBOR(data []byte) (*Dump, error) {
	var d Dump
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("output: decode cbor: %w", err)
	}
	return &d, nil
}

// WriteDumpCBOR writes d to dump.cbor.
func WriteDumpCBOR(dir string, d *Dump) error {
	path := filepath.Join(dir, "dump.cbor")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	if err := EncodeCBOR(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}

func writeJSONL[T any](path string, recs []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return fmt.Errorf("output: encode %s: %w", path, err)
		}
	}
	return nil
}

package output

import (
	"fmt"

	"unamxx/internal/amx"
	"unamxx/internal/disasm"
	"unamxx/internal/tree"
)

// Records are the per-function exports of one decompiled plugin.
type Records struct {
	Functions  []disasm.FuncRecord
	CallEdges  []disasm.CallEdgeRecord
	StringRefs []disasm.StringRefRecord
}

// Collect builds records from a rewritten tree. natives is the native table
// in order; decode converts recovered text (nil keeps it as is).
func Collect(t *tree.Tree, natives []string, decode func(string) string) *Records {
	if decode == nil {
		decode = func(s string) string { return s }
	}
	fns := t.Functions()
	byAddr := make(map[uint32]string, len(fns))
	for _, f := range fns {
		byAddr[f.Addr] = f.Name
	}
	lookup := disasm.MapLookup(byAddr)

	r := &Records{}
	for _, f := range fns {
		calls := f.Calls()
		r.Functions = append(r.Functions, disasm.FuncRecord{
			Addr:       hex(f.Addr),
			Size:       len(f.Children),
			Name:       f.Name,
			Visibility: f.Visibility.String(),
			Calls:      len(calls),
		})

		for _, c := range calls {
			r.CallEdges = append(r.CallEdges, disasm.CallEdgeRecord{
				FromFunc: f.Name,
				FromAddr: hex(c.Addr),
				Kind:     disasm.EdgeSysreq,
				Target:   c.Name,
				Argc:     len(c.Args),
			})
			for _, a := range c.Args {
				if a.Kind == amx.ConstText {
					r.StringRefs = append(r.StringRefs, disasm.StringRefRecord{
						Func:  f.Name,
						Addr:  hex(c.Addr),
						Value: decode(a.Text),
					})
				}
			}
		}
		for _, e := range disasm.CallEdges(f.Instructions(), natives, lookup) {
			target := e.TargetName
			if target == "" && e.Kind == disasm.EdgeCall {
				target = hex(e.TargetAddr)
			}
			r.CallEdges = append(r.CallEdges, disasm.CallEdgeRecord{
				FromFunc: f.Name,
				FromAddr: hex(e.FromAddr),
				Kind:     e.Kind,
				Target:   target,
				Argc:     e.Argc,
			})
		}
	}
	return r
}

func hex(v uint32) string { return fmt.Sprintf("0x%x", v) }

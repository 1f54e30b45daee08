package tree

import (
	"fmt"

	"github.com/golang/glog"
	"unamxx/internal/amx"
	"unamxx/internal/amxfmt"
	"unamxx/internal/disasm"
)

// Builder turns instructions into a tree. Stock functions are named
// sub_0, sub_1, ... in the order the builder meets them; the counter
// lives in the builder, so two builders name independently.
type Builder struct {
	publics []amx.Symbol
	counter uint32
	Diags   *amxfmt.Diags // optional
}

// NewBuilder returns a builder that names functions from publics.
func NewBuilder(publics []amx.Symbol) *Builder {
	return &Builder{publics: publics}
}

// Build runs both passes: Flat, then Group.
func (b *Builder) Build(insts []disasm.Instruction) *Tree {
	t := Flat(insts)
	b.Group(t)
	return t
}

// Flat wraps every instruction as a top-level leaf, in order.
func Flat(insts []disasm.Instruction) *Tree {
	nodes := make([]Node, len(insts))
	for i, inst := range insts {
		nodes[i] = InstructionNode(inst)
	}
	return &Tree{Nodes: nodes}
}

// Group moves the instructions between each PROC and the next RETN into a
// function node. The PROC and RETN themselves are consumed. A RETN with no
// open function stays a top-level instruction.
func (b *Builder) Group(t *Tree) {
	glog.V(2).Info("tree: packing instructions into functions")

	out := make([]Node, 0, len(t.Nodes))
	var cur *Function
	for _, n := range t.Nodes {
		if n.Kind != KindInstruction {
			out = append(out, n)
			continue
		}
		switch {
		case n.Inst.Op == disasm.OpProc:
			if cur != nil {
				// PROC without RETN before it: keep what was collected.
				b.diag(cur, n.Inst.Addr, "function has no RETN before next PROC")
				out = append(out, FunctionNode(cur))
			}
			cur = b.open(n.Inst.Addr)
		case n.Inst.Op == disasm.OpRetn && cur != nil:
			out = append(out, FunctionNode(cur))
			cur = nil
		case cur != nil:
			cur.Children = append(cur.Children, n)
		default:
			out = append(out, n)
		}
	}
	if cur != nil {
		b.diag(cur, cur.Addr, "function runs to end of code without RETN")
		out = append(out, FunctionNode(cur))
	}
	t.Nodes = out
}

func (b *Builder) open(addr uint32) *Function {
	for _, p := range b.publics {
		if p.Address == addr {
			return &Function{Name: p.Name, Visibility: Public, Addr: addr}
		}
	}
	name := fmt.Sprintf("sub_%x", b.counter)
	b.counter++
	return &Function{Name: name, Visibility: Stock, Addr: addr}
}

func (b *Builder) diag(f *Function, addr uint32, msg string) {
	glog.V(1).Infof("tree: %s at 0x%x: %s", f.Name, addr, msg)
	if b.Diags != nil {
		b.Diags.AddFunc(f.Name, uint64(addr), amxfmt.DiagPattern, msg)
	}
}

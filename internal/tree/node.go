// Package tree regroups a flat AMX instruction stream into functions and
// folds recognisable call idioms into call nodes.
package tree

import (
	"unamxx/internal/amx"
	"unamxx/internal/disasm"
)

// Kind tags the variant a Node holds.
type Kind uint8

const (
	KindInstruction Kind = iota
	KindFunction
	KindCall
)

func (k Kind) String() string {
	switch k {
	case KindInstruction:
		return "instruction"
	case KindFunction:
		return "function"
	case KindCall:
		return "call"
	}
	return "unknown"
}

// Visibility is how a function is declared in the printed source.
type Visibility uint8

const (
	Stock Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "stock"
}

// Node is one tree element. Exactly one of Inst, Func or Call is meaningful,
// selected by Kind. A node belongs to exactly one parent list.
type Node struct {
	Kind Kind
	Inst disasm.Instruction
	Func *Function
	Call *Call
}

// Function owns the nodes between a PROC and its RETN.
type Function struct {
	Name       string
	Visibility Visibility
	Addr       uint32 // address of the PROC
	Children   []Node
}

// Call is a folded native invocation.
type Call struct {
	Name string
	Args []amx.Constant // declaration order
	Addr uint32         // address of the SYSREQ.C it replaced
}

// Tree is the whole decompiled plugin.
type Tree struct {
	Nodes []Node
}

// InstructionNode wraps a raw instruction.
func InstructionNode(inst disasm.Instruction) Node {
	return Node{Kind: KindInstruction, Inst: inst}
}

// FunctionNode wraps a function.
func FunctionNode(f *Function) Node {
	return Node{Kind: KindFunction, Func: f}
}

// CallNode wraps a folded call.
func CallNode(c *Call) Node {
	return Node{Kind: KindCall, Call: c}
}

// Is reports whether n is a raw instruction with opcode op.
func (n Node) Is(op disasm.Opcode) bool {
	return n.Kind == KindInstruction && n.Inst.Op == op
}

// Functions returns the top-level function nodes in order.
func (t *Tree) Functions() []*Function {
	var out []*Function
	for _, n := range t.Nodes {
		if n.Kind == KindFunction {
			out = append(out, n.Func)
		}
	}
	return out
}

// Calls returns the folded calls directly under f.
func (f *Function) Calls() []*Call {
	var out []*Call
	for _, n := range f.Children {
		if n.Kind == KindCall {
			out = append(out, n.Call)
		}
	}
	return out
}

// Instructions returns the raw instructions directly under f.
func (f *Function) Instructions() []disasm.Instruction {
	var out []disasm.Instruction
	for _, n := range f.Children {
		if n.Kind == KindInstruction {
			out = append(out, n.Inst)
		}
	}
	return out
}

package tree

import (
	"fmt"

	"github.com/golang/glog"
	"unamxx/internal/amx"
	"unamxx/internal/amxfmt"
	"unamxx/internal/disasm"
)

// ConstantReader resolves a PUSH.C operand. *amx.Image implements it.
type ConstantReader interface {
	ReadConstant(offset uint32) amx.Constant
}

// Rewriter runs the pattern passes over every function of a tree.
// Call sites that do not match are left as raw instructions and reported
// through Diags; the passes never fail.
type Rewriter struct {
	natives []amx.Symbol
	consts  ConstantReader
	Diags   *amxfmt.Diags // optional
}

// NewRewriter returns a rewriter resolving native names from natives (in
// table order) and arguments through consts.
func NewRewriter(natives []amx.Symbol, consts ConstantReader) *Rewriter {
	return &Rewriter{natives: natives, consts: consts}
}

// Rewrite trims leading BREAKs from every function, then folds native calls.
func (r *Rewriter) Rewrite(t *Tree) {
	fns := t.Functions()
	glog.V(2).Info("tree: cleaning leading breaks")
	for _, f := range fns {
		CleanBreaks(f)
	}
	glog.V(2).Info("tree: folding native calls")
	for _, f := range fns {
		r.FoldNativeCalls(f)
	}
}

// CleanBreaks removes the run of BREAK instructions at the start of f.
// BREAKs after the first other node are kept.
func CleanBreaks(f *Function) {
	i := 0
	for i < len(f.Children) && f.Children[i].Is(disasm.OpBreak) {
		i++
	}
	f.Children = f.Children[i:]
}

// trailing is the bookkeeping the compiler emits after a native call, in the
// order it appears.
var trailing = [...]disasm.Opcode{disasm.OpStack, disasm.OpZeroPri, disasm.OpBreak}

// FoldNativeCalls replaces each
//
//	PUSH.C argN ... PUSH.C arg1  PUSH.C N*4  SYSREQ.C idx
//
// in f with a single Call node, then drops a following STACK, ZERO.pri,
// BREAK sequence (as much of it as is present, in that order).
func (r *Rewriter) FoldNativeCalls(f *Function) {
	for i := 0; i < len(f.Children); i++ {
		n := f.Children[i]
		if !n.Is(disasm.OpSysreqC) {
			continue
		}
		start, call, ok := r.matchNativeCall(f, i)
		if !ok {
			continue
		}

		// Commit: args, count and SYSREQ.C collapse into one node at start.
		children := make([]Node, 0, len(f.Children)-(i-start))
		children = append(children, f.Children[:start]...)
		children = append(children, CallNode(call))
		rest := f.Children[i+1:]
		for _, op := range trailing {
			if len(rest) == 0 || !rest[0].Is(op) {
				break
			}
			rest = rest[1:]
		}
		children = append(children, rest...)
		f.Children = children

		glog.V(2).Infof("tree: %s: folded %s(%d args) at 0x%x", f.Name, call.Name, len(call.Args), call.Addr)
		i = start
	}
}

// matchNativeCall validates the call site whose SYSREQ.C is at index i and
// resolves it. Nothing in f is modified; on mismatch ok is false.
func (r *Rewriter) matchNativeCall(f *Function, i int) (start int, call *Call, ok bool) {
	sysreq := f.Children[i].Inst

	if i == 0 || !f.Children[i-1].Is(disasm.OpPushC) {
		r.mismatch(f, sysreq.Addr, "native call has no PUSH.C argument count before it")
		return 0, nil, false
	}
	argc := int(f.Children[i-1].Inst.Arg / amxfmt.CellSize)
	if argc > i-1 {
		r.mismatch(f, sysreq.Addr, fmt.Sprintf("native call declares %d arguments, only %d nodes precede it", argc, i-1))
		return 0, nil, false
	}
	start = i - 1 - argc
	pushes := f.Children[start : i-1]
	for _, p := range pushes {
		if !p.Is(disasm.OpPushC) {
			r.mismatch(f, sysreq.Addr, fmt.Sprintf("native call argument is %s, not PUSH.C", describe(p)))
			return 0, nil, false
		}
	}
	if int64(sysreq.Arg) >= int64(len(r.natives)) {
		r.mismatch(f, sysreq.Addr, fmt.Sprintf("native index %d out of range (%d natives)", sysreq.Arg, len(r.natives)))
		return 0, nil, false
	}

	// Arguments are pushed last to first.
	args := make([]amx.Constant, len(pushes))
	for k, p := range pushes {
		args[len(pushes)-1-k] = r.consts.ReadConstant(p.Inst.Arg)
	}
	return start, &Call{Name: r.natives[sysreq.Arg].Name, Args: args, Addr: sysreq.Addr}, true
}

func describe(n Node) string {
	if n.Kind == KindInstruction {
		return n.Inst.Op.String()
	}
	return n.Kind.String()
}

func (r *Rewriter) mismatch(f *Function, addr uint32, msg string) {
	glog.V(1).Infof("tree: %s at 0x%x: %s", f.Name, addr, msg)
	if r.Diags != nil {
		r.Diags.AddFunc(f.Name, uint64(addr), amxfmt.DiagPattern, msg)
	}
}

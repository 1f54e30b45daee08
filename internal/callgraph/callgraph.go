// Package callgraph builds the plugin call graph: functions to the natives
// and functions they call.
package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"
	"unamxx/internal/disasm"
	"unamxx/internal/tree"
)

// FuncInfo holds the data needed to build the call graph for one function.
type FuncInfo struct {
	Name      string
	Natives   []string          // folded native calls, in order
	CallEdges []disasm.CallEdge // call sites left as raw instructions
}

// BuildCallGraph constructs a lattice.Graph from per-function call data.
// Each function and each callee becomes a node. CALL edges without a known
// target name are labelled by address; dynamic SYSREQ.pri calls are skipped.
func BuildCallGraph(funcs []FuncInfo) *lattice.Graph {
	g := &lattice.Graph{}
	seen := make(map[string]bool)
	addNode := func(name string) {
		if !seen[name] {
			seen[name] = true
			g.Nodes = append(g.Nodes, name)
		}
	}
	seenEdge := make(map[[2]string]bool)
	addEdge := func(caller, callee string) {
		addNode(callee)
		if k := [2]string{caller, callee}; !seenEdge[k] {
			seenEdge[k] = true
			g.Edges = append(g.Edges, lattice.Edge{Caller: caller, Callee: callee})
		}
	}

	for _, f := range funcs {
		addNode(f.Name)
	}
	for _, f := range funcs {
		for _, n := range f.Natives {
			addEdge(f.Name, n)
		}
		for _, e := range f.CallEdges {
			callee := e.TargetName
			if callee == "" && e.Kind == disasm.EdgeCall {
				callee = fmt.Sprintf("0x%x", e.TargetAddr)
			}
			if callee == "" {
				continue
			}
			addEdge(f.Name, callee)
		}
	}
	g.Dedup()
	return g
}

// FromTree collects FuncInfo for every function in t. natives is the native
// table in order, used for SYSREQ.C sites the rewriter did not fold.
func FromTree(t *tree.Tree, natives []string) []FuncInfo {
	fns := t.Functions()
	byAddr := make(map[uint32]string, len(fns))
	for _, f := range fns {
		byAddr[f.Addr] = f.Name
	}
	lookup := disasm.MapLookup(byAddr)

	out := make([]FuncInfo, 0, len(fns))
	for _, f := range fns {
		fi := FuncInfo{Name: f.Name}
		for _, c := range f.Calls() {
			fi.Natives = append(fi.Natives, c.Name)
		}
		fi.CallEdges = disasm.CallEdges(f.Instructions(), natives, lookup)
		out = append(out, fi)
	}
	return out
}

// DOT renders g as Graphviz source.
func DOT(g *lattice.Graph, title string) string {
	return render.DOT(g, title)
}

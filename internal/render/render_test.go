package render

import (
	"strings"
	"testing"

	"unamxx/internal/disasm"
)

var (
	testFuncs = []disasm.FuncRecord{
		{Addr: "0x0", Name: "plugin_init", Visibility: "public"},
		{Addr: "0x40", Name: "sub_0", Visibility: "stock"},
		{Addr: "0x80", Name: "sub_1", Visibility: "stock"},
	}
	testEdges = []disasm.CallEdgeRecord{
		{FromFunc: "plugin_init", FromAddr: "0x8", Kind: disasm.EdgeSysreq, Target: "register_plugin", Argc: 3},
		{FromFunc: "plugin_init", FromAddr: "0x10", Kind: disasm.EdgeCall, Target: "sub_0", Argc: 0},
		{FromFunc: "plugin_init", FromAddr: "0x18", Kind: disasm.EdgeCall, Target: "sub_0", Argc: 0},
		{FromFunc: "sub_0", FromAddr: "0x44", Kind: disasm.EdgeSysreqPri, Argc: -1},
		{FromFunc: "sub_1", FromAddr: "0x84", Kind: disasm.EdgeSysreq, Target: "server_print", Argc: 1},
	}
)

func TestCallgraphDOT(t *testing.T) {
	dot := CallgraphDOT(testFuncs, testEdges, "test", NASA, 0)

	for _, want := range []string{
		"digraph callgraph {",
		`n_plugin_init [label="plugin_init", penwidth=1.5`,
		`n_sub_0 [label="sub_0", fillcolor="#ECEFF1"]`,
		"subgraph cluster_natives {",
		`n_register_plugin [label="register_plugin", shape=plaintext`,
		`n_plugin_init -> n_sub_0 [color="#424242", style="bold", penwidth=0.7]`,
		`n_sub_0 -> n__003csysreq_002epri_003e [color="#FC3D21", style="dashed"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in:\n%s", want, dot)
		}
	}
	if dot != CallgraphDOT(testFuncs, testEdges, "test", NASA, 0) {
		t.Error("output is not deterministic")
	}

	limited := CallgraphDOT(testFuncs, testEdges, "", NASA, 1)
	if strings.Contains(limited, "server_print") {
		t.Errorf("maxNodes=1 still renders sub_1 edges:\n%s", limited)
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(testFuncs, testEdges)
	if s.TotalFunctions != 3 || s.PublicFunctions != 1 || s.TotalEdges != 5 {
		t.Errorf("totals = %+v", s)
	}
	if s.CallEdges != 2 || s.NativeEdges != 2 || s.IndirectEdges != 1 {
		t.Errorf("kinds = %+v", s)
	}
	if len(s.TopCallers) == 0 || s.TopCallers[0] != (NameCount{"plugin_init", 3}) {
		t.Errorf("top callers = %v", s.TopCallers)
	}
	if len(s.TopNatives) != 2 || s.TopNatives[0].Name != "register_plugin" {
		t.Errorf("top natives = %v", s.TopNatives)
	}
}

func TestReachability(t *testing.T) {
	entries := FindEntryPoints(testFuncs)
	if len(entries) != 1 || entries[0] != "plugin_init" {
		t.Fatalf("entries = %v", entries)
	}
	reach := ReachableSet(entries, testEdges)
	if !reach["sub_0"] || reach["sub_1"] {
		t.Errorf("reachable = %v", reach)
	}
	if dead := Unreachable(testFuncs, reach); len(dead) != 1 || dead[0] != "sub_1" {
		t.Errorf("unreachable = %v", dead)
	}

	dot := ReachabilityDOT(testEdges, reach, entries, "", NASA)
	if !strings.Contains(dot, "n_plugin_init -> n_sub_0") || strings.Contains(dot, "sub_1") {
		t.Errorf("dot:\n%s", dot)
	}
}

func TestDotID(t *testing.T) {
	if got := dotID("a.b"); got != "n_a_002eb" {
		t.Errorf("dotID = %q", got)
	}
	if got := truncLabel("abcdefgh", 6); got != "abc..." {
		t.Errorf("truncLabel = %q", got)
	}
}

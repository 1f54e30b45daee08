package signal

import (
	"testing"

	"unamxx/internal/disasm"
)

func TestClassifyString(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"http://example.com/stats.php", []string{CatURL}},
		{"connecting to 192.168.0.1", []string{CatHost, CatNet}},
		{"rcon_password hunter2", []string{CatAuth, CatExec}},
		{"SELECT name FROM players WHERE id = %d", []string{CatSQL}},
		{"addons/amxmodx/configs/users.ini", []string{CatFileExt}},
		{"md5 of the map", []string{CatCrypto}},
		{"quit\n", []string{CatExec}},
	}
	for _, tt := range tests {
		cats := ClassifyString(tt.value)
		for _, w := range tt.want {
			if !containsCat(cats, w) {
				t.Errorf("ClassifyString(%q) = %v, missing %s", tt.value, cats, w)
			}
		}
	}
}

func TestClassifyStringNoSignal(t *testing.T) {
	for _, s := range []string{
		"",
		"x",
		"[AMXX] Welcome to the server, %s!",
		"Plugin Name",
		"tokenizer",
		"selection menu",
		"checkAdminFlagsForMenuAccess",
	} {
		if cats := ClassifyString(s); len(cats) != 0 {
			t.Errorf("ClassifyString(%q) = %v, want none", s, cats)
		}
	}
}

func TestClassifyNative(t *testing.T) {
	tests := map[string]string{
		"server_cmd":      CatExec,
		"client_cmd":      CatExec,
		"set_user_flags":  CatPrivilege,
		"get_user_authid": CatIdentity,
		"socket_open":     CatNet,
		"SQL_ThreadQuery": CatSQL,
		"write_file":      CatFileExt,
		"set_pcvar_num":   CatCvar,
		"hash_string":     CatCrypto,
		"register_plugin": "",
		"get_user_name":   "",
		"server_print":    "",
	}
	for name, want := range tests {
		if got := ClassifyNative(name); got != want {
			t.Errorf("ClassifyNative(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity([]string{CatFileExt, CatSQL}); got != SeverityMedium {
		t.Errorf("got %s", got)
	}
	if got := MaxSeverity([]string{CatCvar, CatExec}); got != SeverityHigh {
		t.Errorf("got %s", got)
	}
	if got := MaxSeverity(nil); got != SeverityLow {
		t.Errorf("got %s", got)
	}
}

func TestBuildSignalGraph(t *testing.T) {
	funcs := []disasm.FuncRecord{
		{Addr: "0x0", Name: "plugin_init", Visibility: "public"},
		{Addr: "0x40", Name: "sub_0", Visibility: "stock"},
		{Addr: "0x80", Name: "sub_1", Visibility: "stock"},
		{Addr: "0xc0", Name: "sub_2", Visibility: "stock"},
	}
	edges := []disasm.CallEdgeRecord{
		{FromFunc: "plugin_init", Kind: disasm.EdgeSysreq, Target: "register_plugin", Argc: 3},
		{FromFunc: "plugin_init", Kind: disasm.EdgeCall, Target: "sub_0", Argc: -1},
		{FromFunc: "sub_0", Kind: disasm.EdgeSysreq, Target: "server_cmd", Argc: 1},
		{FromFunc: "sub_0", Kind: disasm.EdgeSysreq, Target: "server_cmd", Argc: 1},
		{FromFunc: "sub_2", Kind: disasm.EdgeSysreq, Target: "server_print", Argc: 1},
	}
	refs := []disasm.StringRefRecord{
		{Func: "sub_1", Addr: "0x84", Value: "http://example.com"},
		{Func: "sub_2", Addr: "0xc4", Value: "hello"},
	}

	g := BuildSignalGraph(funcs, edges, refs, 1)

	if g.Stats.SignalFuncs != 2 || g.Stats.ContextFuncs != 1 || g.Stats.TotalFuncs != 4 {
		t.Errorf("stats = %+v", g.Stats)
	}
	if g.Stats.Categories[CatExec] != 1 || g.Stats.Categories[CatURL] != 1 {
		t.Errorf("categories = %v", g.Stats.Categories)
	}
	if g.Stats.TotalEdges != 4 {
		t.Errorf("edges = %+v", g.Edges)
	}

	// sub_0 (high) sorts before sub_1 (medium); plugin_init is context.
	order := []string{"sub_0", "sub_1", "plugin_init", "sub_2"}
	roles := []string{"signal", "signal", "context", ""}
	for i, f := range g.Funcs {
		if f.Name != order[i] || f.Role != roles[i] {
			t.Errorf("funcs[%d] = %s/%q, want %s/%q", i, f.Name, f.Role, order[i], roles[i])
		}
	}
	if f := g.Funcs[0]; f.Severity != SeverityHigh || len(f.Natives) != 1 || f.Natives[0] != "server_cmd" {
		t.Errorf("sub_0 = %+v", f)
	}
	if !g.Funcs[2].IsEntryPoint {
		t.Error("plugin_init not marked as entry point")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unamxx/internal/amx"
	"unamxx/internal/amx/amxtest"
	"unamxx/internal/disasm"
)

func u(op disasm.Opcode) uint32 { return uint32(op) }

// writePlugin writes a one-function plugin calling server_print("hello")
// and returns its path.
func writePlugin(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.amxx")
	data := amxtest.Archive(amxtest.Section{CellSize: 4, Image: helloImage().Bytes()})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func helloImage() *amxtest.Image {
	return &amxtest.Image{
		Flags: uint16(amx.FlagNtvReg),
		Code: []uint32{
			u(disasm.OpHalt), 0,
			u(disasm.OpProc), // 8
			u(disasm.OpBreak),
			u(disasm.OpPushC), 0,
			u(disasm.OpPushC), 4,
			u(disasm.OpSysreqC), 0,
			u(disasm.OpStack), 8,
			u(disasm.OpZeroPri),
			u(disasm.OpRetn),
		},
		Data:    amxtest.Unpacked("hello"),
		Publics: []amxtest.Symbol{{Name: "plugin_init", Address: 8}},
		Natives: []amxtest.Symbol{{Name: "server_print"}},
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommands(t *testing.T) {
	plugin := writePlugin(t)

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"decompile", plugin}, []string{"public plugin_init () {\n  server_print(\"hello\");\n}\n"}},
		{[]string{"decompile", "--no-header", "--indent", "4", plugin}, []string{"    server_print(\"hello\");"}},
		{[]string{"disasm", plugin}, []string{"plugin_init:", "SYSREQ.C", "; server_print", `; "hello"`}},
		{[]string{"info", plugin}, []string{"version:   768", "flags:     NTVREG", "publics:   1"}},
		{[]string{"symbols", plugin}, []string{`"kind": "native"`, `"name": "server_print"`}},
		{[]string{"graph", plugin}, []string{"plugin_init", "server_print"}},
		{[]string{"signal", plugin}, []string{"0 of 1 functions carry signal"}},
		{[]string{"graph", "--style", "themed", plugin}, []string{"digraph callgraph {", "n_plugin_init -> n_server_print"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[:len(tt.args)-1], " "), func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in:\n%s", w, out)
				}
			}
			if strings.Contains(strings.Join(tt.args, " "), "--no-header") && strings.Contains(out, "//") {
				t.Errorf("header printed with --no-header:\n%s", out)
			}
		})
	}
}

func TestRawImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.amx")
	if err := os.WriteFile(path, helloImage().Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "decompile", "--raw", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `server_print("hello");`) {
		t.Errorf("decompile --raw:\n%s", out)
	}

	out, _, err = run(t, "info", "--raw", path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "sections:") || !strings.Contains(out, "flags:     NTVREG") {
		t.Errorf("info --raw:\n%s", out)
	}

	if _, _, err := run(t, "decompile", path); err == nil {
		t.Error("raw image accepted as a container")
	}
}

func TestDumpCommand(t *testing.T) {
	plugin := writePlugin(t)
	dir := t.TempDir()
	if _, _, err := run(t, "dump", "--out", dir, "--cbor", plugin); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"hello.sma", "asm.txt", "symbols.json", "functions.jsonl", "call_edges.jsonl", "string_refs.jsonl", "dump.cbor"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestConfigOverride(t *testing.T) {
	plugin := writePlugin(t)
	cfg := filepath.Join(filepath.Dir(plugin), "unamxx.toml")
	if err := os.WriteFile(cfg, []byte("[print]\nheader = false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "decompile", plugin)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(out, "//") {
		t.Errorf("config file ignored:\n%s", out)
	}

	if _, _, err := run(t, "decompile", "--mode", "bogus", plugin); err == nil {
		t.Error("invalid --mode accepted")
	}
}

func TestErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.amxx")
	if err := os.WriteFile(bad, []byte("not a plugin"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "decompile", bad); err == nil {
		t.Error("decompile of garbage succeeded")
	}
	if _, _, err := run(t, "graph", "--style", "nope", writePlugin(t)); err == nil {
		t.Error("unknown style accepted")
	}
	if _, _, err := run(t, "dump", writePlugin(t)); err == nil {
		t.Error("dump without --out succeeded")
	}
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"unamxx/internal/amxfmt"
	"unamxx/internal/charset"
	"unamxx/internal/config"
	"unamxx/internal/decompile"
)

// globalFlags are shared by every subcommand. Set flags override the
// config file.
type globalFlags struct {
	configPath string
	mode       string
	maxSteps   int
	charset    string
	raw        bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "unamxx",
		Short:         "AMX Mod X plugin decompiler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog complains unless the Go flag set has been parsed; its
			// flags were already filled in through pflag.
			return flag.CommandLine.Parse(nil)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default: "+config.FileName+" next to the input or above)")
	pf.StringVar(&g.mode, "mode", "", "parse mode: strict or best-effort")
	pf.IntVar(&g.maxSteps, "max-steps", 0, "instruction decode cap (0 = default)")
	pf.StringVar(&g.charset, "charset", "", "encoding of recovered strings")
	pf.BoolVar(&g.raw, "raw", false, "input is an inflated .amx image, not an .amxx container")
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newDecompileCmd(g),
		newDisasmCmd(g),
		newInfoCmd(g),
		newSymbolsCmd(g),
		newGraphCmd(g),
		newDumpCmd(g),
		newSignalCmd(g),
	)
	return root
}

// session is one loaded input with its effective settings.
type session struct {
	path string
	cfg  *config.Config
	dec  *charset.Decoder
	prog *decompile.Program
}

// load reads the config and the input file, then runs the pipeline up to
// disassembly.
func (g *globalFlags) load(cmd *cobra.Command, path string) (*session, error) {
	cfg, err := g.config(cmd.Flags(), path)
	if err != nil {
		return nil, err
	}
	dec, err := charset.Lookup(cfg.Decompile.Charset)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	load := decompile.Load
	if g.raw {
		load = decompile.LoadImage
	}
	prog, err := load(data, cfg.Options())
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("loaded %s: %d instructions", path, len(prog.Instructions))
	return &session{path: path, cfg: cfg, dec: dec, prog: prog}, nil
}

func (g *globalFlags) config(fs *pflag.FlagSet, input string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.FindAndLoad(filepath.Dir(input))
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		glog.V(1).Infof("using config %s", cfg.Path)
	}

	if fs.Changed("mode") {
		cfg.Decompile.Mode = g.mode
	}
	if fs.Changed("max-steps") {
		cfg.Decompile.MaxSteps = g.maxSteps
	}
	if fs.Changed("charset") {
		cfg.Decompile.Charset = g.charset
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reportDiags lists non-fatal problems found while loading.
func reportDiags(w io.Writer, d *amxfmt.Diags) {
	for _, item := range d.Items() {
		fmt.Fprintf(w, "warning: %s\n", item)
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

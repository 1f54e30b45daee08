package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"unamxx/internal/disasm"
	"unamxx/internal/output"
	"unamxx/internal/tree"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	var outDir string
	var withCBOR bool
	cmd := &cobra.Command{
		Use:   "dump <plugin.amxx>",
		Short: "Write source, listing, symbols and call records into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				return fmt.Errorf("--out is required")
			}
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("mkdir %s: %w", outDir, err)
			}
			p := s.prog
			t := p.Tree()
			natives := p.NativeNames()

			opts := tree.PrintOptions{
				Indent:     s.cfg.Print.Indent,
				EmitRaw:    s.cfg.Print.EmitRaw,
				Header:     s.cfg.Print.Header,
				DecodeText: s.dec.Decode,
			}
			if err := output.WriteSource(outDir, baseName(s.path), tree.Print(t, opts)); err != nil {
				return err
			}

			lookup := p.PublicLookup()
			if err := output.WriteASM(outDir, p.Instructions, lookup,
				disasm.NativeAnnotator(natives), disasm.CallAnnotator(lookup), disasm.ConstantAnnotator(s.textAt)); err != nil {
				return err
			}

			syms := output.Symbols(p.Publics, p.Natives)
			if err := output.WriteSymbolsJSON(outDir, syms); err != nil {
				return err
			}
			r := output.Collect(t, natives, s.dec.Decode)
			if err := output.WriteRecordsJSONL(outDir, r); err != nil {
				return err
			}
			if withCBOR {
				d := &output.Dump{
					Symbols:    syms,
					Functions:  r.Functions,
					CallEdges:  r.CallEdges,
					StringRefs: r.StringRefs,
				}
				if err := output.WriteDumpCBOR(outDir, d); err != nil {
					return err
				}
			}

			reportDiags(cmd.ErrOrStderr(), &p.Diags)
			fmt.Fprintf(cmd.ErrOrStderr(), "%d functions, %d call edges, %d strings -> %s\n",
				len(r.Functions), len(r.CallEdges), len(r.StringRefs), outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().BoolVar(&withCBOR, "cbor", false, "also write dump.cbor")
	return cmd
}

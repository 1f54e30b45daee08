package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"unamxx/internal/tree"
)

func newDecompileCmd(g *globalFlags) *cobra.Command {
	var (
		out      string
		indent   int
		noRaw    bool
		noHeader bool
	)
	cmd := &cobra.Command{
		Use:   "decompile <plugin.amxx>",
		Short: "Print approximate Pawn source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}

			opts := tree.PrintOptions{
				Indent:     s.cfg.Print.Indent,
				EmitRaw:    s.cfg.Print.EmitRaw,
				Header:     s.cfg.Print.Header,
				DecodeText: s.dec.Decode,
			}
			if cmd.Flags().Changed("indent") {
				opts.Indent = indent
			}
			if noRaw {
				opts.EmitRaw = false
			}
			if noHeader {
				opts.Header = false
			}

			src := tree.Print(s.prog.Tree(), opts)
			reportDiags(cmd.ErrOrStderr(), &s.prog.Diags)

			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), src)
				return err
			}
			if err := os.WriteFile(out, []byte(src), 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	f.IntVar(&indent, "indent", 2, "spaces per nesting level")
	f.BoolVar(&noRaw, "no-raw", false, "omit #emit lines for instructions left raw")
	f.BoolVar(&noHeader, "no-header", false, "omit the leading comment")
	return cmd
}

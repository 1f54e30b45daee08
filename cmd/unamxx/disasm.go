package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"unamxx/internal/amx"
	"unamxx/internal/disasm"
	"unamxx/internal/output"
)

func newDisasmCmd(g *globalFlags) *cobra.Command {
	var outDir string
	var noComments bool
	cmd := &cobra.Command{
		Use:   "disasm <plugin.amxx>",
		Short: "List the code section instruction by instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			p := s.prog
			lookup := p.PublicLookup()

			var annotators []disasm.Annotator
			if !noComments {
				annotators = []disasm.Annotator{
					disasm.NativeAnnotator(p.NativeNames()),
					disasm.CallAnnotator(lookup),
					disasm.ConstantAnnotator(s.textAt),
				}
			}
			reportDiags(cmd.ErrOrStderr(), &p.Diags)

			if outDir == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), disasm.Format(p.Instructions, lookup, annotators...))
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("mkdir %s: %w", outDir, err)
			}
			if err := output.WriteASM(outDir, p.Instructions, lookup, annotators...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d instructions to %s\n", len(p.Instructions), outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "write asm.txt into this directory instead of stdout")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "omit native, call and string comments")
	return cmd
}

// textAt comments a PUSH.C operand that resolves to a non-empty string.
func (s *session) textAt(arg uint32) string {
	c := s.prog.Image.ReadConstant(arg)
	if c.Kind != amx.ConstText || c.Text == "" {
		return ""
	}
	return strconv.Quote(s.dec.Decode(c.Text))
}

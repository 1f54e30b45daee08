package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"unamxx/internal/output"
)

func newSymbolsCmd(g *globalFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "symbols <plugin.amxx>",
		Short: "Print the public and native tables as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			syms := output.Symbols(s.prog.Publics, s.prog.Natives)

			if outDir == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(syms)
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("mkdir %s: %w", outDir, err)
			}
			return output.WriteSymbolsJSON(outDir, syms)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "write symbols.json into this directory instead of stdout")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"unamxx/internal/output"
	"unamxx/internal/signal"
)

func newSignalCmd(g *globalFlags) *cobra.Command {
	var hops int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "signal <plugin.amxx>",
		Short: "Flag functions that run commands, change privileges or reach the network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			r := output.Collect(s.prog.Tree(), s.prog.NativeNames(), s.dec.Decode)
			sg := signal.BuildSignalGraph(r.Functions, r.CallEdges, r.StringRefs, hops)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(sg)
			}
			fmt.Fprintf(w, "%d of %d functions carry signal, %d context\n",
				sg.Stats.SignalFuncs, sg.Stats.TotalFuncs, sg.Stats.ContextFuncs)
			for _, f := range sg.Funcs {
				if f.Role != "signal" {
					continue
				}
				fmt.Fprintf(w, "%-6s %-24s %s\n", f.Severity, f.Name, strings.Join(f.Categories, ","))
				for _, n := range f.Natives {
					fmt.Fprintf(w, "         native %s\n", n)
				}
				for _, ref := range f.StringRefs {
					fmt.Fprintf(w, "         %s %q\n", ref.Addr, ref.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hops, "hops", 1, "CALL hops around a signal function marked as context")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full signal graph as JSON")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"unamxx/internal/callgraph"
	"unamxx/internal/output"
	"unamxx/internal/render"
)

func newGraphCmd(g *globalFlags) *cobra.Command {
	var (
		out      string
		style    string
		title    string
		maxNodes int
	)
	cmd := &cobra.Command{
		Use:   "graph <plugin.amxx>",
		Short: "Render the call graph as Graphviz DOT",
		Long: `Render the call graph as Graphviz DOT.

Styles:
  plain      every function, native and CALL target as one node
  themed     publics outlined, natives clustered, edges colored by kind
  reachable  only functions reachable from a public through CALL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = baseName(s.path)
			}
			t := s.prog.Tree()
			natives := s.prog.NativeNames()

			var dot string
			switch style {
			case "plain":
				dot = callgraph.DOT(callgraph.BuildCallGraph(callgraph.FromTree(t, natives)), title)
			case "themed", "reachable":
				r := output.Collect(t, natives, s.dec.Decode)
				stats := render.ComputeStats(r.Functions, r.CallEdges)
				entries := render.FindEntryPoints(r.Functions)
				reach := render.ReachableSet(entries, r.CallEdges)
				fmt.Fprintf(cmd.ErrOrStderr(), "functions: %d (%d public), edges: %d call, %d native, %d indirect\n",
					stats.TotalFunctions, stats.PublicFunctions, stats.CallEdges, stats.NativeEdges, stats.IndirectEdges)
				if dead := render.Unreachable(r.Functions, reach); len(dead) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "unreachable: %s\n", strings.Join(dead, ", "))
				}
				if style == "themed" {
					dot = render.CallgraphDOT(r.Functions, r.CallEdges, title, render.NASA, maxNodes)
				} else {
					dot = render.ReachabilityDOT(r.CallEdges, reach, entries, title, render.NASA)
				}
			default:
				return fmt.Errorf("unknown graph style %q (use plain, themed or reachable)", style)
			}

			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}
			if err := os.WriteFile(out, []byte(dot), 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output .dot file (default: stdout)")
	f.StringVar(&style, "style", "plain", "plain, themed or reachable")
	f.StringVar(&title, "title", "", "graph title (default: input file name)")
	f.IntVar(&maxNodes, "max-nodes", 0, "max function nodes for the themed style (0 = all)")
	return cmd
}

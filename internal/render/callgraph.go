package render

import (
	"fmt"
	"sort"
	"strings"

	"unamxx/internal/disasm"
)

// indirectTarget labels SYSREQ.pri sites, whose native is chosen at run time.
const indirectTarget = "<sysreq.pri>"

// edgeColor returns the DOT color for an edge kind.
func edgeColor(kind string, t Theme) string {
	switch kind {
	case disasm.EdgeSysreq:
		return t.EdgeNative
	case disasm.EdgeSysreqPri:
		return t.EdgeIndirect
	default:
		return t.EdgeCall
	}
}

// edgeStyle returns dot style attributes for an edge kind.
func edgeStyle(kind string) string {
	switch kind {
	case disasm.EdgeSysreq:
		return "solid"
	case disasm.EdgeSysreqPri:
		return "dashed"
	default:
		return "bold"
	}
}

func edgeTarget(e disasm.CallEdgeRecord) string {
	if e.Kind == disasm.EdgeSysreqPri {
		return indirectTarget
	}
	return e.Target
}

type edgeKey struct {
	from, to, kind string
}

// CallgraphDOT renders a callgraph from functions and call edges as DOT.
// Plugin functions are boxes, publics outlined; natives are plaintext
// nodes grouped in one cluster. maxNodes limits the number of function
// nodes rendered (0 = all). Output is sorted so equal input renders equal.
func CallgraphDOT(funcs []disasm.FuncRecord, edges []disasm.CallEdgeRecord, title string, t Theme, maxNodes int) string {
	counts := make(map[edgeKey]int)
	for _, e := range edges {
		target := edgeTarget(e)
		if target == "" {
			continue
		}
		counts[edgeKey{e.FromFunc, target, e.Kind}]++
	}

	// Only functions that take part in an edge are drawn.
	refNodes := make(map[string]bool)
	for k := range counts {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	var renderFuncs []disasm.FuncRecord
	for _, f := range funcs {
		if refNodes[f.Name] {
			renderFuncs = append(renderFuncs, f)
		}
	}
	if maxNodes > 0 && len(renderFuncs) > maxNodes {
		renderFuncs = renderFuncs[:maxNodes]
	}
	funcSet := make(map[string]bool, len(renderFuncs))
	for _, f := range renderFuncs {
		funcSet[f.Name] = true
	}

	keys := make([]edgeKey, 0, len(counts))
	externals := make(map[string]bool)
	for k := range counts {
		if !funcSet[k.from] {
			continue
		}
		keys = append(keys, k)
		if !funcSet[k.to] {
			externals[k.to] = true
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.to != b.to {
			return a.to < b.to
		}
		return a.kind < b.kind
	})

	var b strings.Builder
	writeHeader(&b, "callgraph", title, t)

	for _, f := range renderFuncs {
		id := dotID(f.Name)
		label := truncLabel(f.Name, 60)
		switch {
		case f.Visibility == "public":
			fmt.Fprintf(&b, "  %s [label=%q, penwidth=1.5, color=%q];\n", id, label, t.PublicBorder)
		case strings.HasPrefix(f.Name, "sub_"):
			fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q];\n", id, label, t.StubFill)
		default:
			fmt.Fprintf(&b, "  %s [label=%q];\n", id, label)
		}
	}
	b.WriteByte('\n')

	if len(externals) > 0 {
		names := make([]string, 0, len(externals))
		for name := range externals {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("  subgraph cluster_natives {\n")
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">natives</font>>;\n", t.ClusterLabel)
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.ClusterBorder)
		for _, name := range names {
			fmt.Fprintf(&b, "    %s [label=%q, shape=plaintext, style=\"\", fillcolor=none, fontcolor=%q, fontsize=8];\n",
				dotID(name), truncLabel(name, 50), t.NativeText)
		}
		b.WriteString("  }\n\n")
	}

	for _, k := range keys {
		count := counts[k]
		color := edgeColor(k.kind, t)
		attrs := fmt.Sprintf("color=%q, style=%q", color, edgeStyle(k.kind))
		if count > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(count)*0.1)
			if count > 2 {
				attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%dx</font>>", color, count)
			}
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

// CallgraphStats are summary counts over call records.
type CallgraphStats struct {
	TotalFunctions  int
	PublicFunctions int
	TotalEdges      int
	CallEdges       int
	NativeEdges     int
	IndirectEdges   int
	TopCallers      []NameCount // sorted desc
	TopNatives      []NameCount // sorted desc
}

// NameCount pairs a name with a count.
type NameCount struct {
	Name  string
	Count int
}

// ComputeStats computes callgraph statistics from call records.
func ComputeStats(funcs []disasm.FuncRecord, edges []disasm.CallEdgeRecord) CallgraphStats {
	stats := CallgraphStats{
		TotalFunctions: len(funcs),
		TotalEdges:     len(edges),
	}
	for _, f := range funcs {
		if f.Visibility == "public" {
			stats.PublicFunctions++
		}
	}

	callerCount := make(map[string]int)
	nativeCount := make(map[string]int)
	for _, e := range edges {
		callerCount[e.FromFunc]++
		switch e.Kind {
		case disasm.EdgeCall:
			stats.CallEdges++
		case disasm.EdgeSysreq:
			stats.NativeEdges++
			if e.Target != "" {
				nativeCount[e.Target]++
			}
		case disasm.EdgeSysreqPri:
			stats.IndirectEdges++
		}
	}

	stats.TopCallers = topNMap(callerCount, 20)
	stats.TopNatives = topNMap(nativeCount, 20)
	return stats
}

// topNMap returns the top N entries from a map, sorted by count descending
// then name.
func topNMap(m map[string]int, n int) []NameCount {
	entries := make([]NameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, NameCount{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

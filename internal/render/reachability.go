package render

import (
	"fmt"
	"sort"
	"strings"

	"unamxx/internal/disasm"
)

// FindEntryPoints returns the public functions: the host only enters a
// plugin through its publics.
func FindEntryPoints(funcs []disasm.FuncRecord) []string {
	var entries []string
	for _, f := range funcs {
		if f.Visibility == "public" {
			entries = append(entries, f.Name)
		}
	}
	sort.Strings(entries)
	return entries
}

// ReachableSet performs BFS from entry points following CALL edges
// and returns the set of all reachable function names.
func ReachableSet(entryPoints []string, edges []disasm.CallEdgeRecord) map[string]bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		if e.Kind == disasm.EdgeCall && e.Target != "" {
			adj[e.FromFunc] = append(adj[e.FromFunc], e.Target)
		}
	}

	reachable := make(map[string]bool)
	queue := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if !reachable[ep] {
			reachable[ep] = true
			queue = append(queue, ep)
		}
	}

	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		for _, target := range adj[fn] {
			if !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}
	return reachable
}

// Unreachable lists the functions no public reaches, in input order.
func Unreachable(funcs []disasm.FuncRecord, reachable map[string]bool) []string {
	var out []string
	for _, f := range funcs {
		if !reachable[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}

// ReachabilityDOT renders the CALL graph restricted to the reachable set.
// Entry points are highlighted.
func ReachabilityDOT(edges []disasm.CallEdgeRecord, reachable map[string]bool, entryPoints []string, title string, t Theme) string {
	entrySet := make(map[string]bool, len(entryPoints))
	for _, ep := range entryPoints {
		entrySet[ep] = true
	}

	type edgeKey struct{ from, to string }
	edgeCount := make(map[edgeKey]int)
	for _, e := range edges {
		if e.Kind != disasm.EdgeCall || e.Target == "" {
			continue
		}
		if !reachable[e.FromFunc] || !reachable[e.Target] {
			continue
		}
		edgeCount[edgeKey{e.FromFunc, e.Target}]++
	}

	refNodes := make(map[string]bool)
	for k := range edgeCount {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	for _, ep := range entryPoints {
		refNodes[ep] = true
	}
	names := make([]string, 0, len(refNodes))
	for name := range refNodes {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]edgeKey, 0, len(edgeCount))
	for k := range edgeCount {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	var b strings.Builder
	writeHeader(&b, "reachable", title, t)

	for _, name := range names {
		id := dotID(name)
		label := truncLabel(name, 50)
		if entrySet[name] {
			fmt.Fprintf(&b, "  %s [label=%q, penwidth=1.5, color=%q];\n", id, label, t.PublicBorder)
		} else {
			fmt.Fprintf(&b, "  %s [label=%q];\n", id, label)
		}
	}
	b.WriteByte('\n')

	for _, k := range keys {
		attrs := fmt.Sprintf("color=%q", t.EdgeCall)
		if count := edgeCount[k]; count > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(count)*0.1)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

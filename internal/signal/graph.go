package signal

import (
	"sort"

	"unamxx/internal/disasm"
)

// ClassifiedStringRef is a string reference with its signal categories.
type ClassifiedStringRef struct {
	Func       string   `json:"func"`
	Addr       string   `json:"addr"`
	Value      string   `json:"value"`
	Categories []string `json:"categories,omitempty"`
}

// SignalFunc is a function in the signal graph.
type SignalFunc struct {
	Name         string                `json:"name"`
	Addr         string                `json:"addr"`
	Size         int                   `json:"size"`
	StringRefs   []ClassifiedStringRef `json:"string_refs,omitempty"`
	Natives      []string              `json:"natives,omitempty"` // natives that set a category
	Categories   []string              `json:"categories"`
	Severity     string                `json:"severity,omitempty"` // "high", "medium", "low"
	Role         string                `json:"role"`               // "signal", "context", ""
	IsEntryPoint bool                  `json:"is_entry_point,omitempty"`
}

// SignalEdge is an edge in the signal graph.
type SignalEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"` // disasm edge kind
}

// SignalGraph is the complete signal graph.
type SignalGraph struct {
	Funcs []SignalFunc `json:"funcs"`
	Edges []SignalEdge `json:"edges"`
	Stats SignalStats  `json:"stats"`
}

// SignalStats holds summary statistics.
type SignalStats struct {
	TotalFuncs     int            `json:"total_funcs"`
	SignalFuncs    int            `json:"signal_funcs"`
	ContextFuncs   int            `json:"context_funcs"`
	TotalEdges     int            `json:"total_edges"`
	StringRefCount int            `json:"string_ref_count"`
	Categories     map[string]int `json:"categories"` // functions per category
}

// BuildSignalGraph classifies every function from its string references and
// native calls, then marks functions up to k CALL hops away (either
// direction) as context. Publics are entry points.
func BuildSignalGraph(
	funcs []disasm.FuncRecord,
	edges []disasm.CallEdgeRecord,
	stringRefs []disasm.StringRefRecord,
	k int,
) *SignalGraph {
	type funcSignal struct {
		refs       []ClassifiedStringRef
		natives    []string
		categories map[string]bool
	}
	funcSignals := make(map[string]*funcSignal)
	get := func(name string) *funcSignal {
		fs, ok := funcSignals[name]
		if !ok {
			fs = &funcSignal{categories: make(map[string]bool)}
			funcSignals[name] = fs
		}
		return fs
	}

	for _, sr := range stringRefs {
		cats := ClassifyString(sr.Value)
		if len(cats) == 0 {
			continue
		}
		fs := get(sr.Func)
		fs.refs = append(fs.refs, ClassifiedStringRef{
			Func:       sr.Func,
			Addr:       sr.Addr,
			Value:      sr.Value,
			Categories: cats,
		})
		for _, c := range cats {
			fs.categories[c] = true
		}
	}
	for _, e := range edges {
		if e.Kind != disasm.EdgeSysreq || e.Target == "" {
			continue
		}
		cat := ClassifyNative(e.Target)
		if cat == "" {
			continue
		}
		fs := get(e.FromFunc)
		if !containsCat(fs.natives, e.Target) {
			fs.natives = append(fs.natives, e.Target)
		}
		fs.categories[cat] = true
	}

	signalSet := make(map[string]bool, len(funcSignals))
	catCounts := make(map[string]int)
	for name, fs := range funcSignals {
		signalSet[name] = true
		for c := range fs.categories {
			catCounts[c]++
		}
	}

	fwd := make(map[string][]string) // caller → callees
	rev := make(map[string][]string) // callee → callers
	for _, e := range edges {
		if e.Kind == disasm.EdgeCall && e.Target != "" {
			fwd[e.FromFunc] = append(fwd[e.FromFunc], e.Target)
			rev[e.Target] = append(rev[e.Target], e.FromFunc)
		}
	}

	// BFS k hops from signal functions.
	contextSet := make(map[string]bool)
	visited := make(map[string]bool)
	type queueItem struct {
		name  string
		depth int
	}
	var queue []queueItem
	for name := range signalSet {
		visited[name] = true
		queue = append(queue, queueItem{name, 0})
	}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth >= k {
			continue
		}
		for _, adj := range [][]string{fwd[item.name], rev[item.name]} {
			for _, next := range adj {
				if !visited[next] {
					visited[next] = true
					contextSet[next] = true
					queue = append(queue, queueItem{next, item.depth + 1})
				}
			}
		}
	}

	allFuncs := make([]SignalFunc, 0, len(funcs))
	for _, f := range funcs {
		sf := SignalFunc{
			Name:         f.Name,
			Addr:         f.Addr,
			Size:         f.Size,
			Categories:   []string{},
			IsEntryPoint: f.Visibility == "public",
		}
		if signalSet[f.Name] {
			sf.Role = "signal"
		} else if contextSet[f.Name] {
			sf.Role = "context"
		}
		if fs, ok := funcSignals[f.Name]; ok {
			sf.StringRefs = fs.refs
			sf.Natives = fs.natives
			for c := range fs.categories {
				sf.Categories = append(sf.Categories, c)
			}
			sort.Strings(sf.Categories)
			sf.Severity = MaxSeverity(sf.Categories)
		}
		allFuncs = append(allFuncs, sf)
	}

	// Signal, then context, then the rest. Within a role: entry points,
	// severity, category count, name.
	roleOrd := map[string]int{"signal": 0, "context": 1, "": 2}
	sevOrd := map[string]int{SeverityHigh: 0, SeverityMedium: 1, SeverityLow: 2, "": 3}
	sort.SliceStable(allFuncs, func(i, j int) bool {
		si, sj := &allFuncs[i], &allFuncs[j]
		if si.Role != sj.Role {
			return roleOrd[si.Role] < roleOrd[sj.Role]
		}
		if si.IsEntryPoint != sj.IsEntryPoint {
			return si.IsEntryPoint
		}
		if si.Severity != sj.Severity {
			return sevOrd[si.Severity] < sevOrd[sj.Severity]
		}
		if len(si.Categories) != len(sj.Categories) {
			return len(si.Categories) > len(sj.Categories)
		}
		return si.Name < sj.Name
	})

	var allEdges []SignalEdge
	seen := make(map[SignalEdge]bool)
	for _, e := range edges {
		if e.Target == "" {
			continue
		}
		se := SignalEdge{From: e.FromFunc, To: e.Target, Kind: e.Kind}
		if seen[se] {
			continue
		}
		seen[se] = true
		allEdges = append(allEdges, se)
	}

	return &SignalGraph{
		Funcs: allFuncs,
		Edges: allEdges,
		Stats: SignalStats{
			TotalFuncs:     len(funcs),
			SignalFuncs:    len(signalSet),
			ContextFuncs:   len(contextSet),
			TotalEdges:     len(allEdges),
			StringRefCount: len(stringRefs),
			Categories:     catCounts,
		},
	}
}

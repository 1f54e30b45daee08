package disasm

// FuncRecord is one line in functions.jsonl.
type FuncRecord struct {
	Addr       string `json:"addr"`
	Size       int    `json:"size"` // instructions, case records included
	Name       string `json:"name"`
	Visibility string `json:"visibility"` // "public" or "stock"
	Calls      int    `json:"calls,omitempty"`
}

// CallEdgeRecord is one line in call_edges.jsonl.
type CallEdgeRecord struct {
	FromFunc string `json:"from_func"`
	FromAddr string `json:"from_addr"`
	Kind     string `json:"kind"`             // "call", "sysreq" or "sysreq.pri"
	Target   string `json:"target,omitempty"` // resolved name or "0x..." for call
	Argc     int    `json:"argc"`
}

// StringRefRecord is one line in string_refs.jsonl.
type StringRefRecord struct {
	Func  string `json:"func"`
	Addr  string `json:"addr"`
	Value string `json:"value"` // decoded, unquoted
}

package disasm

// CallEdge is a call site found in one function's instructions.
type CallEdge struct {
	FromAddr   uint32 `json:"from_addr"`
	Kind       string `json:"kind"`                  // "call", "sysreq" or "sysreq.pri"
	TargetAddr uint32 `json:"target_addr,omitempty"` // CALL target
	TargetName string `json:"target_name,omitempty"`
	Argc       int    `json:"argc"` // from the preceding PUSH.C, -1 if unknown
}

const (
	EdgeCall      = "call"
	EdgeSysreq    = "sysreq"
	EdgeSysreqPri = "sysreq.pri"
)

// CallEdges extracts the call sites in insts. Native names come from natives
// by table index; CALL targets are named through funcs when it knows them.
func CallEdges(insts []Instruction, natives []string, funcs SymbolLookup) []CallEdge {
	var edges []CallEdge
	for i, inst := range insts {
		switch inst.Op {
		case OpCall:
			e := CallEdge{FromAddr: inst.Addr, Kind: EdgeCall, TargetAddr: inst.Arg, Argc: argcBefore(insts, i)}
			if funcs != nil {
				e.TargetName, _ = funcs(inst.Arg)
			}
			edges = append(edges, e)
		case OpSysreqC:
			e := CallEdge{FromAddr: inst.Addr, Kind: EdgeSysreq, Argc: argcBefore(insts, i)}
			if int64(inst.Arg) < int64(len(natives)) {
				e.TargetName = natives[inst.Arg]
			}
			edges = append(edges, e)
		case OpSysreqPri:
			edges = append(edges, CallEdge{FromAddr: inst.Addr, Kind: EdgeSysreqPri, Argc: argcBefore(insts, i)})
		}
	}
	return edges
}

// argcBefore reads the argument byte count pushed right before a call.
func argcBefore(insts []Instruction, i int) int {
	if i == 0 || insts[i-1].Op != OpPushC {
		return -1
	}
	return int(insts[i-1].Arg / 4)
}

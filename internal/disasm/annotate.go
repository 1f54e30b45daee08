package disasm

import "fmt"

// Annotator returns an optional inline comment for an instruction.
// Empty string means no annotation.
type Annotator func(inst Instruction) string

// NativeAnnotator names the native a SYSREQ.C calls. natives is in table order.
func NativeAnnotator(natives []string) Annotator {
	return func(inst Instruction) string {
		if inst.Op != OpSysreqC {
			return ""
		}
		if int64(inst.Arg) < int64(len(natives)) {
			return natives[inst.Arg]
		}
		return fmt.Sprintf("native #%d (out of range)", inst.Arg)
	}
}

// CallAnnotator names the target of a CALL or jump using lookup.
func CallAnnotator(lookup SymbolLookup) Annotator {
	return func(inst Instruction) string {
		if inst.Op != OpCall && !inst.Op.IsJump() {
			return ""
		}
		if name, ok := lookup(inst.Arg); ok {
			return "<" + name + ">"
		}
		return ""
	}
}

// ConstantAnnotator shows what a PUSH.C operand resolves to. resolve returns
// "" for operands that should stay uncommented.
func ConstantAnnotator(resolve func(arg uint32) string) Annotator {
	return func(inst Instruction) string {
		if inst.Op != OpPushC {
			return ""
		}
		return resolve(inst.Arg)
	}
}

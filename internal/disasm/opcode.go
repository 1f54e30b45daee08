package disasm

import "fmt"

// Opcode is an AMX VM instruction. Values 0..137 match the on-disk cell.
type Opcode uint32

const (
	OpNone Opcode = iota
	OpLoadPri
	OpLoadAlt
	OpLoadSPri
	OpLoadSAlt
	OpLrefPri
	OpLrefAlt
	OpLrefSPri
	OpLrefSAlt
	OpLoadI
	OpLodbI
	OpConstPri
	OpConstAlt
	OpAddrPri
	OpAddrAlt
	OpStorPri
	OpStorAlt
	OpStorSPri
	OpStorSAlt
	OpSrefPri
	OpSrefAlt
	OpSrefSPri
	OpSrefSAlt
	OpStorI
	OpStrbI
	OpLidx
	OpLidxB
	OpIdxaddr
	OpIdxaddrB
	OpAlignPri
	OpAlignAlt
	OpLctrl
	OpSctrl
	OpMovePri
	OpMoveAlt
	OpXchg
	OpPushPri
	OpPushAlt
	OpPushR
	OpPushC
	OpPush
	OpPushS
	OpPopPri
	OpPopAlt
	OpStack
	OpHeap
	OpProc
	OpRet
	OpRetn
	OpCall
	OpCallPri
	OpJump
	OpJrel
	OpJzer
	OpJnz
	OpJeq
	OpJneq
	OpJless
	OpJleq
	OpJgrtr
	OpJgeq
	OpJsless
	OpJsleq
	OpJsgrtr
	OpJsgeq
	OpShl
	OpShr
	OpSshr
	OpShlCPri
	OpShlCAlt
	OpShrCPri
	OpShrCAlt
	OpSmul
	OpSdiv
	OpSdivAlt
	OpUmul
	OpUdiv
	OpUdivAlt
	OpAdd
	OpSub
	OpSubAlt
	OpAnd
	OpOr
	OpXor
	OpNot
	OpNeg
	OpInvert
	OpAddC
	OpSmulC
	OpZeroPri
	OpZeroAlt
	OpZero
	OpZeroS
	OpSignPri
	OpSignAlt
	OpEq
	OpNeq
	OpLess
	OpLeq
	OpGrtr
	OpGeq
	OpSless
	OpSleq
	OpSgrtr
	OpSgeq
	OpEqCPri
	OpEqCAlt
	OpIncPri
	OpIncAlt
	OpInc
	OpIncS
	OpIncI
	OpDecPri
	OpDecAlt
	OpDec
	OpDecS
	OpDecI
	OpMovs
	OpCmps
	OpFill
	OpHalt
	OpBounds
	OpSysreqPri
	OpSysreqC
	OpFile
	OpLine
	OpSymbol
	OpSrange
	OpJumpPri
	OpSwitch
	OpCasetbl
	OpSwapPri
	OpSwapAlt
	OpPushAddr
	OpNop
	OpSysreqD
	OpSymtag
	OpBreak

	// Pseudo-opcodes synthesised while expanding a CASETBL. They never
	// appear in the instruction stream.
	OpCaseNone
	OpCase
	OpCaseJmp
)

// MaxOpcode is the highest value Decode accepts.
const MaxOpcode = OpBreak

var opNames = [...]string{
	OpNone:      "INVALID",
	OpLoadPri:   "LOAD.pri",
	OpLoadAlt:   "LOAD.alt",
	OpLoadSPri:  "LOAD.S.pri",
	OpLoadSAlt:  "LOAD.S.alt",
	OpLrefPri:   "LREF.pri",
	OpLrefAlt:   "LREF.alt",
	OpLrefSPri:  "LREF.S.pri",
	OpLrefSAlt:  "LREF.S.alt",
	OpLoadI:     "LOAD.I",
	OpLodbI:     "LODB.I",
	OpConstPri:  "CONST.pri",
	OpConstAlt:  "CONST.alt",
	OpAddrPri:   "ADDR.pri",
	OpAddrAlt:   "ADDR.alt",
	OpStorPri:   "STOR.pri",
	OpStorAlt:   "STOR.alt",
	OpStorSPri:  "STOR.S.pri",
	OpStorSAlt:  "STOR.S.alt",
	OpSrefPri:   "SREF.pri",
	OpSrefAlt:   "SREF.alt",
	OpSrefSPri:  "SREF.S.pri",
	OpSrefSAlt:  "SREF.S.alt",
	OpStorI:     "STOR.I",
	OpStrbI:     "STRB.I",
	OpLidx:      "LIDX",
	OpLidxB:     "LIDX.B",
	OpIdxaddr:   "IDXADDR",
	OpIdxaddrB:  "IDXADDR.B",
	OpAlignPri:  "ALIGN.pri",
	OpAlignAlt:  "ALIGN.alt",
	OpLctrl:     "LCTRL",
	OpSctrl:     "SCTRL",
	OpMovePri:   "MOVE.pri",
	OpMoveAlt:   "MOVE.alt",
	OpXchg:      "XCHG",
	OpPushPri:   "PUSH.pri",
	OpPushAlt:   "PUSH.alt",
	OpPushR:     "PUSH.R",
	OpPushC:     "PUSH.C",
	OpPush:      "PUSH",
	OpPushS:     "PUSH.S",
	OpPopPri:    "POP.pri",
	OpPopAlt:    "POP.alt",
	OpStack:     "STACK",
	OpHeap:      "HEAP",
	OpProc:      "PROC",
	OpRet:       "RET",
	OpRetn:      "RETN",
	OpCall:      "CALL",
	OpCallPri:   "CALL.pri",
	OpJump:      "JUMP",
	OpJrel:      "JREL",
	OpJzer:      "JZER",
	OpJnz:       "JNZ",
	OpJeq:       "JEQ",
	OpJneq:      "JNEQ",
	OpJless:     "JLESS",
	OpJleq:      "JLEQ",
	OpJgrtr:     "JGRTR",
	OpJgeq:      "JGEQ",
	OpJsless:    "JSLESS",
	OpJsleq:     "JSLEQ",
	OpJsgrtr:    "JSGRTR",
	OpJsgeq:     "JSGEQ",
	OpShl:       "SHL",
	OpShr:       "SHR",
	OpSshr:      "SSHR",
	OpShlCPri:   "SHL.C.pri",
	OpShlCAlt:   "SHL.C.alt",
	OpShrCPri:   "SHR.C.pri",
	OpShrCAlt:   "SHR.C.alt",
	OpSmul:      "SMUL",
	OpSdiv:      "SDIV",
	OpSdivAlt:   "SDIV.alt",
	OpUmul:      "UMUL",
	OpUdiv:      "UDIV",
	OpUdivAlt:   "UDIV.alt",
	OpAdd:       "ADD",
	OpSub:       "SUB",
	OpSubAlt:    "SUB.alt",
	OpAnd:       "AND",
	OpOr:        "OR",
	OpXor:       "XOR",
	OpNot:       "NOT",
	OpNeg:       "NEG",
	OpInvert:    "INVERT",
	OpAddC:      "ADD.C",
	OpSmulC:     "SMUL.C",
	OpZeroPri:   "ZERO.pri",
	OpZeroAlt:   "ZERO.alt",
	OpZero:      "ZERO",
	OpZeroS:     "ZERO.S",
	OpSignPri:   "SIGN.pri",
	OpSignAlt:   "SIGN.alt",
	OpEq:        "EQ",
	OpNeq:       "NEQ",
	OpLess:      "LESS",
	OpLeq:       "LEQ",
	OpGrtr:      "GRTR",
	OpGeq:       "GEQ",
	OpSless:     "SLESS",
	OpSleq:      "SLEQ",
	OpSgrtr:     "SGRTR",
	OpSgeq:      "SGEQ",
	OpEqCPri:    "EQ.C.pri",
	OpEqCAlt:    "EQ.C.alt",
	OpIncPri:    "INC.pri",
	OpIncAlt:    "INC.alt",
	OpInc:       "INC",
	OpIncS:      "INC.S",
	OpIncI:      "INC.I",
	OpDecPri:    "DEC.pri",
	OpDecAlt:    "DEC.alt",
	OpDec:       "DEC",
	OpDecS:      "DEC.S",
	OpDecI:      "DEC.I",
	OpMovs:      "MOVS",
	OpCmps:      "CMPS",
	OpFill:      "FILL",
	OpHalt:      "HALT",
	OpBounds:    "BOUNDS",
	OpSysreqPri: "SYSREQ.pri",
	OpSysreqC:   "SYSREQ.C",
	OpFile:      "FILE",
	OpLine:      "LINE",
	OpSymbol:    "SYMBOL",
	OpSrange:    "SRANGE",
	OpJumpPri:   "JUMP.pri",
	OpSwitch:    "SWITCH",
	OpCasetbl:   "CASETBL",
	OpSwapPri:   "SWAP.pri",
	OpSwapAlt:   "SWAP.alt",
	OpPushAddr:  "PUSH.ADR",
	OpNop:       "NOP",
	OpSysreqD:   "SYSREQ.D",
	OpSymtag:    "SYMTAG",
	OpBreak:     "BREAK",
	OpCaseNone:  "CASENONE",
	OpCase:      "CASE",
	OpCaseJmp:   "CASEJMP",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint32(op))
}

// opsWithArg lists the opcodes followed by exactly one operand cell.
// CASETBL is absent: its operands are expanded by the case table decoder.
var opsWithArg = [...]Opcode{
	OpLoadPri, OpLoadAlt, OpLoadSPri, OpLoadSAlt,
	OpLrefPri, OpLrefAlt, OpLrefSPri, OpLrefSAlt,
	OpLodbI, OpConstPri, OpConstAlt, OpAddrPri, OpAddrAlt,
	OpStorPri, OpStorAlt, OpStorSPri, OpStorSAlt,
	OpSrefPri, OpSrefAlt, OpSrefSPri, OpSrefSAlt,
	OpStrbI, OpLidxB, OpIdxaddrB, OpAlignPri, OpAlignAlt,
	OpLctrl, OpSctrl, OpPushR, OpPushC, OpPush, OpPushS,
	OpStack, OpHeap, OpCall, OpJump, OpJrel,
	OpJzer, OpJnz, OpJeq, OpJneq, OpJless, OpJleq, OpJgrtr, OpJgeq,
	OpJsless, OpJsleq, OpJsgrtr, OpJsgeq,
	OpShl, OpShr, OpSshr, OpShlCPri, OpShlCAlt, OpShrCPri, OpShrCAlt,
	OpAddC, OpSmulC, OpZero, OpZeroS, OpEqCPri, OpEqCAlt,
	OpInc, OpIncS, OpDec, OpDecS, OpMovs, OpCmps, OpFill,
	OpHalt, OpBounds, OpSysreqC, OpSwitch, OpPushAddr,
}

var hasArg [MaxOpcode + 1]bool

func init() {
	for _, op := range opsWithArg {
		hasArg[op] = true
	}
}

// HasArg reports whether op is followed by one operand cell in the stream.
func (op Opcode) HasArg() bool {
	return op <= MaxOpcode && hasArg[op]
}

// IsPseudo reports whether op is synthesised by the case table decoder.
func (op Opcode) IsPseudo() bool {
	return op >= OpCaseNone && op <= OpCaseJmp
}

// IsJump reports whether op's operand is a code address.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpJzer, OpJnz, OpJeq, OpJneq, OpJless, OpJleq, OpJgrtr, OpJgeq,
		OpJsless, OpJsleq, OpJsgrtr, OpJsgeq, OpSwitch, OpCaseNone, OpCaseJmp:
		return true
	}
	return false
}

// Decode maps a raw cell to an Opcode. Values above MaxOpcode are rejected;
// zero decodes to OpNone.
func Decode(raw uint32) (Opcode, bool) {
	if raw > uint32(MaxOpcode) {
		return 0, false
	}
	return Opcode(raw), true
}

// Package proto defines the compiled-unit contract the interpreter
// consumes: Prototype (constants, nested prototypes, compiled-call table,
// instruction stream), the Instruction/OpCode encoding, and the runtime
// Closure/Promise/Default/StackFrame wrappers that reference both a
// Prototype and an Environment.
//
// Grounded on the teacher's internal/bytecode.Chunk/Instruction/OpCode
// (a stack-VM instruction stream with a 32-bit packed encoding), adapted
// to spec.md section 4.C's register-oriented opcode groups. The teacher
// packs operands into one machine word for cache density; this port uses
// a plain struct of typed fields instead, matching spec.md's description
// of "three operand slots" without committing to a specific bit layout
// the spec never requires.
package proto

// OpCode is the interpreter's instruction tag, grouped per spec.md
// section 4.C.
type OpCode uint8

const (
	// Control
	OpCall OpCode = iota
	OpNCall
	OpRet
	OpJmp
	OpJc
	OpBranch
	OpUseMethod
	OpForBegin
	OpForEnd
	OpDone

	// Memory
	OpAssign
	OpAssign2 // superassign
	OpMov
	OpFastMov
	OpIAssign // x[i] <- v
	OpEAssign // x[[i]] <- v
	OpSubset
	OpSubset2
	OpDollar

	// Unary arithmetic/logical
	OpNeg
	OpNot
	OpIsNA
	OpIsFinite
	OpLog
	OpExp

	// Binary arithmetic/logical/comparison
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr

	// Ternary
	OpIfElse
	OpSplit

	// Vector construction
	OpSeq
	OpColon
	OpRep
	OpList
	OpType
	OpLength
	OpStrip

	// Introspection
	OpMissing
	OpFunction
	OpInternal

	// Constants
	OpConstant

	// Subscript gather/scatter (used by the recorder's gather/scatter
	// emission; the interpreter's generic Subset/IAssign handlers cover
	// the slow path, these are the specialized numeric-index fast path).
	OpGather
	OpScatter

	// Attribute access
	OpAttrGet
	OpAttrSet

	opCodeCount
)

var opCodeNames = [...]string{
	OpCall: "call", OpNCall: "ncall", OpRet: "ret", OpJmp: "jmp", OpJc: "jc",
	OpBranch: "branch", OpUseMethod: "usemethod", OpForBegin: "forbegin",
	OpForEnd: "forend", OpDone: "done",
	OpAssign: "assign", OpAssign2: "assign2", OpMov: "mov", OpFastMov: "fastmov",
	OpIAssign: "iassign", OpEAssign: "eassign", OpSubset: "subset",
	OpSubset2: "subset2", OpDollar: "dollar",
	OpNeg: "neg", OpNot: "not", OpIsNA: "is.na", OpIsFinite: "is.finite",
	OpLog: "log", OpExp: "exp",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpPow: "pow", OpEq: "eq", OpNeq: "neq", OpLt: "lt", OpLe: "le", OpGt: "gt",
	OpGe: "ge", OpAnd: "and", OpOr: "or",
	OpIfElse: "ifelse", OpSplit: "split",
	OpSeq: "seq", OpColon: "colon", OpRep: "rep", OpList: "list", OpType: "type",
	OpLength: "length", OpStrip: "strip",
	OpMissing: "missing", OpFunction: "function", OpInternal: "internal",
	OpConstant: "constant", OpGather: "gather", OpScatter: "scatter",
	OpAttrGet: "attrget", OpAttrSet: "attrset",
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) && opCodeNames[op] != "" {
		return opCodeNames[op]
	}
	return "unknown"
}

// IsRecordable reports whether the trace recorder (internal/trace) knows
// how to emit IR for this opcode; a false here is a trace-abort trigger
// per spec.md section 4.D.
func (op OpCode) IsRecordable() bool {
	switch op {
	case OpCall, OpNCall, OpUseMethod, OpInternal, OpFunction:
		// Calls into user/builtin code are not unrolled into the trace;
		// recording aborts rather than attempting cross-call IR (spec.md
		// section 4.D's UseMethod note: "if that is too complex, abort
		// the trace — acceptable behavior").
		return false
	default:
		return true
	}
}

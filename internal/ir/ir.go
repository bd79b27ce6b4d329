// Package ir implements the typed SSA-style intermediate representation
// the trace recorder emits into and the optimizer replays (spec.md
// section 3 "IR node" / section 4.E): a linear node buffer, guards with
// reenter records, Shape merging, and Exit records.
//
// No teacher analog exists (DWScript's bytecode.Optimizer folds constants
// in the existing stack-VM instruction stream rather than building a
// separate IR); this package is built fresh from spec.md section 3/4.D/
// 4.E, following the teacher's plain-struct, exported-field style
// (bytecode.Instruction) rather than introducing a class hierarchy.
package ir

import "github.com/tracevm/tracevm/internal/value"

// Op is an IR node's opcode. Distinct from proto.OpCode: the IR has
// typed casts, loads/stores keyed by Variable, phis, and guards that the
// bytecode opcode set has no equivalent of.
type Op uint8

const (
	// OpConstant materializes Constants[Imm] (an index into the trace's
	// constant pool) with no operands.
	OpConstant Op = iota

	// OpLoad reads the current value of a Variable (A encodes the
	// Variable via the node's Var field, not an operand slot); non-Nil
	// typed, per spec.md's "loads are non-Nil".
	OpLoad
	// OpSLoad is a load from the entry snapshot (pre-trace state),
	// distinguished from OpLoad (a load of a value written earlier in
	// this same trace) so the optimizer's loads map can tell "first
	// reference" apart from "forwarded store".
	OpSLoad
	// OpLEnv walks one step up Var's environment's lexical parent chain
	// (spec.md 4.D, "a lenv node"); A is the NodeRef of the environment
	// being walked.
	OpLEnv
	// OpEnvBase anchors the trace's entry-frame environment; the first
	// name-keyed environment access in a trace emits this once (it is
	// CSE-eligible, so later accesses reuse the same Ref) and every
	// OpLEnv step walks from it.
	OpEnvBase
	// OpStore writes B to Variable Var; Nil-typed (spec.md: "stores are
	// Nil-typed").
	OpStore

	// Casts
	OpCast // A = operand, ResultType = destination Kind

	// Arithmetic / comparison (A, B operands, typed per ResultType)
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
	OpNeg
	OpNot

	// Vector construction
	OpRep   // A = element, repeated to Out.ConcreteLength
	OpSeq   // A = len, B = step
	OpGather
	OpScatter

	// Guards: Nil-typed, Out Shape Empty (except OpGLen, whose Out holds
	// the length it checks), always carry a Reenter.
	OpGTrue  // A must be a true Logical scalar
	OpGFalse // A must be a false Logical scalar
	OpGLen   // A's length must equal Out.ConcreteLength (shape specialization)
	OpGShapeRange // A's length must lie in (0, B.ConcreteLength]; differing trace lengths merge
	OpGClass // A's class attribute must equal the immediate name id in Imm
	OpGNameBound // the walked environment must still lack Imm (speculative unbound guard)

	// OpPhi is a loop-carried value: A is the header (pass-1) definition,
	// B is the body (pass-2) definition that feeds the next iteration.
	OpPhi

	// OpExit ends a side-trace replay (spec.md 4.E "side-trace variant"):
	// replaces the final jmp with a reenter into the root trace's header.
	OpExit

	// OpJmpBack marks the loop-trace back-edge: "this trace's execution
	// reached the point where recording began again."
	OpJmpBack

	opCount
)

var opNames = [...]string{
	OpConstant: "constant", OpLoad: "load", OpSLoad: "sload", OpLEnv: "lenv", OpEnvBase: "envbase", OpStore: "store",
	OpCast: "cast",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod", OpPow: "pow",
	OpEq: "eq", OpNeq: "neq", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpAnd: "and", OpOr: "or", OpNeg: "neg", OpNot: "not",
	OpRep: "rep", OpSeq: "seq", OpGather: "gather", OpScatter: "scatter",
	OpGTrue: "gtrue", OpGFalse: "gfalse", OpGLen: "glen", OpGShapeRange: "gshaperange",
	OpGClass: "gclass", OpGNameBound: "gnamebound",
	OpPhi: "phi", OpExit: "exit", OpJmpBack: "jmpback",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}

// IsGuard reports whether op is a guard node: Nil-typed, Empty output
// Shape (OpGLen excepted: its Out holds the length it checks), and
// associated with a Reenter (spec.md section 3's IR invariants).
func (op Op) IsGuard() bool {
	switch op {
	case OpGTrue, OpGFalse, OpGLen, OpGShapeRange, OpGClass, OpGNameBound:
		return true
	default:
		return false
	}
}

// IsStore reports whether op is Nil-typed by definition (stores; spec.md
// "Stores are Nil-typed").
func (op Op) IsStore() bool {
	return op == OpStore
}

// Ref is a reference to a previously emitted node: its index in the
// owning Buffer. Per spec.md's IR invariants ("no cycles: operand
// references strictly precede the node"), a valid Ref is always < the
// index of the node referencing it, except Phi's B operand which may
// reference a node emitted later in the same pass (the loop body
// definition feeding back to the header).
type Ref int32

// NoRef marks an operand slot that refers to no node. It is not the zero
// value: a slot left unset in a Node literal holds 0, which refers to node 0.
const NoRef Ref = -1

// Variable names a trace-local storage slot (glossary: "Variable"):
// either an interpreter register (EnvRef == RegisterEnv) or a name in a
// specific environment reference.
type Variable struct {
	EnvRef Ref   // RegisterEnv for an interpreter register slot, else an env-producing node
	Name   int32 // interned name id (ignored when EnvRef == RegisterEnv) or register index
}

// RegisterEnv is the sentinel EnvRef value meaning "Name is a register
// index relative to the recording frame's base", per spec.md's "negative
// offset from interpreter base" register Variable convention.
const RegisterEnv Ref = -1

// Shape is the pair spec.md section 3 describes: a symbolic trace length
// (itself an IR reference producing the run-time length, NoRef if the
// shape has been fully specialized to a constant) and the concrete
// length observed when the node was recorded.
type Shape struct {
	TraceLength   Ref
	ConcreteLength int
}

// EmptyShape is the Shape of every store node and every guard but OpGLen (spec.md:
// "Guards ... output Shape Empty"; "Stores are Nil-typed").
var EmptyShape = Shape{TraceLength: NoRef, ConcreteLength: 0}

// Equal reports whether two shapes are equal per spec.md's rule: "two
// shapes are equal iff their traceLength references are equal."
func (s Shape) Equal(o Shape) bool {
	return s.TraceLength == o.TraceLength
}

// IsEmpty reports whether s is the Empty shape.
func (s Shape) IsEmpty() bool { return s.TraceLength == NoRef && s.ConcreteLength == 0 }

// Reenter identifies where and how the interpreter resumes after a guard
// failure (glossary: "Reenter").
type Reenter struct {
	PC      int
	InScope bool // true if resuming into a frame still on the interpreter's stack
}

// Node is one IR instruction (spec.md section 3 "IR node"): an opcode,
// three operand slots, a result type, input/output shapes, and the
// metadata (Variable, Reenter, immediate) particular ops attach.
type Node struct {
	Op         Op
	A, B, C    Ref
	Imm        int32 // constant-pool index (OpConstant), class/name id (OpGClass/OpGNameBound), or cast width tag
	ResultType value.Kind
	In         Shape
	Out        Shape

	Var     Variable // valid for OpLoad, OpSLoad, OpStore
	Reenter Reenter  // valid when Op.IsGuard() or Op == OpExit

	// Register is filled in by internal/regalloc; zero (unassigned)
	// until then.
	Register int
}

// cseKey is the hashable dedup key spec.md section 4.E names directly:
// "(op, a, b, c, type, in, out)".
type cseKey struct {
	op         Op
	a, b, c    Ref
	imm        int32
	resultType value.Kind
	in, out    Shape
}

func keyOf(n Node) cseKey {
	return cseKey{op: n.Op, a: n.A, b: n.B, c: n.C, imm: n.Imm, resultType: n.ResultType, in: n.In, out: n.Out}
}

// cseable reports whether a node's identity is purely a function of its
// operands/shapes/type — guards, stores, and phis carry extra positional
// or reenter state that would make deduping them unsound, and loads take
// their value from their Variable, which the key does not include.
func cseable(op Op) bool {
	switch op {
	case OpStore, OpPhi, OpExit, OpJmpBack, OpLoad, OpSLoad:
		return false
	default:
		return !op.IsGuard()
	}
}

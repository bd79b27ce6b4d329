// Package trace implements the Trace Recorder (spec.md section 4.D):
// on-stack replacement from the interpreter's JIT trigger, shadow-mode
// recording dispatch that emits internal/ir nodes alongside concretely
// re-deriving each instruction's result (so subsequent control-flow
// decisions inside the same recording are correct), lexical-chain
// walking for name-keyed Variables, and shape specialization.
//
// No teacher analog exists — DWScript's bytecode.Optimizer only
// constant-folds the existing instruction stream, it never builds a
// separate speculative IR — so this package is built fresh against
// spec.md section 4.D, following the teacher's plain-struct,
// errors-as-values style (internal/bytecode's vm_exec.go) rather than a
// visitor/callback design.
package trace

import (
	"github.com/tracevm/tracevm/internal/config"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// Recording is the raw output of one Record call (spec.md 4.D's
// "Output: a raw linear IR plus the set of guard-reenter records" — the
// reenter records themselves live on each guard Node, so Recording only
// needs the Buffer and the termination reason).
type Recording struct {
	Buffer  *ir.Buffer
	Reason  AbortReason
	StartPC int
	LoopPC  int // == StartPC when Reason == NoAbort (a loop trace)
}

// Recorder holds the tuning that bounds a single recording attempt
// (SPEC_FULL.md section 3.3's specialization threshold) and the
// outcome of the most recent Record call (SPEC_FULL.md section 4.D's
// Recorder.Reason() supplement).
type Recorder struct {
	cfg        config.TuningConfig
	maxNodes   int
	lastReason AbortReason
}

// NewRecorder builds a Recorder from the pipeline's tuning config.
func NewRecorder(cfg config.TuningConfig) *Recorder {
	return &Recorder{cfg: cfg, maxNodes: 4096}
}

// Reason reports why the most recent Record call ended.
func (r *Recorder) Reason() AbortReason { return r.lastReason }

// shadow is the recording-in-progress state: the slot cache (spec.md
// 4.D, one map from Variable to its current producing IR reference,
// shared by both register- and environment-keyed Variables), the
// concrete values needed to evaluate control flow during recording, and
// the lazily-emitted environment-base node.
type shadow struct {
	th   *interp.Thread
	buf  *ir.Buffer
	cfg  config.TuningConfig
	slot map[ir.Variable]ir.Ref
	conc map[ir.Variable]value.Value
	envBase ir.Ref
	pc      int
	budget  int
}

// Record runs the recorder starting at startPC until it reaches the
// loop back-edge (success), hits a non-recordable or unimplemented
// opcode (abort), or exceeds its node budget (bailout).
func (r *Recorder) Record(th *interp.Thread, startPC int) *Recording {
	s := &shadow{
		th:      th,
		buf:     ir.NewBuffer(),
		cfg:     r.cfg,
		slot:    make(map[ir.Variable]ir.Ref),
		conc:    make(map[ir.Variable]value.Value),
		envBase: ir.NoRef,
		pc:      startPC,
		budget:  r.maxNodes,
	}

	code := th.CurrentProto().Code
	first := true
	for {
		if s.pc == startPC && !first {
			s.buf.Emit(ir.Node{Op: ir.OpJmpBack, Out: ir.EmptyShape})
			r.lastReason = NoAbort
			return &Recording{Buffer: s.buf, Reason: NoAbort, StartPC: startPC, LoopPC: startPC}
		}
		first = false

		if s.pc < 0 || s.pc >= len(code) {
			r.lastReason = Unsupported
			return &Recording{Buffer: s.buf, Reason: Unsupported, StartPC: startPC, LoopPC: s.pc}
		}
		if s.buf.Len() > s.budget {
			r.lastReason = Bailout
			return &Recording{Buffer: s.buf, Reason: Bailout, StartPC: startPC, LoopPC: s.pc}
		}

		inst := code[s.pc]
		if !inst.Op.IsRecordable() {
			r.lastReason = NonRecordable
			return &Recording{Buffer: s.buf, Reason: NonRecordable, StartPC: startPC, LoopPC: s.pc}
		}

		reason, handled := s.step(inst)
		if !handled {
			r.lastReason = reason
			return &Recording{Buffer: s.buf, Reason: reason, StartPC: startPC, LoopPC: s.pc}
		}
	}
}

// regVar/envVarOf build the Variable keys the slot cache indexes by.
func regVar(r int) ir.Variable { return ir.Variable{EnvRef: ir.RegisterEnv, Name: int32(r)} }

// valueOf returns the IR reference currently representing v's value,
// emitting an sload (the "first reference this recording" case) if the
// slot cache has no entry yet.
func (s *shadow) valueOf(v ir.Variable, concrete value.Value) ir.Ref {
	if ref, ok := s.slot[v]; ok {
		return ref
	}
	ref := s.buf.Emit(ir.Node{
		Op:         ir.OpSLoad,
		Var:        v,
		ResultType: concrete.Kind,
		Out:        ir.Shape{ConcreteLength: concrete.Length()},
	})
	s.slot[v] = ref
	s.conc[v] = concrete
	return ref
}

// store updates the slot cache and concrete map for v and emits an
// OpStore bookkeeping node (consumed by ir.Replay's load/store
// forwarding — see internal/ir/replay.go).
func (s *shadow) store(v ir.Variable, ref ir.Ref, concrete value.Value) {
	s.slot[v] = ref
	s.conc[v] = concrete
	s.buf.Emit(ir.Node{Op: ir.OpStore, B: ref, Var: v})
}

// regRef reads register r's current concrete value from the Thread (the
// real, authoritative value — recording never mutates it) and returns
// its producing IR reference, sloading on first reference.
func (s *shadow) regRef(r int) (ir.Ref, value.Value) {
	v := s.th.Register(r)
	return s.valueOf(regVar(r), v), v
}

// envBaseRef lazily emits the trace's entry-environment anchor.
func (s *shadow) envBaseRef() ir.Ref {
	if s.envBase == ir.NoRef {
		s.envBase = s.buf.Emit(ir.Node{Op: ir.OpEnvBase, Out: ir.EmptyShape})
	}
	return s.envBase
}

// resolveName walks th.CurrentEnv()'s lexical chain looking for nameID,
// emitting one OpGNameBound speculation guard per level found unbound
// and one OpLEnv step to walk up, per spec.md 4.D: "each walked step
// emits a lenv node and a speculation load(env, name) guard that the
// name is still unbound; the chain terminates when a binding is found."
func (s *shadow) resolveName(nameID int32) (ir.Variable, value.Value) {
	envRef := s.envBaseRef()
	level := s.th.CurrentEnv()
	for {
		v := level.Get(nameID)
		if v.Kind != value.KindNil {
			return ir.Variable{EnvRef: envRef, Name: nameID}, v
		}
		s.buf.Emit(ir.Node{
			Op: ir.OpGNameBound, A: envRef, Imm: nameID, Out: ir.EmptyShape,
			Reenter: ir.Reenter{PC: s.pc, InScope: true},
		})
		if level.Lexical == nil {
			return ir.Variable{EnvRef: envRef, Name: nameID}, value.Nil()
		}
		envRef = s.buf.Emit(ir.Node{Op: ir.OpLEnv, A: envRef, Out: ir.EmptyShape})
		level = level.Lexical
	}
}

var binIR = map[proto.OpCode]ir.Op{
	proto.OpAdd: ir.OpAdd, proto.OpSub: ir.OpSub, proto.OpMul: ir.OpMul,
	proto.OpDiv: ir.OpDiv, proto.OpMod: ir.OpMod, proto.OpPow: ir.OpPow,
	proto.OpEq: ir.OpEq, proto.OpNeq: ir.OpNeq, proto.OpLt: ir.OpLt,
	proto.OpLe: ir.OpLe, proto.OpGt: ir.OpGt, proto.OpGe: ir.OpGe,
	proto.OpAnd: ir.OpAnd, proto.OpOr: ir.OpOr,
}

var binValue = map[proto.OpCode]value.BinOp{
	proto.OpAdd: value.OpAdd, proto.OpSub: value.OpSub, proto.OpMul: value.OpMul,
	proto.OpDiv: value.OpDiv, proto.OpMod: value.OpMod, proto.OpPow: value.OpPow,
	proto.OpEq: value.OpEq, proto.OpNeq: value.OpNeq, proto.OpLt: value.OpLt,
	proto.OpLe: value.OpLe, proto.OpGt: value.OpGt, proto.OpGe: value.OpGe,
	proto.OpAnd: value.OpAnd, proto.OpOr: value.OpOr,
}

// step records one instruction and concretely re-derives its result so
// later instructions in this recording see correct values; it reports
// whether recording can continue (handled) and, if not, why.
func (s *shadow) step(inst proto.Instruction) (reason AbortReason, handled bool) {
	switch {
	case inst.Op == proto.OpConstant:
		k := s.th.CurrentProto().Constants[int(inst.B)]
		ref := s.buf.Const(k)
		s.store(regVar(inst.A.Register()), ref, k)
		s.pc++
		return NoAbort, true

	case inst.Op == proto.OpMov || inst.Op == proto.OpFastMov || inst.Op == proto.OpAssign || inst.Op == proto.OpAssign2:
		ref, v := s.operandRef(inst.B)
		s.store(regVar(inst.A.Register()), ref, v)
		s.pc++
		return NoAbort, true

	case isBinArith(inst.Op):
		refB, vb := s.operandRef(inst.B)
		refC, vc := s.operandRef(inst.C)
		shapeB := ir.Shape{ConcreteLength: vb.Length()}
		shapeC := ir.Shape{ConcreteLength: vc.Length()}
		merged := ir.MergeShapes(s.buf, refB, shapeB, refC, shapeC)
		result := value.BinaryVector(binValue[inst.Op], vb, vc, s.th.Interner())
		ref := s.buf.Emit(ir.Node{Op: binIR[inst.Op], A: refB, B: refC, ResultType: result.Kind, Out: merged})
		s.store(regVar(inst.A.Register()), ref, result)
		s.pc++
		return NoAbort, true

	case inst.Op == proto.OpNeg || inst.Op == proto.OpNot:
		return Unsupported, false // the recorder has no emission rule for unary neg/not; abort rather than mis-emit

	case inst.Op == proto.OpSeq:
		lenRef, lenV := s.operandRef(inst.B)
		stepRef, _ := s.operandRef(inst.C)
		n := 0
		if lenV.Length() > 0 {
			n = int(lenV.IntegerAt(0))
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(i)
		}
		ref := s.buf.Emit(ir.Node{Op: ir.OpSeq, A: lenRef, B: stepRef, ResultType: value.KindDouble, Out: ir.Shape{ConcreteLength: n}})
		s.store(regVar(inst.A.Register()), ref, value.DoubleVector(out))
		s.pc++
		return NoAbort, true

	case inst.Op == proto.OpJc:
		condRef, cond := s.operandRef(inst.B)
		taken := cond.Kind == value.KindLogical && cond.Length() > 0 && cond.Logical(0) == value.LogicalTrue
		notTakenPC := s.pc + 1
		if taken {
			notTakenPC = int(inst.A)
		}
		g := ir.OpGTrue
		if !taken {
			g = ir.OpGFalse
		}
		s.buf.Emit(ir.Node{Op: g, A: condRef, Out: ir.EmptyShape, Reenter: ir.Reenter{PC: notTakenPC, InScope: true}})
		if taken {
			s.pc++
		} else {
			s.pc = int(inst.A)
		}
		return NoAbort, true

	case inst.Op == proto.OpForBegin:
		refB, vb := s.operandRef(inst.B)
		n := vb.Length()
		counter := value.IntegerVector(make([]int64, n))
		s.store(regVar(inst.A.Register()), refB, counter) // forbegin emits nothing itself (spec.md 4.D)
		s.pc++
		return NoAbort, true

	case inst.Op == proto.OpForEnd:
		counterRef, counter := s.operandRef(inst.A)
		n := counter.Length()
		cur := int64(0)
		if n > 0 {
			cur = counter.IntegerAt(0)
		}
		cur++
		continueLoop := int(cur) < n
		reenter := s.pc + 1
		if continueLoop {
			reenter = int(inst.B)
		}
		s.buf.Emit(ir.Node{Op: ir.OpGLen, A: counterRef, Out: ir.Shape{ConcreteLength: n}, Reenter: ir.Reenter{PC: reenter, InScope: true}})
		oneRef := s.buf.Const(value.Integer(1))
		addRef := s.buf.Emit(ir.Node{Op: ir.OpAdd, A: counterRef, B: oneRef, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: n}})
		// Advance the counter in a private copy — counter aliases the
		// real Thread's register slice, and recording must never mutate
		// live interpreter state.
		updated := cloneIntegerVector(counter)
		if n > 0 {
			updated.SetInteger(0, cur)
		}
		s.store(regVar(inst.A.Register()), addRef, updated)
		if continueLoop {
			s.pc = int(inst.B)
		} else {
			s.pc++
		}
		return NoAbort, true

	default:
		return Unsupported, false
	}
}

// operandRef resolves a proto.Operand to its IR reference and concrete
// value, handling both register and name operands.
func (s *shadow) operandRef(op proto.Operand) (ir.Ref, value.Value) {
	if op.IsRegister() {
		return s.regRef(op.Register())
	}
	v, concrete := s.resolveName(op.Name())
	return s.valueOf(v, concrete), concrete
}

func isBinArith(op proto.OpCode) bool {
	_, ok := binIR[op]
	return ok
}

// cloneIntegerVector copies v's elements into a fresh backing array so the
// ForEnd counter can be advanced in the shadow's own bookkeeping without
// aliasing the live Thread register v was read from.
func cloneIntegerVector(v value.Value) value.Value {
	n := v.Length()
	elems := make([]int64, n)
	for i := 0; i < n; i++ {
		elems[i] = v.IntegerAt(i)
	}
	return value.IntegerVector(elems)
}

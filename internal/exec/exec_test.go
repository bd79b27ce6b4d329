package exec

import (
	"testing"

	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// buildSumTrace hand-builds the optimized IR a loop-sum trace ("s = s +
// i" guarded by the ForEnd length check) would replay to: two register
// sloads, an add, and a counter sload. Register layout matches
// internal/trace's recorder_test.go: r0 = s, r1 = i, r2 = counter.
func buildSumTrace() (buf *ir.Buffer, r0, addRef, counterRef ir.Ref) {
	buf = ir.NewBuffer()
	r0 = buf.Emit(ir.Node{Op: ir.OpSLoad, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 0}, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	r1 := buf.Emit(ir.Node{Op: ir.OpSLoad, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 1}, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	addRef = buf.Emit(ir.Node{Op: ir.OpAdd, A: r0, B: r1, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	counterRef = buf.Emit(ir.Node{Op: ir.OpSLoad, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 2}, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 3}})
	return buf, r0, addRef, counterRef
}

func TestTileInterpreterRunCompletesAndSeedsPhi(t *testing.T) {
	buf, r0, addRef, counterRef := buildSumTrace()
	buf.Emit(ir.Node{Op: ir.OpGLen, A: counterRef, Out: ir.Shape{ConcreteLength: 3}, Reenter: ir.Reenter{PC: 10}})
	phiRef := buf.Emit(ir.Node{Op: ir.OpPhi, A: r0, B: addRef, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 0}, Out: ir.EmptyShape})

	opt := &ir.Optimized{Buffer: buf}
	trace := NewTrace(opt, nil, nil)
	entry := EntryState{
		Registers: []value.Value{value.Integer(1), value.Integer(2), value.IntegerVector([]int64{0, 0, 0})},
	}

	ti := NewTileInterpreter(4)
	result, frame, err := ti.Run(trace, entry)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Completed {
		t.Fatalf("Completed = false (exited at ref %d), want true", result.ExitRef)
	}

	if got := frame.ValueAt(addRef); got.IntegerAt(0) != 3 {
		t.Errorf("s+i = %d, want 3", got.IntegerAt(0))
	}
	if got := frame.ValueAt(phiRef); got.Kind != value.KindNil {
		t.Errorf("phi node produced a value %v, want none (phi only seeds r0)", got)
	}
	if got := frame.ValueAt(r0); got.IntegerAt(0) != 3 {
		t.Errorf("phi did not seed the header ref: ValueAt(r0) = %d, want 3", got.IntegerAt(0))
	}
}

func TestTileInterpreterRunStopsAtGuardFailure(t *testing.T) {
	buf, _, _, counterRef := buildSumTrace()
	// A length guard that can never hold against a 3-element counter:
	// this must be the ref Run reports as the exit.
	guardRef := buf.Emit(ir.Node{Op: ir.OpGLen, A: counterRef, Out: ir.Shape{ConcreteLength: 99}, Reenter: ir.Reenter{PC: 10}})

	opt := &ir.Optimized{Buffer: buf}
	trace := NewTrace(opt, nil, nil)
	entry := EntryState{
		Registers: []value.Value{value.Integer(1), value.Integer(2), value.IntegerVector([]int64{0, 0, 0})},
	}

	ti := NewTileInterpreter(4)
	result, frame, err := ti.Run(trace, entry)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Completed {
		t.Fatal("Completed = true, want false (guard must fail)")
	}
	if result.ExitRef != guardRef {
		t.Errorf("ExitRef = %d, want %d", result.ExitRef, guardRef)
	}
	if frame == nil {
		t.Fatal("Run returned a nil Frame on guard failure, want the partially-computed Frame")
	}
}

func TestTileInterpreterTilesAcrossMultipleChunks(t *testing.T) {
	buf := ir.NewBuffer()
	a := buf.Emit(ir.Node{Op: ir.OpSLoad, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 0}, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 10}})
	seqRef := buf.Emit(ir.Node{Op: ir.OpSeq, A: a, Out: ir.Shape{ConcreteLength: 10}})

	opt := &ir.Optimized{Buffer: buf}
	trace := NewTrace(opt, nil, nil)
	entry := EntryState{
		Registers: []value.Value{value.IntegerVector(make([]int64, 10))},
	}

	// TileWidth smaller than the vector length forces runTile to be
	// called more than once for seqRef, exercising the [start,end)
	// chunked construction path instead of a single whole-vector pass.
	ti := NewTileInterpreter(3)
	result, frame, err := ti.Run(trace, entry)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Completed {
		t.Fatalf("Completed = false (exit %d), want true", result.ExitRef)
	}
	got := frame.ValueAt(seqRef)
	if got.Length() != 10 {
		t.Fatalf("seq length = %d, want 10", got.Length())
	}
	for i := 0; i < 10; i++ {
		if got.DoubleAt(i) != float64(i) {
			t.Errorf("seq[%d] = %v, want %d", i, got.DoubleAt(i), i)
		}
	}
}

// buildProbeProto lays out a trivial prototype whose only purpose is to
// give a probe builtin a live *interp.Thread with an active frame to
// restore registers and resume PC against — the same harness
// internal/trace's recorder_test.go uses to exercise code that needs a
// running Thread rather than a freshly constructed one.
func buildProbeProto(probeID int32) *proto.Prototype {
	p := &proto.Prototype{
		NumSlots:  2,
		Constants: []value.Value{value.Integer(0)},
	}
	p.Code = []proto.Instruction{
		{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: proto.Operand(0)},
		{Op: proto.OpInternal, A: proto.RegisterOperand(1), B: proto.NameOperand(probeID), C: proto.Operand(0)},
		{Op: proto.OpRet, A: proto.RegisterOperand(0)},
	}
	return p
}

func TestWriteBackRestoresRegisterAndResumesPC(t *testing.T) {
	th := interp.NewThread()
	probeID := th.Interner().Intern("probe")
	p := buildProbeProto(probeID)

	buf := ir.NewBuffer()
	valRef := buf.Const(value.Integer(42))

	exit := ir.NewExit(0)
	exit.RecordStore(ir.Variable{EnvRef: ir.RegisterEnv, Name: 0}, valRef)
	exit.Reenter = ir.Reenter{PC: 2}

	var invoked bool
	var gotReg value.Value
	var gotPC int
	th.RegisterBuiltin("probe", func(th *interp.Thread, call *proto.CallInfo, args []value.Value) (value.Value, error) {
		invoked = true
		frame := &Frame{buf: buf, vals: []value.Value{buf.Constants[0]}}
		WriteBack(th, exit, frame)
		gotReg = th.Register(0)
		gotPC = th.CurrentPC()
		return value.Null(), nil
	})

	if _, err := th.Eval(p, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !invoked {
		t.Fatal("probe builtin was never invoked")
	}
	if gotReg.IntegerAt(0) != 42 {
		t.Errorf("register 0 after WriteBack = %v, want 42", gotReg)
	}
	if gotPC != 2 {
		t.Errorf("CurrentPC after WriteBack = %d, want 2 (the exit's Reenter.PC)", gotPC)
	}
}

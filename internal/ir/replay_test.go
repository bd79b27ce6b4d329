package ir

import (
	"testing"

	"github.com/tracevm/tracevm/internal/value"
)

// buildLoopTrace builds a minimal raw trace resembling the "simple loop
// sum" scenario (spec.md section 8.1): load s, load i, add, store s,
// guard the loop bound, jump back.
func buildLoopTrace() *Buffer {
	b := NewBuffer()
	sVar := Variable{EnvRef: RegisterEnv, Name: 0}
	iVar := Variable{EnvRef: RegisterEnv, Name: 1}

	loadS := b.Emit(Node{Op: OpSLoad, Var: sVar, ResultType: value.KindInteger})
	loadI := b.Emit(Node{Op: OpSLoad, Var: iVar, ResultType: value.KindInteger})
	sum := b.Emit(Node{Op: OpAdd, A: loadS, B: loadI, ResultType: value.KindInteger})
	b.Emit(Node{Op: OpStore, B: sum, Var: sVar})
	g := b.Emit(Node{Op: OpGTrue, A: loadI, Out: EmptyShape, Reenter: Reenter{PC: 3, InScope: true}})
	_ = g
	b.Emit(Node{Op: OpJmpBack})
	return b
}

func TestReplayForwardsLoadsAndDedupsConstants(t *testing.T) {
	raw := NewBuffer()
	k1 := raw.Const(value.Integer(1))
	k2 := raw.Const(value.Integer(1)) // same value, must CSE to k1 even before replay
	if k1 != k2 {
		t.Fatalf("Buffer.Emit failed to CSE identical constants: %d != %d", k1, k2)
	}

	opt := Replay(raw)
	if len(opt.Buffer.Constants) != 1 {
		t.Errorf("Constants = %d, want 1 (deduped)", len(opt.Buffer.Constants))
	}
}

func TestReplayInsertsPhiForLoopCarriedStore(t *testing.T) {
	raw := buildLoopTrace()
	opt := Replay(raw)

	found := false
	for _, n := range opt.Buffer.Nodes {
		if n.Op == OpPhi {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a phi node for the loop-carried store to s, got none in %d nodes", len(opt.Buffer.Nodes))
	}
}

func TestReplayCapturesExitAtGuard(t *testing.T) {
	raw := buildLoopTrace()
	opt := Replay(raw)

	if len(opt.Exits) == 0 {
		t.Fatalf("expected at least one captured Exit")
	}
	for ref, exit := range opt.Exits {
		if !exit.Valid(opt.Buffer) {
			t.Errorf("exit at guard %d has an invalid live-store reference", ref)
		}
	}
}

func TestReplayIsIdempotent(t *testing.T) {
	raw := buildLoopTrace()
	opt := Replay(raw)
	if !opt.Idempotent() {
		t.Errorf("Replay is not a fixed point on already-optimized IR")
	}
}

func TestMergeShapesCommutative(t *testing.T) {
	b1 := NewBuffer()
	b2 := NewBuffer()
	a := Shape{TraceLength: 1, ConcreteLength: 2}
	c := Shape{TraceLength: 2, ConcreteLength: 5}

	m1 := MergeShapes(b1, 0, a, 1, c)
	m2 := MergeShapes(b2, 1, c, 0, a)
	if m1 != m2 {
		t.Errorf("MergeShapes(a,c) = %+v, MergeShapes(c,a) = %+v, want equal", m1, m2)
	}
}

func TestMergeShapesSameTraceLengthTakesSmaller(t *testing.T) {
	b := NewBuffer()
	a := Shape{TraceLength: 7, ConcreteLength: 10}
	c := Shape{TraceLength: 7, ConcreteLength: 3}
	got := MergeShapes(b, 0, a, 1, c)
	if got.ConcreteLength != 3 {
		t.Errorf("ConcreteLength = %d, want 3 (the smaller)", got.ConcreteLength)
	}
}

package regalloc

import (
	"testing"

	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/value"
)

func TestAssignSeparatesWideningCastOperandFromResult(t *testing.T) {
	b := ir.NewBuffer()
	src := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindLogical, Out: ir.Shape{ConcreteLength: 4}})
	cast := b.Emit(ir.Node{Op: ir.OpCast, A: src, ResultType: value.KindDouble, Out: ir.Shape{ConcreteLength: 4}})

	a, err := Assign(b)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.Register[src] == a.Register[cast] {
		t.Errorf("widening cast (logical->double) must not alias its operand and result register, both got %d", a.Register[src])
	}
}

func TestAssignAllowsNonWideningCastToAliasResult(t *testing.T) {
	b := ir.NewBuffer()
	src := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindDouble, Out: ir.Shape{ConcreteLength: 4}})
	cast := b.Emit(ir.Node{Op: ir.OpCast, A: src, ResultType: value.KindLogical, Out: ir.Shape{ConcreteLength: 4}})

	a, err := Assign(b)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.Register[src] != a.Register[cast] {
		t.Errorf("narrowing cast (double->logical) should reuse the freed result register, got src=%d cast=%d", a.Register[src], a.Register[cast])
	}
}

func TestAssignSkipsControlNodes(t *testing.T) {
	b := ir.NewBuffer()
	s := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	b.Emit(ir.Node{Op: ir.OpStore, B: s, Var: ir.Variable{EnvRef: ir.RegisterEnv, Name: 0}})
	g := b.Emit(ir.Node{Op: ir.OpGTrue, A: s, Out: ir.EmptyShape, Reenter: ir.Reenter{PC: 0, InScope: true}})

	a, err := Assign(b)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.Register[1] != -1 {
		t.Errorf("store node should get no register, got %d", a.Register[1])
	}
	if a.Register[g] != -1 {
		t.Errorf("guard node should get no register, got %d", a.Register[g])
	}
	if a.Register[s] < 0 || a.Register[s] >= NumRegisters {
		t.Errorf("sload register %d out of pool range", a.Register[s])
	}
}

func TestAssignExhaustsTinyPool(t *testing.T) {
	b := ir.NewBuffer()
	// Three independently-live sloads feeding one node need three
	// simultaneously-held registers; a pool of 2 cannot satisfy that.
	s1 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	s2 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	s3 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	ab := b.Emit(ir.Node{Op: ir.OpAdd, A: s1, B: s2, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})
	_ = b.Emit(ir.Node{Op: ir.OpAdd, A: ab, B: s3, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})

	if _, err := AssignWithPoolSize(b, 2); err == nil {
		t.Fatal("expected a register-pool-exhausted error with a 2-register pool")
	}
}

func TestApplyWritesRegisterIntoNodes(t *testing.T) {
	b := ir.NewBuffer()
	s := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})

	a, err := Assign(b)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	a.Apply(b)
	if b.Nodes[s].Register != a.Register[s] {
		t.Errorf("Buffer.Nodes[%d].Register = %d, want %d", s, b.Nodes[s].Register, a.Register[s])
	}
}

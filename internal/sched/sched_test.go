package sched

import (
	"testing"

	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/value"
)

func TestBuildFusesContiguousArithmetic(t *testing.T) {
	b := ir.NewBuffer()
	s1 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	s2 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	add := b.Emit(ir.Node{Op: ir.OpAdd, A: s1, B: s2, ResultType: value.KindInteger, In: ir.Shape{ConcreteLength: 8}, Out: ir.Shape{ConcreteLength: 8}})
	_ = b.Emit(ir.Node{Op: ir.OpMul, A: add, B: s2, ResultType: value.KindInteger, In: ir.Shape{ConcreteLength: 8}, Out: ir.Shape{ConcreteLength: 8}})

	schedule := Build(b)

	// The two sloads are each boundaries (loads always are); add and mul
	// share the same shape as each other and should land in one group.
	if schedule.GroupOf[2] != schedule.GroupOf[3] {
		t.Errorf("add and mul landed in different groups: %d vs %d", schedule.GroupOf[2], schedule.GroupOf[3])
	}
	if schedule.GroupOf[0] == schedule.GroupOf[2] {
		t.Errorf("sload and add should not share a group (loads are boundaries)")
	}
}

func TestBuildSplitsOnShapeChange(t *testing.T) {
	b := ir.NewBuffer()
	s1 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	add := b.Emit(ir.Node{Op: ir.OpAdd, A: s1, B: s1, ResultType: value.KindInteger, In: ir.Shape{ConcreteLength: 8}, Out: ir.Shape{ConcreteLength: 8}})
	// A differently-shaped node (distinct TraceLength) cannot extend the
	// running group.
	_ = b.Emit(ir.Node{Op: ir.OpMul, A: add, B: add, ResultType: value.KindInteger, In: ir.Shape{TraceLength: 1, ConcreteLength: 4}, Out: ir.Shape{TraceLength: 1, ConcreteLength: 4}})

	schedule := Build(b)
	if schedule.GroupOf[1] == schedule.GroupOf[2] {
		t.Errorf("nodes with differing input shapes should not share a group")
	}
}

func TestBuildMarksRepeatedGatherBaseAsBoundary(t *testing.T) {
	b := ir.NewBuffer()
	base := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	idx := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	idx2 := b.Emit(ir.Node{Op: ir.OpSLoad, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 8}})
	first := b.Emit(ir.Node{Op: ir.OpGather, A: base, B: idx, ResultType: value.KindInteger, In: ir.Shape{ConcreteLength: 8}, Out: ir.Shape{ConcreteLength: 8}})
	// A distinct index keeps the second gather from being CSE'd into the first.
	second := b.Emit(ir.Node{Op: ir.OpGather, A: base, B: idx2, ResultType: value.KindInteger, In: ir.Shape{ConcreteLength: 8}, Out: ir.Shape{ConcreteLength: 8}})

	schedule := Build(b)
	if schedule.GroupOf[first] == schedule.GroupOf[second] {
		t.Errorf("a second gather on an already-seen base vector must start a new group")
	}
}

func TestFusableGroupsExcludesSingletons(t *testing.T) {
	b := ir.NewBuffer()
	g := b.Emit(ir.Node{Op: ir.OpGTrue, Out: ir.EmptyShape})
	_ = g
	schedule := Build(b)
	if len(schedule.FusableGroups()) != 0 {
		t.Errorf("a lone guard should produce no fusable group")
	}
}

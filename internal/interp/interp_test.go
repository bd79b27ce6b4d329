package interp

import (
	"testing"

	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// buildAdd returns a prototype computing a+b into register 2, returning
// it, where a and b are preloaded into registers 0 and 1 by the test.
func buildAdd() *proto.Prototype {
	return &proto.Prototype{
		NumSlots: 3,
		Code: []proto.Instruction{
			{Op: proto.OpAdd, A: proto.RegisterOperand(2), B: proto.RegisterOperand(0), C: proto.RegisterOperand(1)},
			{Op: proto.OpRet, A: proto.RegisterOperand(2)},
		},
	}
}

func TestEvalAddsRegisters(t *testing.T) {
	th := NewThread()
	p := buildAdd()
	// Seed registers by running a tiny preamble prototype that writes
	// constants into 0 and 1 before jumping into the add.
	p.Constants = []value.Value{value.Integer(3), value.Integer(4)}
	p.Code = append([]proto.Instruction{
		{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: 0},
		{Op: proto.OpConstant, A: proto.RegisterOperand(1), B: 1},
	}, p.Code...)

	result, err := th.Eval(p, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.Kind != value.KindInteger || result.IntegerAt(0) != 7 {
		t.Errorf("result = %v, want Integer(7)", result)
	}
}

func TestForceOnReadResolvesPromise(t *testing.T) {
	th := NewThread()

	// thunk: ret Constant(99)
	thunk := &proto.Prototype{
		NumSlots:  1,
		Constants: []value.Value{value.Integer(99)},
		Code: []proto.Instruction{
			{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: 0},
			{Op: proto.OpRet, A: proto.RegisterOperand(0)},
		},
	}
	promise := &proto.Promise{Thunk: thunk, Env: th.GlobalEnv()}

	main := &proto.Prototype{
		NumSlots: 1,
		Code: []proto.Instruction{
			// Mov forces register 0 (already holds the promise) into itself.
			{Op: proto.OpMov, A: proto.RegisterOperand(0), B: proto.RegisterOperand(0)},
			{Op: proto.OpRet, A: proto.RegisterOperand(0)},
		},
	}

	savedFrames := len(th.frames)
	savedBase := len(th.registers)
	th.pushFrame(main, th.GlobalEnv(), savedBase, -1, proto.RegisterOperand(0), nil, false)
	th.setReg(th.currentFrame(), 0, value.Value{Kind: value.KindPromise, Ref: promise})

	result, err := th.run(savedFrames)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Kind != value.KindInteger || result.IntegerAt(0) != 99 {
		t.Errorf("result = %v, want Integer(99)", result)
	}
	if !promise.Forced || promise.Value.IntegerAt(0) != 99 {
		t.Errorf("promise not marked forced with value 99: %+v", promise)
	}
}

func TestMissingReportsUnbound(t *testing.T) {
	th := NewThread()
	env := th.GlobalEnv()
	nameID := th.Interner().Intern("x")

	main := &proto.Prototype{
		NumSlots: 1,
		Code: []proto.Instruction{
			{Op: proto.OpMissing, A: proto.RegisterOperand(0), B: proto.NameOperand(nameID)},
			{Op: proto.OpRet, A: proto.RegisterOperand(0)},
		},
	}
	result, err := th.Eval(main, env)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.Kind != value.KindLogical || result.Logical(0) != value.LogicalTrue {
		t.Errorf("missing(unbound x) = %v, want TRUE", result)
	}
}

func TestSubsetOutOfBounds(t *testing.T) {
	th := NewThread()
	p := &proto.Prototype{
		NumSlots:  2,
		Constants: []value.Value{value.IntegerVector([]int64{1, 2, 3}), value.Integer(9)},
		Code: []proto.Instruction{
			{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: 0},
			{Op: proto.OpConstant, A: proto.RegisterOperand(1), B: 1},
			{Op: proto.OpSubset, A: proto.RegisterOperand(0), B: proto.RegisterOperand(0), C: proto.RegisterOperand(1)},
			{Op: proto.OpRet, A: proto.RegisterOperand(0)},
		},
	}
	if _, err := th.Eval(p, nil); err == nil {
		t.Fatalf("expected out-of-bounds subscript error")
	}
}

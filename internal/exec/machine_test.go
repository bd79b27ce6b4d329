package exec

import (
	"testing"

	"github.com/tracevm/tracevm/internal/asm"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/regalloc"
	"github.com/tracevm/tracevm/internal/value"
	"golang.org/x/arch/x86/x86asm"
)

// buildConstAddTrace hand-builds a register-assigned IR for "5 + 3":
// two constants in registers 0 and 1 and an add that reuses register 0,
// the integer-arithmetic subset machine.Compile lowers.
func buildConstAddTrace() (*Trace, ir.Ref) {
	buf := ir.NewBuffer()
	c1 := buf.Const(value.Integer(5))
	c2 := buf.Const(value.Integer(3))
	addRef := buf.Emit(ir.Node{Op: ir.OpAdd, A: c1, B: c2, ResultType: value.KindInteger, Out: ir.Shape{ConcreteLength: 1}})

	assignment := &regalloc.Assignment{Register: []int{0, 1, 0}}
	opt := &ir.Optimized{Buffer: buf}
	return NewTrace(opt, nil, assignment), addRef
}

func TestCompileRequiresAssignment(t *testing.T) {
	buf := ir.NewBuffer()
	opt := &ir.Optimized{Buffer: buf}
	if _, err := Compile(NewTrace(opt, nil, nil)); err == nil {
		t.Fatal("expected an error compiling a trace with no register Assignment")
	}
}

func TestCompileLowersConstantsAndAdd(t *testing.T) {
	trace, _ := buildConstAddTrace()
	mc, err := Compile(trace)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(mc.Code) == 0 {
		t.Fatal("Compile produced no bytes")
	}

	wantOps := []x86asm.Op{x86asm.MOV, x86asm.MOV, x86asm.ADD, x86asm.RET}
	code := mc.Code
	for i, want := range wantOps {
		inst, err := x86asm.Decode(code, 64)
		if err != nil {
			t.Fatalf("decode instruction %d: %v", i, err)
		}
		if inst.Op != want {
			t.Errorf("instruction %d op = %s, want %s", i, inst.Op, want)
		}
		code = code[inst.Len:]
	}
	if len(code) != 0 {
		t.Errorf("%d trailing undecoded bytes, want 0", len(code))
	}
}

func TestDisassembleRendersEveryInstruction(t *testing.T) {
	trace, _ := buildConstAddTrace()
	mc, err := Compile(trace)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	lines, err := mc.Disassemble()
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("Disassemble returned %d lines, want 4 (mov, mov, add, ret)", len(lines))
	}
	for i, line := range lines {
		if line == "" {
			t.Errorf("line %d was empty", i)
		}
	}
}

func TestCompileSkipsNodesWithoutARegister(t *testing.T) {
	buf := ir.NewBuffer()
	c1 := buf.Const(value.Integer(1))
	guardRef := buf.Emit(ir.Node{Op: ir.OpGLen, A: c1, Out: ir.Shape{ConcreteLength: 1}, Reenter: ir.Reenter{PC: 0}})

	assignment := &regalloc.Assignment{Register: []int{0, -1}}
	opt := &ir.Optimized{Buffer: buf}
	mc, err := Compile(NewTrace(opt, nil, assignment))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// One mov (the constant) plus ret; the guard has no data register
	// and must not be lowered to anything.
	lines, err := mc.Disassemble()
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Disassemble returned %d lines, want 2 (mov, ret)", len(lines))
	}
	_ = guardRef
}

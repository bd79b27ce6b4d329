// Package demo supplies the hand-built proto.Prototype programs
// `cmd/tracevm run` executes. A textual front end (lexer, parser,
// compiler to bytecode) is explicitly out of scope for this pipeline —
// spec.md describes those as "external collaborators with thin
// interfaces" — so rather than reusing the teacher's lexer-to-parser-
// to-bytecode flow (cmd/dwscript/cmd/run.go), programs here are
// assembled directly against internal/proto, exercising spec.md
// section 8's testable scenarios end to end: the bytecode interpreter,
// the JIT trigger, and (once the pipeline warms up) the trace recorder
// and executor.
package demo

import (
	"fmt"

	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// Program names one runnable demo (the "cmd/tracevm run <name>"
// selector) plus the prototype it runs.
type Program struct {
	Name        string
	Description string
	Build       func() *proto.Prototype
}

// Programs lists every demo in registration order, for `tracevm run
// --list` and for help text.
var Programs = []Program{
	{Name: "loop-sum", Description: "accumulate a vector in a for loop, hot enough to trigger the JIT", Build: LoopSum},
	{Name: "vector-add", Description: "elementwise add of two numeric vectors, no loop", Build: VectorAdd},
}

// Lookup finds a demo by name, or reports ok=false.
func Lookup(name string) (Program, bool) {
	for _, p := range Programs {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

// LoopSum builds "s = s + step" repeated tripCount times, where s and
// step are both vectors long enough (config.Default's tile
// threshold is 128) that dispatch.go's own triggerSize check — which
// measures the hot OpAdd instruction's own two operands, not the
// separate loop counter — fires the JIT on the very first pass through
// the loop body. Register layout: r0 = s (accumulator vector), r1 =
// step (vector, all ones), r2 = loop counter (trip count, a small,
// separately-shaped vector consumed only by OpForEnd).
func LoopSum() *proto.Prototype {
	const vecLen = 128
	const tripCount = 4

	step := make([]int64, vecLen)
	acc := make([]int64, vecLen)
	for i := range step {
		step[i] = 1
	}
	counter := make([]int64, tripCount)

	p := &proto.Prototype{
		NumSlots: 3,
		Constants: []value.Value{
			value.IntegerVector(acc),     // 0: s = [0, 0, ...]
			value.IntegerVector(step),    // 1: step = [1, 1, ...]
			value.IntegerVector(counter), // 2: loop counter, length tripCount
		},
	}
	p.Code = []proto.Instruction{
		{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: proto.Operand(0)},
		{Op: proto.OpConstant, A: proto.RegisterOperand(1), B: proto.Operand(1)},
		{Op: proto.OpConstant, A: proto.RegisterOperand(2), B: proto.Operand(2)},
		{Op: proto.OpAdd, A: proto.RegisterOperand(0), B: proto.RegisterOperand(0), C: proto.RegisterOperand(1)}, // s = s + step
		{Op: proto.OpForEnd, A: proto.RegisterOperand(2), B: proto.Operand(3)},
		{Op: proto.OpRet, A: proto.RegisterOperand(0)},
	}
	return p
}

// VectorAdd builds a single elementwise add over two length-16 integer
// vectors — no loop, so it never reaches the JIT trigger's tile
// threshold on its own; it demonstrates the interpreter's own vector
// opcode path (spec.md section 4.A's vector Value kind) independent of
// tracing.
func VectorAdd() *proto.Prototype {
	const n = 16
	a := make([]int64, n)
	b := make([]int64, n)
	for i := 0; i < n; i++ {
		a[i] = int64(i)
		b[i] = int64(n - i)
	}

	p := &proto.Prototype{
		NumSlots: 2,
		Constants: []value.Value{
			value.IntegerVector(a),
			value.IntegerVector(b),
		},
	}
	p.Code = []proto.Instruction{
		{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: proto.Operand(0)},
		{Op: proto.OpConstant, A: proto.RegisterOperand(1), B: proto.Operand(1)},
		{Op: proto.OpAdd, A: proto.RegisterOperand(0), B: proto.RegisterOperand(0), C: proto.RegisterOperand(1)},
		{Op: proto.OpRet, A: proto.RegisterOperand(0)},
	}
	return p
}

// Describe renders every registered program's name and description, one
// per line, for the `tracevm run --list` flag.
func Describe() string {
	out := ""
	for _, p := range Programs {
		out += fmt.Sprintf("%-12s %s\n", p.Name, p.Description)
	}
	return out
}

package trace

import (
	"testing"

	"github.com/tracevm/tracevm/internal/config"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// buildLoopProto lays out a prototype whose real execution never actually
// drives the recorder (the probe builtin fires before the loop body it
// points at even runs); the recorder instead shadow-simulates the loop
// body starting at startPC using whatever register state the constants at
// the top of the prototype already set up. Register layout: r0 = s
// (accumulator), r1 = i (step), r2 = loop counter, r3 = probe's unused
// result slot.
func buildLoopProto(probeID int32) (*proto.Prototype, int) {
	p := &proto.Prototype{
		NumSlots: 4,
		Constants: []value.Value{
			value.Integer(0),                           // 0: s = 0
			value.Integer(1),                           // 1: i = 1
			value.IntegerVector([]int64{0, 0, 0}),       // 2: counter, length 3
		},
	}
	p.Code = []proto.Instruction{
		{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: proto.Operand(0)},
		{Op: proto.OpConstant, A: proto.RegisterOperand(1), B: proto.Operand(1)},
		{Op: proto.OpConstant, A: proto.RegisterOperand(2), B: proto.Operand(2)},
		{Op: proto.OpInternal, A: proto.RegisterOperand(3), B: proto.NameOperand(probeID), C: proto.Operand(0)},
		{Op: proto.OpAdd, A: proto.RegisterOperand(0), B: proto.RegisterOperand(0), C: proto.RegisterOperand(1)}, // startPC
		{Op: proto.OpForEnd, A: proto.RegisterOperand(2), B: proto.Operand(4)},
		{Op: proto.OpRet, A: proto.RegisterOperand(0)},
	}
	return p, 4
}

func TestRecorderReachesLoopBackEdge(t *testing.T) {
	th := interp.NewThread()
	probeID := th.Interner().Intern("probe")
	p, startPC := buildLoopProto(probeID)

	var rec *Recording
	th.RegisterBuiltin("probe", func(th *interp.Thread, call *proto.CallInfo, args []value.Value) (value.Value, error) {
		r := NewRecorder(config.Default())
		rec = r.Record(th, startPC)
		return value.Null(), nil
	})

	result, err := th.Eval(p, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if result.IntegerAt(0) != 3 {
		t.Fatalf("s = %d, want 3 (three real loop iterations after the probe fired)", result.IntegerAt(0))
	}

	if rec == nil {
		t.Fatal("probe builtin was never invoked")
	}
	if rec.Reason != NoAbort {
		t.Fatalf("Reason = %s, want NoAbort", rec.Reason)
	}
	if rec.StartPC != startPC || rec.LoopPC != startPC {
		t.Errorf("StartPC/LoopPC = %d/%d, want both %d", rec.StartPC, rec.LoopPC, startPC)
	}

	last := rec.Buffer.Nodes[rec.Buffer.Len()-1]
	if last.Op != ir.OpJmpBack {
		t.Errorf("last node = %s, want jmpback", last.Op)
	}

	sawAdd, sawGuard := false, false
	for _, n := range rec.Buffer.Nodes {
		if n.Op == ir.OpAdd {
			sawAdd = true
		}
		if n.Op.IsGuard() {
			sawGuard = true
		}
	}
	if !sawAdd {
		t.Error("expected an add node for the s = s + i step")
	}
	if !sawGuard {
		t.Error("expected a guard node for the ForEnd shape check")
	}
}

func TestRecorderAbortsOnNonRecordableOpcode(t *testing.T) {
	th := interp.NewThread()
	probeID := th.Interner().Intern("probe2")

	p := &proto.Prototype{
		NumSlots:  2,
		Constants: []value.Value{value.Integer(1)},
		Code: []proto.Instruction{
			{Op: proto.OpConstant, A: proto.RegisterOperand(0), B: proto.Operand(0)},
			{Op: proto.OpInternal, A: proto.RegisterOperand(1), B: proto.NameOperand(probeID), C: proto.Operand(0)},
			{Op: proto.OpInternal, A: proto.RegisterOperand(1), B: proto.NameOperand(probeID), C: proto.Operand(0)},
			{Op: proto.OpRet, A: proto.RegisterOperand(0)},
		},
	}

	var rec *Recording
	th.RegisterBuiltin("probe2", func(th *interp.Thread, call *proto.CallInfo, args []value.Value) (value.Value, error) {
		if rec == nil {
			r := NewRecorder(config.Default())
			rec = r.Record(th, 1) // startPC points straight at the internal call
		}
		return value.Null(), nil
	})

	if _, err := th.Eval(p, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if rec == nil {
		t.Fatal("probe builtin was never invoked")
	}
	if rec.Reason != NonRecordable {
		t.Fatalf("Reason = %s, want NonRecordable", rec.Reason)
	}
}

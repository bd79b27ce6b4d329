// Package interp implements the bytecode interpreter (spec.md section
// 4.C): threaded dispatch over the opcode set in internal/proto, a
// call-frame stack, promise force-on-read, and the JIT trigger hook that
// hands control to a Tracer (internal/trace, wired in by internal/pipeline)
// when a hot, numeric, long-enough vector operation is seen.
//
// Grounded on the teacher's internal/bytecode VM (vm.go, vm_exec.go,
// vm_calls.go): the callFrame stack, builtins map, and big-switch
// dispatch loop are kept; the stack-machine register convention is
// replaced with the negative-offset register file of spec.md section
// 4.C, and promise forcing (absent from DWScript, which evaluates
// arguments eagerly) is added at operand fetch.
package interp

import (
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/rtenv"
	"github.com/tracevm/tracevm/internal/value"
)

// Tracer is the JIT trigger's collaborator (spec.md section 4.C's "JIT
// trigger" and section 6's on-stack-replacement contract). Defined here
// rather than in internal/trace so this package never imports the
// recorder/optimizer/executor pipeline; internal/pipeline wires a
// concrete Tracer into a Thread from the outside.
type Tracer interface {
	// Trigger is called at a JIT trigger point with the PC that would
	// execute next. It returns handled=true if it ran a compiled trace
	// (possibly re-entering the interpreter at resumePC on a guard exit)
	// or began/continued recording; handled=false means the interpreter
	// should simply execute startPC itself. The trigger must be
	// idempotent: calling it while already recording is a no-op that
	// returns handled=false.
	Trigger(th *Thread, startPC int) (resumePC int, handled bool)
}

// BuiltinFunc is a builtin library function's ABI (spec.md section 6):
// it receives the Thread, a Call descriptor, and argument values, and
// returns one result, which the calling instruction writes to its
// destination register (operand A) in the caller's frame.
type BuiltinFunc func(th *Thread, call *proto.CallInfo, args []value.Value) (value.Value, error)

// Thread owns everything spec.md section 9 says must not be a static
// global: the intern table, the global environment, the dispatch state,
// the environment free list, and (via Tracer) the trace cache. Multiple
// Threads may exist but never interact.
type Thread struct {
	interner *InternTable
	global   *rtenv.Environment
	freelist *rtenv.FreeList
	builtins map[string]BuiltinFunc

	registers []value.Value
	frames    []frame

	tracer       Tracer
	jitEnabled   bool
	tileThreshold int // spec.md 4.C default tile threshold (e.g. 128)

	output ioWriter
}

// ioWriter is the minimal surface Thread needs for builtin print output;
// kept as an interface here (rather than importing io directly into every
// call site) purely so builtins.go's signature reads naturally.
type ioWriter interface {
	Write(p []byte) (int, error)
}

const defaultRegisterCapacity = 1024
const defaultFrameCapacity = 64
const defaultTileThreshold = 128

// NewThread creates a Thread with default tuning and no output sink.
func NewThread() *Thread {
	return NewThreadWithOutput(nil)
}

// NewThreadWithOutput creates a Thread writing builtin output to w (nil
// discards it).
func NewThreadWithOutput(w ioWriter) *Thread {
	th := &Thread{
		interner:      NewInternTable(),
		freelist:      rtenv.NewFreeList(),
		builtins:      make(map[string]BuiltinFunc),
		registers:     make([]value.Value, 0, defaultRegisterCapacity),
		frames:        make([]frame, 0, defaultFrameCapacity),
		tileThreshold: defaultTileThreshold,
		output:        w,
	}
	th.global = rtenv.New(nil, nil)
	th.registerBuiltins()
	return th
}

// SetTracer installs the JIT collaborator and enables the trigger path.
// A nil tracer disables JIT (spec.md section 6's "JIT-enabled flag").
func (th *Thread) SetTracer(t Tracer) {
	th.tracer = t
	th.jitEnabled = t != nil
}

// SetTileThreshold overrides the JIT trigger's minimum vector length.
func (th *Thread) SetTileThreshold(n int) { th.tileThreshold = n }

// Interner exposes the Thread's string intern table.
func (th *Thread) Interner() *InternTable { return th.interner }

// GlobalEnv exposes the Thread's global environment.
func (th *Thread) GlobalEnv() *rtenv.Environment { return th.global }

// RegisterBuiltin adds or replaces a builtin function by name.
func (th *Thread) RegisterBuiltin(name string, fn BuiltinFunc) {
	th.builtins[name] = fn
}

// Eval is the external entry point (spec.md section 6): it pushes p's
// frame directly (no separate sentinel frame), runs the interpreter loop
// until that frame returns, and returns the value its ret produced.
// Reentrant via nested Eval calls (e.g. from a builtin evaluating a
// callback).
func (th *Thread) Eval(p *proto.Prototype, env *rtenv.Environment) (value.Value, error) {
	if env == nil {
		env = th.global
	}
	savedFrames := len(th.frames)
	savedBase := len(th.registers)

	th.pushFrame(p, env, savedBase, -1, proto.RegisterOperand(0), nil, false)

	result, err := th.run(savedFrames)

	th.frames = th.frames[:savedFrames]
	th.registers = th.registers[:savedBase]
	return result, err
}

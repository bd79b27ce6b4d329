// Package exec implements the Trace Executor (spec.md section 4.H): two
// interchangeable backends that take a scheduled, register-assigned
// optimized trace plus an entry state and either run it to completion
// (every guard passes) or stop at the first guard failure, yielding an
// exit index the caller looks up in the Exit record to rebuild
// interpreter state (internal/interp.Thread.RestoreRegister/ResumeAt).
//
// No teacher analog exists (DWScript's bytecode.Optimizer never lowers
// to a second execution engine) — built fresh against spec.md section
// 4.H, following the teacher's plain-struct, errors-as-values style.
//
// The tile interpreter here resolves a tension the spec's wording
// doesn't address explicitly: "outer loop over i in 0..length step
// TILE, for each tile run the per-op kernels" describes streaming
// element-wise math, but a guard like glen needs a node's *complete*
// vector (its Length()) before it can be checked at all. Since this
// package's Value type (internal/value) already materializes a node's
// whole result as a Go slice rather than a bounded memory window, the
// two concerns are split into separate passes: Run tiles the vector-
// producing kernels (the actual "per-op specialization" the spec names:
// binary/unary/cast/sequence/gather/scatter) TileWidth elements at a
// time, exactly as described. Environment-walk nodes are evaluated in one
// untiled pass up front, and every guard in one untiled pass afterward,
// once full vectors exist to check against. This keeps the tiled loop doing real per-op dispatch in
// chunks while guards — which spec.md's "Guard failure path" gives its
// own subsection, distinct from "Tile interpreter" — get a single
// evaluation each, in program order, exactly as many times as a native
// backend would check them.
package exec

import (
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/regalloc"
	"github.com/tracevm/tracevm/internal/rtenv"
	"github.com/tracevm/tracevm/internal/sched"
	"github.com/tracevm/tracevm/internal/value"
)

// Trace bundles the three pipeline stages internal/exec consumes: the
// optimized IR, its fusion schedule, and its register assignment. The
// schedule and assignment are optional (nil is accepted) so tests and
// early pipeline wiring can run a trace before those stages exist;
// MachineCode requires both.
type Trace struct {
	Optimized  *ir.Optimized
	Schedule   *sched.Schedule
	Assignment *regalloc.Assignment
}

// NewTrace bundles an already-optimized, scheduled, and register-
// assigned IR into the unit both backends run.
func NewTrace(opt *ir.Optimized, schedule *sched.Schedule, assignment *regalloc.Assignment) *Trace {
	return &Trace{Optimized: opt, Schedule: schedule, Assignment: assignment}
}

// EntryState is the "input state" half of spec.md 4.H's contract: the
// live register file and the Thread the trace reads name-keyed
// Variables and walks the lexical chain from.
type EntryState struct {
	Registers []value.Value
	Thread    *interp.Thread
	Interner  value.InternTable
}

// Result reports how a Run ended: either the trace fell through (every
// node, including every guard, evaluated without failing — spec.md's
// "fall-through to loop back-edge") or a specific guard failed.
type Result struct {
	Completed bool
	ExitRef   ir.Ref // valid when !Completed: the guard node that failed
}

// Frame holds the per-reference value table a completed or failed Run
// produced, so a caller can read out live-store values for a guard exit
// or the phi-updated values to seed the next iteration.
type Frame struct {
	buf  *ir.Buffer
	vals []value.Value
	envs []*rtenv.Environment
}

// ValueAt returns the computed value of ref. Only valid for refs that
// were actually reached before Run stopped.
func (f *Frame) ValueAt(ref ir.Ref) value.Value {
	if ref == ir.NoRef || int(ref) >= len(f.vals) {
		return value.Nil()
	}
	return f.vals[ref]
}

// EnvAt returns the environment an OpEnvBase/OpLEnv node produced.
func (f *Frame) EnvAt(ref ir.Ref) *rtenv.Environment {
	if ref == ir.NoRef || int(ref) >= len(f.envs) {
		return nil
	}
	return f.envs[ref]
}

// Backend is the common contract both the tile interpreter and the
// machine-code lowering implement (spec.md 4.H: "two interchangeable
// backends implement the same contract").
type Backend interface {
	Run(t *Trace, entry EntryState) (Result, *Frame, error)
}

// TileInterpreter is the always-available backend: a typed per-op
// dispatcher over internal/value's vector kernels, run TileWidth
// elements at a time.
type TileInterpreter struct {
	TileWidth int
}

// NewTileInterpreter builds a TileInterpreter with the given tile width
// (spec.md 4.H / config.TuningConfig.TileWidth); widths <= 0 fall back
// to 16, the spec's own example lane count.
func NewTileInterpreter(tileWidth int) *TileInterpreter {
	if tileWidth <= 0 {
		tileWidth = 16
	}
	return &TileInterpreter{TileWidth: tileWidth}
}

// Run executes t once against entry, per spec.md 4.H's contract.
func (ti *TileInterpreter) Run(t *Trace, entry EntryState) (Result, *Frame, error) {
	buf := t.Optimized.Buffer
	frame := &Frame{
		buf:  buf,
		vals: make([]value.Value, buf.Len()),
		envs: make([]*rtenv.Environment, buf.Len()),
	}

	// Pass 0: the environment-walk chain. These never depend on vector
	// data, only on the live Thread, so they run once up front — any
	// sload of a name-keyed Variable and any env guard needs them
	// already resolved.
	for i := 0; i < buf.Len(); i++ {
		n := buf.At(ir.Ref(i))
		switch n.Op {
		case ir.OpEnvBase:
			frame.envs[i] = entry.Thread.CurrentEnv()
		case ir.OpLEnv:
			if base := frame.EnvAt(n.A); base != nil {
				frame.envs[i] = base.Lexical
			}
		}
	}

	// Pass 1: tiled vector math, TileWidth elements at a time, in IR
	// order within each tile (spec.md 4.H's literal description).
	length := traceLength(buf)
	tile := ti.TileWidth
	for start := 0; start < length; start += tile {
		end := start + tile
		if end > length {
			end = length
		}
		for i := 0; i < buf.Len(); i++ {
			n := buf.At(ir.Ref(i))
			if !isDataOp(n.Op) {
				continue
			}
			if err := ti.runTile(frame, ir.Ref(i), n, entry, start, end, length); err != nil {
				return Result{}, nil, err
			}
		}
	}

	// Pass 2: guards and phi bookkeeping, once, in IR order, now that
	// every vector this trace computes is fully materialized.
	for i := 0; i < buf.Len(); i++ {
		n := buf.At(ir.Ref(i))
		switch {
		case n.Op == ir.OpEnvBase || n.Op == ir.OpLEnv:
			continue // resolved in pass 0
		case n.Op.IsGuard():
			if !evalGuard(frame, n, entry.Interner) {
				return Result{Completed: false, ExitRef: ir.Ref(i)}, frame, nil
			}
		case n.Op == ir.OpPhi:
			frame.vals[n.A] = frame.vals[n.B] // seed the next iteration's header value
		}
	}

	return Result{Completed: true}, frame, nil
}

// traceLength is the overall vector length this trace iterates: the
// largest concrete length among every data-producing node (guards and
// other bookkeeping nodes don't count, even though some — OpGLen —
// carry a nonzero Out.ConcreteLength of their own). A trace with no
// vector-shaped node at all (pure scalar bookkeeping) still needs one
// "tile" to run its single logical element.
func traceLength(buf *ir.Buffer) int {
	length := 0
	for i := 0; i < buf.Len(); i++ {
		n := buf.At(ir.Ref(i))
		if isDataOp(n.Op) && n.Out.ConcreteLength > length {
			length = n.Out.ConcreteLength
		}
	}
	if length == 0 {
		length = 1
	}
	return length
}

// WriteBack replays a guard exit's live-store map back into interpreter
// state (spec.md 4.H's "Guard failure path") and resumes th at the
// reenter PC. frame must be the Frame a Run call that produced exit
// returned.
func WriteBack(th *interp.Thread, exit *ir.Exit, frame *Frame) {
	for v, ref := range exit.LiveStores {
		val := frame.ValueAt(ref)
		if v.EnvRef == ir.RegisterEnv {
			th.RestoreRegister(int(v.Name), val)
			continue
		}
		if env := frame.EnvAt(v.EnvRef); env != nil {
			env.Assign(v.Name, val)
		}
	}
	th.ResumeAt(exit.Reenter.PC)
}

// diagInternal is a small helper so every "this shouldn't happen" path
// in the kernel dispatcher raises the same Kind.
func diagInternal(format string, args ...any) error {
	return diag.New(diag.KindInternal, format, args...)
}

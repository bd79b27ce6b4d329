package interp

import (
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// run is the dispatch loop, grounded on the teacher's vm_exec.go Run
// method: fetch, optionally force an operand, execute, advance. It runs
// until the frame stack has unwound back to depth stopAt, then returns
// the value left in stopAt's caller-visible destination register (the
// value written by the final `ret`/`done`).
func (th *Thread) run(stopAt int) (value.Value, error) {
	var result value.Value
	for len(th.frames) > stopAt {
		fr := th.currentFrame()

		if fr.pc >= len(fr.proto.Code) {
			// Implicit return of Nil at the end of a code object with no
			// explicit ret/done (spec.md 4.C, matches the teacher's
			// fall-off-the-end behavior in vm_exec.go).
			result = th.popFrame(value.Nil())
			continue
		}

		inst := fr.proto.Code[fr.pc]

		if th.forceOperands(fr, inst) {
			continue // a thunk frame was pushed; fr.pc is untouched
		}

		if th.jitEnabled && th.tracer != nil && jitCandidate(inst.Op) {
			if th.triggerSize(fr, inst) >= th.tileThreshold {
				if resumePC, handled := th.tracer.Trigger(th, fr.pc); handled {
					fr.pc = resumePC
					continue
				}
			}
		}

		fr.pc++

		switch {
		case isControlOp(inst.Op):
			v, done, err := th.execControl(fr, inst)
			if err != nil {
				return value.Nil(), err
			}
			if done {
				result = v
			}
		case isMemoryOp(inst.Op):
			if err := th.execMemory(fr, inst); err != nil {
				return value.Nil(), err
			}
		case isArithOp(inst.Op):
			if err := th.execArith(fr, inst); err != nil {
				return value.Nil(), err
			}
		case isVectorOp(inst.Op):
			if err := th.execVector(fr, inst); err != nil {
				return value.Nil(), err
			}
		default:
			return value.Nil(), diag.New(diag.KindInternal, "interp: unhandled opcode "+inst.Op.String()).AtPC(fr.pc)
		}
	}
	return result, nil
}

// popFrame pops the current frame, writes v into the caller's
// destination register (if the caller still exists), resolves any
// promise/default this frame was forcing, and restores the register
// stack. It returns v so the top-level Eval caller can see the final
// result once the frame stack has fully unwound.
func (th *Thread) popFrame(v value.Value) value.Value {
	fr := th.currentFrame()
	if fr.forcingPromise != nil {
		fr.forcingPromise.Forced = true
		fr.forcingPromise.Value = v
	}
	if fr.forcingDefault != nil {
		fr.forcingDefault.Forced = true
		fr.forcingDefault.Value = v
	}
	returnPC := fr.returnPC
	dest := fr.destination

	if fr.ownsEnv && proto.ClosureSafe(v, fr.env) {
		th.freelist.Release(fr.env)
	}

	th.registers = th.registers[:fr.base]
	th.frames = th.frames[:len(th.frames)-1]

	if len(th.frames) == 0 {
		return v
	}
	parent := th.currentFrame()
	parent.pc = returnPC
	if dest.IsRegister() {
		th.setReg(parent, dest.Register(), v)
	} else {
		parent.env.InsertRecursive(dest.Name(), v)
	}
	return v
}

// jitCandidate reports whether op is a JIT trigger point (spec.md
// section 4.C/6): a vector-shaped arithmetic or sequence op.
func jitCandidate(op proto.OpCode) bool {
	switch op {
	case proto.OpAdd, proto.OpSub, proto.OpMul, proto.OpDiv, proto.OpMod, proto.OpPow,
		proto.OpEq, proto.OpNeq, proto.OpLt, proto.OpLe, proto.OpGt, proto.OpGe,
		proto.OpSeq, proto.OpColon:
		return true
	default:
		return false
	}
}

// triggerSize estimates the operand length that would decide whether
// this instruction is "hot enough" to trace, without forcing a generic
// read (the operands here are never promises by this point in the
// loop: forceOperands already ran).
func (th *Thread) triggerSize(fr *frame, inst proto.Instruction) int {
	b := th.fetch(fr, inst.B)
	c := th.fetch(fr, inst.C)
	if b.Length() > c.Length() {
		return b.Length()
	}
	return c.Length()
}

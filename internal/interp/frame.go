package interp

import (
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/rtenv"
	"github.com/tracevm/tracevm/internal/value"
)

// frame is the interpreter's call-frame record (spec.md section 3's
// StackFrame), plus the live program counter and register base this
// package needs for dispatch.
type frame struct {
	env         *rtenv.Environment
	proto       *proto.Prototype
	base        int // index into Thread.registers of this frame's register 0
	returnBase  int // caller's base at push time; popFrame truncates to this frame's own base, so the caller's registers survive
	returnPC    int // caller's PC, resumed on return
	destination proto.Operand
	callerEnv   *rtenv.Environment
	ownsEnv     bool
	pc          int

	// forcingPromise/forcingDefault are set when this frame was pushed to
	// force a Promise/Default read (operand.go's force); ret uses them to
	// mark the original promise object forced, not just the register that
	// held it, so every other binding sharing the promise observes the
	// forced value too.
	forcingPromise *proto.Promise
	forcingDefault *proto.Default
}

// pushFrame allocates register slots for p and pushes a new frame that
// begins executing at instruction 0.
func (th *Thread) pushFrame(p *proto.Prototype, env *rtenv.Environment, returnBase, returnPC int, dest proto.Operand, callerEnv *rtenv.Environment, ownsEnv bool) {
	base := len(th.registers)
	for i := 0; i < p.NumSlots; i++ {
		th.registers = append(th.registers, value.Nil())
	}
	th.frames = append(th.frames, frame{
		env:         env,
		proto:       p,
		base:        base,
		returnBase:  returnBase,
		returnPC:    returnPC,
		destination: dest,
		callerEnv:   callerEnv,
		ownsEnv:     ownsEnv,
	})
}

// currentFrame returns a pointer to the top of the frame stack.
func (th *Thread) currentFrame() *frame {
	return &th.frames[len(th.frames)-1]
}

// reg returns the value of register r relative to fr's base.
func (th *Thread) reg(fr *frame, r int) value.Value {
	return th.registers[fr.base+r]
}

// setReg stores v into register r relative to fr's base.
func (th *Thread) setReg(fr *frame, r int, v value.Value) {
	th.registers[fr.base+r] = v
}

// RegisterSnapshot returns a copy of the live registers of the current
// frame, for the trace recorder's entry snapshot (spec.md section 4.D).
func (th *Thread) RegisterSnapshot() []value.Value {
	fr := th.currentFrame()
	out := make([]value.Value, fr.proto.NumSlots)
	copy(out, th.registers[fr.base:fr.base+fr.proto.NumSlots])
	return out
}

// CurrentPC returns the live program counter of the running frame, for
// the recorder's entry PC and the executor's reenter records.
func (th *Thread) CurrentPC() int { return th.currentFrame().pc }

// CurrentEnv returns the environment of the running frame.
func (th *Thread) CurrentEnv() *rtenv.Environment { return th.currentFrame().env }

// CurrentProto returns the prototype of the running frame.
func (th *Thread) CurrentProto() *proto.Prototype { return th.currentFrame().proto }

// Register reads register r of the currently running frame, for the
// trace recorder's shadow dispatch (internal/trace) which reads
// concrete values to decide control flow without mutating them.
func (th *Thread) Register(r int) value.Value {
	return th.reg(th.currentFrame(), r)
}

// RestoreRegister writes v into register r of the currently running
// frame; used by the executor (internal/exec) to replay a guard exit's
// live-store map back into interpreter state before resuming at the
// reenter PC.
func (th *Thread) RestoreRegister(r int, v value.Value) {
	fr := th.currentFrame()
	th.setReg(fr, r, v)
}

// ResumeAt sets the running frame's PC, for guard-exit reentry.
func (th *Thread) ResumeAt(pc int) {
	th.currentFrame().pc = pc
}

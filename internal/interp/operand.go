package interp

import (
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// readMask reports, for each of an instruction's three operand slots,
// whether that slot is read as a Value (as opposed to a destination, a
// raw index, or an interned-name immediate). Only read slots are
// candidates for promise forcing, per spec.md section 4.C: "only the
// interpreter decides to force", and it decides exactly here.
//
// fastmov intentionally reports no reads: spec.md section 4.C says it
// "skips the promise check".
func readMask(op proto.OpCode) (readA, readB, readC bool) {
	switch op {
	case proto.OpFastMov, proto.OpConstant, proto.OpFunction, proto.OpMissing:
		return false, false, false
	case proto.OpForBegin:
		return false, true, false
	case proto.OpRet, proto.OpDone:
		return true, false, false
	case proto.OpJc:
		return false, true, false
	case proto.OpMov, proto.OpAssign, proto.OpAssign2,
		proto.OpNeg, proto.OpNot, proto.OpIsNA, proto.OpIsFinite, proto.OpLog, proto.OpExp,
		proto.OpType, proto.OpLength, proto.OpStrip:
		return false, true, false
	case proto.OpAdd, proto.OpSub, proto.OpMul, proto.OpDiv, proto.OpMod, proto.OpPow,
		proto.OpEq, proto.OpNeq, proto.OpLt, proto.OpLe, proto.OpGt, proto.OpGe,
		proto.OpAnd, proto.OpOr, proto.OpSeq, proto.OpColon, proto.OpRep:
		return false, true, true
	case proto.OpIAssign, proto.OpEAssign, proto.OpAttrSet, proto.OpScatter:
		return true, true, true // A is read-modify-write: the base value is read too
	case proto.OpIfElse, proto.OpSplit:
		return false, true, true // else-branch register is thenReg+1, read explicitly by the handler
	case proto.OpSubset, proto.OpSubset2, proto.OpGather:
		return false, true, true
	case proto.OpDollar, proto.OpAttrGet:
		return false, true, false
	case proto.OpUseMethod:
		return false, true, false
	case proto.OpBranch:
		return true, false, false
	case proto.OpForEnd:
		return true, false, false
	default:
		return false, false, false
	}
}

// force forces op if it is an unforced Promise/Default register, by
// pushing a thunk frame whose return target is the *same* instruction
// (spec.md section 4.C: "re-enters the same instruction on return"). It
// reports whether a frame was pushed; callers must not advance fr.pc or
// continue decoding this instruction when that happens.
func (th *Thread) force(fr *frame, op proto.Operand) (pushed bool) {
	if !op.IsRegister() {
		return false
	}
	r := op.Register()
	v := th.reg(fr, r)
	switch v.Kind {
	case value.KindPromise:
		p := v.Ref.(*proto.Promise)
		if p.Forced {
			th.setReg(fr, r, p.Value)
			return false
		}
		th.pushFrame(p.Thunk, p.Env, fr.base, fr.pc, proto.RegisterOperand(r), fr.env, true)
		th.currentFrame().forcingPromise = p
		return true
	case value.KindDefault:
		d := v.Ref.(*proto.Default)
		if d.Forced {
			th.setReg(fr, r, d.Value)
			return false
		}
		th.pushFrame(d.Thunk, d.Env, fr.base, fr.pc, proto.RegisterOperand(r), fr.env, true)
		th.currentFrame().forcingDefault = d
		return true
	default:
		return false
	}
}

// forceOperands checks every read operand of inst for an unforced
// promise/default and begins forcing the first one found. Returns true
// if a frame was pushed (caller must `continue` without touching fr.pc).
func (th *Thread) forceOperands(fr *frame, inst proto.Instruction) bool {
	ra, rb, rc := readMask(inst.Op)
	if ra && th.force(fr, inst.A) {
		return true
	}
	if rb && th.force(fr, inst.B) {
		return true
	}
	if rc && th.force(fr, inst.C) {
		return true
	}
	if inst.Op == proto.OpIfElse || inst.Op == proto.OpSplit {
		// The "else" operand rides in the register just past C (see
		// ops_arith.go's execTernary); it needs the same force check.
		if th.force(fr, proto.RegisterOperand(inst.C.Register()+1)) {
			return true
		}
	}
	return false
}

// fetch reads op as a Value, assuming forceOperands has already resolved
// any promise it might have held.
func (th *Thread) fetch(fr *frame, op proto.Operand) value.Value {
	if op.IsRegister() {
		return th.reg(fr, op.Register())
	}
	return fr.env.GetRecursive(op.Name())
}

package interp

import (
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

func namesAttrID(interner *InternTable) int32 { return interner.Intern("names") }

// execMemory executes one memory-group instruction: binding writes,
// register moves, subscript read/write, and attribute get/set.
func (th *Thread) execMemory(fr *frame, inst proto.Instruction) error {
	switch inst.Op {
	case proto.OpAssign:
		fr.env.Assign(inst.A.Name(), th.fetch(fr, inst.B))
		return nil

	case proto.OpAssign2:
		v := th.fetch(fr, inst.B)
		if fr.env.Lexical != nil {
			fr.env.Lexical.InsertRecursive(inst.A.Name(), v)
		} else {
			th.global.Assign(inst.A.Name(), v)
		}
		return nil

	case proto.OpMov:
		th.setReg(fr, inst.A.Register(), th.fetch(fr, inst.B))
		return nil

	case proto.OpFastMov:
		th.setReg(fr, inst.A.Register(), th.reg(fr, inst.B.Register()))
		return nil

	case proto.OpIAssign, proto.OpEAssign:
		return th.execIndexAssign(fr, inst)

	case proto.OpSubset:
		return th.execSubset(fr, inst, false)

	case proto.OpSubset2:
		return th.execSubset(fr, inst, true)

	case proto.OpDollar:
		return th.execDollar(fr, inst)

	case proto.OpAttrGet:
		src := th.fetch(fr, inst.B)
		th.setReg(fr, inst.A.Register(), value.GetAttribute(src, inst.C.Name()))
		return nil

	case proto.OpAttrSet:
		r := inst.A.Register()
		base := th.reg(fr, r)
		attrVal := th.fetch(fr, inst.C)
		th.setReg(fr, r, value.AttachAttribute(base, inst.B.Name(), attrVal))
		return nil

	default:
		return diag.New(diag.KindInternal, "interp: unhandled memory opcode %s", inst.Op).AtPC(fr.pc)
	}
}

// execIndexAssign implements `x[i] <- v` (iassign) and `x[[i]] <- v`
// (eassign). A names both the source of the current value and the
// destination for the updated one (spec.md section 4.C's read-modify-
// write encoding), so it may be a register or a free-standing name.
func (th *Thread) execIndexAssign(fr *frame, inst proto.Instruction) error {
	base := th.fetch(fr, inst.A)
	idxVal := th.fetch(fr, inst.B)
	newVal := th.fetch(fr, inst.C)

	idx, err := resolveIndex(base, idxVal, th.interner)
	if err != nil {
		return err.AtPC(fr.pc)
	}

	updated := withElementSet(base, newVal, idx, th.interner)

	if inst.A.IsRegister() {
		th.setReg(fr, inst.A.Register(), updated)
	} else {
		fr.env.InsertRecursive(inst.A.Name(), updated)
	}
	return nil
}

// execSubset implements `x[i]` and `x[[i]]`. subset2 unwraps a List
// element to its bare value; subset keeps the length-1-list shape.
func (th *Thread) execSubset(fr *frame, inst proto.Instruction, double bool) error {
	src := th.fetch(fr, inst.B)
	idxVal := th.fetch(fr, inst.C)

	idx, derr := resolveIndex(src, idxVal, th.interner)
	if derr != nil {
		return derr.AtPC(fr.pc)
	}
	if idx < 0 || idx >= src.Length() {
		return diag.SubscriptError("subscript out of bounds").AtPC(fr.pc)
	}

	elem := elementOf(src, idx)
	if !double && src.Kind == value.KindList {
		elem = value.ListVector([]value.Value{elem})
	}
	th.setReg(fr, inst.A.Register(), elem)
	return nil
}

// execDollar implements `x$name`: a lookup by the "names" attribute
// rather than by position.
func (th *Thread) execDollar(fr *frame, inst proto.Instruction) error {
	src := th.fetch(fr, inst.B)
	wantID := inst.C.Name()

	names := value.GetAttribute(src, namesAttrID(th.interner))
	base := value.BaseValue(src)
	for i := 0; i < names.Length(); i++ {
		if names.CharacterAt(i) == wantID {
			th.setReg(fr, inst.A.Register(), elementOf(base, i))
			return nil
		}
	}
	th.setReg(fr, inst.A.Register(), value.Null())
	return nil
}

// resolveIndex turns an index Value (Integer/Double scalar, or Character
// for name-based list/"$"-style access) into a 0-based offset.
func resolveIndex(base, idxVal value.Value, interner *InternTable) (int, *diag.Error) {
	switch idxVal.Kind {
	case value.KindCharacter:
		names := value.GetAttribute(base, namesAttrID(interner))
		want := idxVal.CharacterAt(0)
		for i := 0; i < names.Length(); i++ {
			if names.CharacterAt(i) == want {
				return i, nil
			}
		}
		return -1, diag.SubscriptError("no such name in vector")
	case value.KindInteger:
		if idxVal.Length() == 0 || idxVal.IsNA(0) {
			return -1, diag.SubscriptError("NA subscript not allowed")
		}
		return int(idxVal.IntegerAt(0)) - 1, nil
	case value.KindDouble:
		if idxVal.Length() == 0 || idxVal.IsNA(0) {
			return -1, diag.SubscriptError("NA subscript not allowed")
		}
		return int(idxVal.DoubleAt(0)) - 1, nil
	default:
		return -1, diag.SubscriptError("invalid subscript type %s", idxVal.Kind)
	}
}

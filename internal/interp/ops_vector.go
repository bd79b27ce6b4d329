package interp

import (
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// execVector executes one vector-construction/introspection/constant
// instruction.
func (th *Thread) execVector(fr *frame, inst proto.Instruction) error {
	switch inst.Op {
	case proto.OpSeq:
		return th.execSeq(fr, inst)
	case proto.OpColon:
		return th.execColon(fr, inst)
	case proto.OpRep:
		return th.execRep(fr, inst)
	case proto.OpList:
		return th.execList(fr, inst)
	case proto.OpType:
		v := th.fetch(fr, inst.B)
		th.setReg(fr, inst.A.Register(), value.Character(th.interner.Intern(v.Kind.String())))
		return nil
	case proto.OpLength:
		v := th.fetch(fr, inst.B)
		th.setReg(fr, inst.A.Register(), value.Integer(int64(v.Length())))
		return nil
	case proto.OpStrip:
		v := th.fetch(fr, inst.B)
		th.setReg(fr, inst.A.Register(), value.BaseValue(v))
		return nil
	case proto.OpMissing:
		th.setReg(fr, inst.A.Register(), th.execMissing(fr, inst))
		return nil
	case proto.OpFunction:
		nestedIdx := int(inst.B)
		closure := &proto.Closure{Proto: fr.proto.Nested[nestedIdx], Env: fr.env}
		th.setReg(fr, inst.A.Register(), value.Value{Kind: value.KindFunction, Ref: closure})
		return nil
	case proto.OpInternal:
		return th.execInternal(fr, inst)
	case proto.OpConstant:
		idx := int(inst.B)
		th.setReg(fr, inst.A.Register(), fr.proto.Constants[idx])
		return nil
	case proto.OpGather:
		return th.execSubset(fr, inst, false)
	case proto.OpScatter:
		return th.execIndexAssign(fr, inst)
	default:
		return diag.New(diag.KindInternal, "interp: unhandled vector opcode %s", inst.Op).AtPC(fr.pc)
	}
}

func (th *Thread) execSeq(fr *frame, inst proto.Instruction) error {
	length := th.fetch(fr, inst.B)
	step := th.fetch(fr, inst.C)
	n := 0
	if length.Length() > 0 {
		n = int(length.IntegerAt(0))
	}
	s := 1.0
	if step.Length() > 0 {
		s = value.CoerceTo(step, value.KindDouble, th.interner).DoubleAt(0)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(i) * s
	}
	th.setReg(fr, inst.A.Register(), value.DoubleVector(out))
	return nil
}

func (th *Thread) execColon(fr *frame, inst proto.Instruction) error {
	from := th.fetch(fr, inst.B)
	to := th.fetch(fr, inst.C)
	f := value.CoerceTo(from, value.KindDouble, th.interner).DoubleAt(0)
	t := value.CoerceTo(to, value.KindDouble, th.interner).DoubleAt(0)
	var out []int64
	if f <= t {
		for x := f; x <= t; x++ {
			out = append(out, int64(x))
		}
	} else {
		for x := f; x >= t; x-- {
			out = append(out, int64(x))
		}
	}
	th.setReg(fr, inst.A.Register(), value.IntegerVector(out))
	return nil
}

func (th *Thread) execRep(fr *frame, inst proto.Instruction) error {
	src := th.fetch(fr, inst.B)
	times := th.fetch(fr, inst.C)
	n := 1
	if times.Length() > 0 {
		n = int(value.CoerceTo(times, value.KindInteger, th.interner).IntegerAt(0))
	}
	srcLen := src.Length()
	total := srcLen * n
	if total < 0 {
		total = 0
	}
	out := value.EmptyOfKind(src.Kind)
	for i := 0; i < total; i++ {
		out = withElementSet(out, elementOf(src, value.Recycle(srcLen, total, i)), i, th.interner)
	}
	th.setReg(fr, inst.A.Register(), out)
	return nil
}

// execList builds a list from a compiled-call table entry shared with
// OpCall/OpNCall (spec.md section 3's "compiled-call table" covers any
// variadic-argument opcode, not just function calls).
func (th *Thread) execList(fr *frame, inst proto.Instruction) error {
	callIdx := int(inst.B)
	ci := &fr.proto.Calls[callIdx]
	elems := make([]value.Value, len(ci.Args))
	names := make([]int32, len(ci.Args))
	hasNames := false
	for i, a := range ci.Args {
		elems[i] = th.fetch(fr, a)
		if i < len(ci.Names) && ci.Names[i] != 0 {
			names[i] = ci.Names[i]
			hasNames = true
		} else {
			names[i] = value.CharacterNA
		}
	}
	out := value.ListVector(elems)
	if hasNames {
		out = value.AttachAttribute(out, namesAttrID(th.interner), value.CharacterVector(names))
	}
	th.setReg(fr, inst.A.Register(), out)
	return nil
}

// execMissing implements the `missing()` introspection builtin: it
// checks binding presence directly, deliberately bypassing force (spec.md
// section 4.A's Default semantics: missingness must be observable
// without triggering evaluation).
func (th *Thread) execMissing(fr *frame, inst proto.Instruction) value.Value {
	name := inst.B.Name()
	v := fr.env.GetRaw(name)
	if v.Kind == value.KindNil {
		return value.Logical(value.LogicalTrue)
	}
	if v.Kind == value.KindDefault && !v.Ref.(*proto.Default).Forced {
		return value.Logical(value.LogicalTrue)
	}
	return value.Logical(value.LogicalFalse)
}

// execInternal dispatches a builtin registered by name (spec.md section
// 6: builtins live entirely outside the compiled prototype stream).
func (th *Thread) execInternal(fr *frame, inst proto.Instruction) error {
	name := th.interner.String(inst.B.Name())
	fn, ok := th.builtins[name]
	if !ok {
		return diag.New(diag.KindMissingBinding, "could not find internal function \"%s\"", name).AtPC(fr.pc)
	}
	callIdx := int(inst.C)
	var call *proto.CallInfo
	var args []value.Value
	if callIdx >= 0 && callIdx < len(fr.proto.Calls) {
		call = &fr.proto.Calls[callIdx]
		args = make([]value.Value, len(call.Args))
		for i, a := range call.Args {
			args[i] = th.fetch(fr, a)
		}
	}
	result, err := fn(th, call, args)
	if err != nil {
		return err
	}
	th.setReg(fr, inst.A.Register(), result)
	return nil
}

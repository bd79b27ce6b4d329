package interp

import (
	"fmt"

	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// execControl executes one control-group instruction. The bool result
// reports whether the frame stack just unwound to empty with a final
// value (only meaningful to the top-level run loop).
func (th *Thread) execControl(fr *frame, inst proto.Instruction) (value.Value, bool, error) {
	switch inst.Op {
	case proto.OpCall, proto.OpNCall:
		return value.Nil(), false, th.execCall(fr, inst)

	case proto.OpRet, proto.OpDone:
		v := th.fetch(fr, inst.A)
		result := th.popFrame(v)
		return result, len(th.frames) == 0, nil

	case proto.OpJmp:
		fr.pc = int(inst.A)
		return value.Nil(), false, nil

	case proto.OpJc:
		cond := th.fetch(fr, inst.B)
		if isFalsy(cond) {
			fr.pc = int(inst.A)
		}
		return value.Nil(), false, nil

	case proto.OpBranch:
		selector := th.fetch(fr, inst.A)
		n := int(inst.B)
		idx := 0
		if selector.Length() > 0 && !selector.IsNA(0) {
			idx = int(selector.IntegerAt(0))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		target := fr.proto.Constants[int(inst.C)+idx]
		fr.pc = int(target.IntegerAt(0))
		return value.Nil(), false, nil

	case proto.OpUseMethod:
		return value.Nil(), false, th.execUseMethod(fr, inst)

	case proto.OpForBegin:
		src := th.fetch(fr, inst.B)
		n := src.Length()
		counter := value.IntegerVector(make([]int64, n))
		th.setReg(fr, inst.A.Register(), counter)
		return value.Nil(), false, nil

	case proto.OpForEnd:
		counter := th.fetch(fr, inst.A)
		n := counter.Length()
		cur := int64(0)
		if n > 0 {
			cur = counter.IntegerAt(0)
		}
		cur++
		if int(cur) < n {
			counter.SetInteger(0, cur)
			fr.pc = int(inst.B)
		}
		return value.Nil(), false, nil

	default:
		return value.Nil(), false, diag.New(diag.KindInternal, "interp: unhandled control opcode %s", inst.Op).AtPC(fr.pc)
	}
}

// isFalsy reports whether a one-element Logical condition is false/NA
// (spec.md section 4.C's jc/if semantics: only TRUE takes the
// fall-through path).
func isFalsy(v value.Value) bool {
	if v.Kind != value.KindLogical || v.Length() == 0 {
		return true
	}
	return v.Logical(0) != 1
}

// execCall matches spec.md section 3's "compiled-call table": CallInfo's
// Args are already positionally matched to the callee's ParamNames at
// compile time, so dispatch here is just environment setup, not name
// resolution. Argument values are copied into the new environment
// unforced — a Promise or Default bound in the caller's frame travels
// into the callee still unforced, which is what gives argument passing
// its laziness (spec.md section 3's Promise/Default contract).
func (th *Thread) execCall(fr *frame, inst proto.Instruction) error {
	callIdx := int(inst.B)
	if callIdx < 0 || callIdx >= len(fr.proto.Calls) {
		return diag.New(diag.KindInternal, "interp: call index %d out of range", callIdx).AtPC(fr.pc)
	}
	ci := &fr.proto.Calls[callIdx]

	calleeVal := th.fetch(fr, ci.Callee)
	if calleeVal.Kind != value.KindFunction {
		return diag.TypeError("attempt to apply non-function").AtPC(fr.pc)
	}
	closure := calleeVal.Ref.(*proto.Closure)
	callee := closure.Proto

	newEnv := th.freelist.Acquire(closure.Env, fr.env)

	dotsStart := callee.DotsIndex
	for i, paramName := range callee.ParamNames {
		if dotsStart >= 0 && i == dotsStart {
			break
		}
		if i < len(ci.Args) {
			newEnv.Assign(paramName, th.fetch(fr, ci.Args[i]))
			continue
		}
		if i < len(callee.Nested) && callee.Nested[i] != nil {
			newEnv.Assign(paramName, value.Value{
				Kind: value.KindDefault,
				Ref:  &proto.Default{Thunk: callee.Nested[i], Env: newEnv},
			})
			continue
		}
		// No argument and no default: leave unbound, resolved as a
		// MissingBinding error only if actually read (spec.md section 7).
	}
	if dotsStart >= 0 {
		for k := dotsStart; k < len(ci.Args); k++ {
			name := th.interner.Intern(fmt.Sprintf("..%d", k-dotsStart+1))
			newEnv.Assign(name, th.fetch(fr, ci.Args[k]))
			newEnv.Dots = append(newEnv.Dots, name)
		}
	}

	th.pushFrame(callee, newEnv, fr.base, fr.pc, inst.A, fr.env, true)
	return nil
}

// execUseMethod dispatches to the builtin registered under
// "<generic>.<class>", falling back to "<generic>.default" (spec.md
// section 4.C's "runtime name mangling print.foo").
func (th *Thread) execUseMethod(fr *frame, inst proto.Instruction) error {
	obj := th.fetch(fr, inst.B)
	generic := th.interner.String(inst.C.Name())
	class := classOf(obj, th.interner)

	fn, ok := th.builtins[generic+"."+class]
	if !ok {
		fn, ok = th.builtins[generic+".default"]
	}
	if !ok {
		return diag.New(diag.KindMissingBinding, "no applicable method for '%s' applied to class \"%s\"", generic, class).AtPC(fr.pc)
	}
	result, err := fn(th, nil, []value.Value{obj})
	if err != nil {
		return err
	}
	th.setReg(fr, inst.A.Register(), result)
	return nil
}

// classOf returns the implicit or attribute-declared S3 class name.
func classOf(v value.Value, interner *InternTable) string {
	if v.Kind == value.KindObject {
		if cls := value.GetAttribute(v, classAttrID(interner)); cls.Kind == value.KindCharacter && cls.Length() > 0 {
			return interner.String(cls.CharacterAt(0))
		}
	}
	return v.Kind.String()
}

func classAttrID(interner *InternTable) int32 { return interner.Intern("class") }

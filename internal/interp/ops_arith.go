package interp

import (
	"math"

	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/proto"
	"github.com/tracevm/tracevm/internal/value"
)

// binOpFor maps a binary operator opcode to the value package's BinOp enum,
// so execArith can hand straight off to value.BinaryVector.
var binOpFor = map[proto.OpCode]value.BinOp{
	proto.OpAdd: value.OpAdd, proto.OpSub: value.OpSub, proto.OpMul: value.OpMul,
	proto.OpDiv: value.OpDiv, proto.OpMod: value.OpMod, proto.OpPow: value.OpPow,
	proto.OpEq: value.OpEq, proto.OpNeq: value.OpNeq, proto.OpLt: value.OpLt,
	proto.OpLe: value.OpLe, proto.OpGt: value.OpGt, proto.OpGe: value.OpGe,
	proto.OpAnd: value.OpAnd, proto.OpOr: value.OpOr,
}

// execArith executes one arithmetic/logical/ternary-group instruction.
func (th *Thread) execArith(fr *frame, inst proto.Instruction) error {
	if op, ok := binOpFor[inst.Op]; ok {
		left := th.fetch(fr, inst.B)
		right := th.fetch(fr, inst.C)
		th.setReg(fr, inst.A.Register(), value.BinaryVector(op, left, right, th.interner))
		return nil
	}

	switch inst.Op {
	case proto.OpNeg:
		th.setReg(fr, inst.A.Register(), negate(th.fetch(fr, inst.B)))
		return nil
	case proto.OpNot:
		th.setReg(fr, inst.A.Register(), logicalNot(th.fetch(fr, inst.B)))
		return nil
	case proto.OpIsNA:
		th.setReg(fr, inst.A.Register(), isNAVector(th.fetch(fr, inst.B)))
		return nil
	case proto.OpIsFinite:
		th.setReg(fr, inst.A.Register(), isFiniteVector(th.fetch(fr, inst.B)))
		return nil
	case proto.OpLog:
		th.setReg(fr, inst.A.Register(), unaryMath(th.fetch(fr, inst.B), math.Log, th.interner))
		return nil
	case proto.OpExp:
		th.setReg(fr, inst.A.Register(), unaryMath(th.fetch(fr, inst.B), math.Exp, th.interner))
		return nil
	case proto.OpIfElse, proto.OpSplit:
		return th.execTernary(fr, inst)
	default:
		return diag.New(diag.KindInternal, "interp: unhandled arithmetic opcode %s", inst.Op).AtPC(fr.pc)
	}
}

// execTernary implements `ifelse(cond, yes, no)`-style selection. The
// "else" operand is not a fourth operand slot (instructions carry only
// three); by convention the compiler emits the "then" and "else"
// operands into adjacent registers, with C naming "then" and C+1
// "else" (spec.md section 3's three-operand-slot shape is preserved by
// this convention rather than widened).
func (th *Thread) execTernary(fr *frame, inst proto.Instruction) error {
	cond := th.fetch(fr, inst.B)
	thenVal := th.fetch(fr, inst.C)
	elseVal := th.reg(fr, inst.C.Register()+1)

	n := cond.Length()
	if thenVal.Length() > n {
		n = thenVal.Length()
	}
	if elseVal.Length() > n {
		n = elseVal.Length()
	}
	unified := value.UnifyKind(thenVal.Kind, elseVal.Kind)
	thenC := value.CoerceTo(thenVal, unified, th.interner)
	elseC := value.CoerceTo(elseVal, unified, th.interner)

	out := value.EmptyOfKind(unified)
	result := make([]value.Value, n)
	for i := 0; i < n; i++ {
		ci := value.Recycle(cond.Length(), n, i)
		if cond.Length() == 0 || cond.IsNA(ci) {
			result[i] = naElementOf(unified)
			continue
		}
		if cond.Logical(ci) == value.LogicalTrue {
			result[i] = elementOf(thenC, value.Recycle(thenC.Length(), n, i))
		} else {
			result[i] = elementOf(elseC, value.Recycle(elseC.Length(), n, i))
		}
	}
	for i, e := range result {
		out = withElementSet(out, e, i, th.interner)
	}
	th.setReg(fr, inst.A.Register(), out)
	return nil
}

func negate(v value.Value) value.Value {
	switch v.Kind {
	case value.KindInteger:
		out := make([]int64, v.Length())
		for i := range out {
			if v.IsNA(i) {
				out[i] = value.IntegerNA
			} else {
				out[i] = -v.IntegerAt(i)
			}
		}
		return value.IntegerVector(out)
	case value.KindDouble:
		out := make([]float64, v.Length())
		for i := range out {
			out[i] = -v.DoubleAt(i)
		}
		return value.DoubleVector(out)
	case value.KindComplex:
		out := make([]complex128, v.Length())
		for i := range out {
			out[i] = -v.ComplexAt(i)
		}
		return value.ComplexVector(out)
	default:
		return v
	}
}

func logicalNot(v value.Value) value.Value {
	out := make([]byte, v.Length())
	for i := range out {
		if v.IsNA(i) {
			out[i] = value.LogicalNA
			continue
		}
		if v.Logical(i) == value.LogicalTrue {
			out[i] = value.LogicalFalse
		} else {
			out[i] = value.LogicalTrue
		}
	}
	return value.LogicalVector(out)
}

func isNAVector(v value.Value) value.Value {
	n := v.Length()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if v.IsNA(i) {
			out[i] = value.LogicalTrue
		} else {
			out[i] = value.LogicalFalse
		}
	}
	return value.LogicalVector(out)
}

func isFiniteVector(v value.Value) value.Value {
	n := v.Length()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		switch v.Kind {
		case value.KindDouble:
			f := v.DoubleAt(i)
			if !v.IsNA(i) && !math.IsInf(f, 0) {
				out[i] = value.LogicalTrue
			}
		case value.KindInteger:
			if !v.IsNA(i) {
				out[i] = value.LogicalTrue
			}
		default:
			out[i] = value.LogicalTrue
		}
	}
	return value.LogicalVector(out)
}

func unaryMath(v value.Value, f func(float64) float64, interner value.InternTable) value.Value {
	d := value.CoerceTo(v, value.KindDouble, interner)
	out := make([]float64, d.Length())
	for i := range out {
		if d.IsNA(i) {
			out[i] = value.DoubleNA()
			continue
		}
		out[i] = f(d.DoubleAt(i))
	}
	return value.DoubleVector(out)
}

package exec

import (
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/value"
)

// binOp maps an IR arithmetic/comparison opcode to the value package's
// BinOp enum, mirroring internal/trace's own binValue table (the
// recorder and the executor agree node-for-node on what each op means).
var binOp = map[ir.Op]value.BinOp{
	ir.OpAdd: value.OpAdd, ir.OpSub: value.OpSub, ir.OpMul: value.OpMul,
	ir.OpDiv: value.OpDiv, ir.OpMod: value.OpMod, ir.OpPow: value.OpPow,
	ir.OpEq: value.OpEq, ir.OpNeq: value.OpNeq, ir.OpLt: value.OpLt,
	ir.OpLe: value.OpLe, ir.OpGt: value.OpGt, ir.OpGe: value.OpGe,
	ir.OpAnd: value.OpAnd, ir.OpOr: value.OpOr,
}

// isDataOp reports whether op produces a value this package's tiled
// pass computes — every other op (guards, stores, phi, exit, jmpback,
// the environment-walk nodes resolved in pass 0) is bookkeeping pass 1
// must leave alone. Guard nodes in particular carry a non-empty Out
// Shape of their own (internal/trace's OpGLen emission stashes the
// length to check in Out.ConcreteLength), so Out.IsEmpty() alone can't
// distinguish them from a real vector-producing node — this explicit
// allowlist is what pass 1 and traceLength both key off instead.
func isDataOp(op ir.Op) bool {
	switch op {
	case ir.OpConstant, ir.OpSLoad, ir.OpLoad, ir.OpCast, ir.OpNeg, ir.OpNot,
		ir.OpRep, ir.OpSeq, ir.OpGather, ir.OpScatter:
		return true
	}
	_, ok := binOp[op]
	return ok
}

// runTile dispatches node i's per-op kernel. Binary/unary arithmetic,
// casts, constants, and loads materialize their whole result the first
// time this is called for a node (start == 0) and are no-ops on later
// tiles — internal/value exposes these as single-shot vector kernels,
// not a windowed streaming form, so "running the kernel per tile" for
// them means "run it once, on the tile that first reaches it". Sequence
// and gather/scatter construct their result element-by-element and so
// are genuinely computed TileWidth elements at a time, advancing
// exactly as spec.md 4.H describes ("incrementing pointers... advance
// by TILE after each tile").
func (ti *TileInterpreter) runTile(f *Frame, ref ir.Ref, n ir.Node, entry EntryState, start, end, length int) error {
	switch n.Op {
	case ir.OpConstant:
		if start == 0 {
			f.vals[ref] = ti.constant(f, n)
		}
	case ir.OpSLoad, ir.OpLoad:
		if start == 0 {
			f.vals[ref] = sloadValue(f, entry, n)
		}
	case ir.OpCast:
		if start == 0 {
			f.vals[ref] = value.CoerceTo(f.vals[n.A], n.ResultType, entry.Interner)
		}
	case ir.OpNeg, ir.OpNot:
		if start == 0 {
			f.vals[ref] = unaryVector(n.Op, f.vals[n.A], n.ResultType)
		}
	case ir.OpRep:
		tileRep(f, ref, n, start, end)
	case ir.OpSeq:
		tileSeq(f, ref, n, start, end)
	case ir.OpGather:
		tileGather(f, ref, n, start, end)
	case ir.OpScatter:
		tileScatter(f, ref, n, start, end)
	default:
		if op, ok := binOp[n.Op]; ok {
			if start == 0 {
				f.vals[ref] = value.BinaryVector(op, f.vals[n.A], f.vals[n.B], entry.Interner)
			}
			return nil
		}
		return diagInternal("exec: tile interpreter has no kernel for op %s", n.Op)
	}
	return nil
}

func (ti *TileInterpreter) constant(f *Frame, n ir.Node) value.Value {
	if int(n.Imm) < 0 {
		return value.Nil()
	}
	return f.buf.Constants[n.Imm]
}

// sloadValue resolves an sload's concrete value from the entry state: a
// register Variable reads the snapshot taken when the trace was
// entered; a name Variable reads the environment node ref (resolved by
// exec.Run's pass 0) produced and walked.
func sloadValue(f *Frame, entry EntryState, n ir.Node) value.Value {
	if n.Var.EnvRef == ir.RegisterEnv {
		r := int(n.Var.Name)
		if r >= 0 && r < len(entry.Registers) {
			return entry.Registers[r]
		}
		return value.Nil()
	}
	env := f.EnvAt(n.Var.EnvRef)
	if env == nil {
		return value.Nil()
	}
	return env.GetRaw(n.Var.Name)
}

func unaryVector(op ir.Op, a value.Value, resultType value.Kind) value.Value {
	n := a.Length()
	switch op {
	case ir.OpNot:
		out := make([]byte, n)
		for i := 0; i < n; i++ {
			if a.IsNA(i) {
				out[i] = value.LogicalNA
				continue
			}
			if a.Logical(i) == value.LogicalTrue {
				out[i] = value.LogicalFalse
			} else {
				out[i] = value.LogicalTrue
			}
		}
		return value.LogicalVector(out)
	case ir.OpNeg:
		switch resultType {
		case value.KindDouble:
			out := make([]float64, n)
			for i := 0; i < n; i++ {
				if a.IsNA(i) {
					out[i] = value.DoubleNA()
					continue
				}
				out[i] = -a.DoubleAt(i)
			}
			return value.DoubleVector(out)
		case value.KindComplex:
			out := make([]complex128, n)
			for i := 0; i < n; i++ {
				if a.IsNA(i) {
					out[i] = value.ComplexNA()
					continue
				}
				out[i] = -a.ComplexAt(i)
			}
			return value.ComplexVector(out)
		default:
			out := make([]int64, n)
			for i := 0; i < n; i++ {
				if a.IsNA(i) {
					out[i] = value.IntegerNA
					continue
				}
				out[i] = -a.IntegerAt(i)
			}
			return value.IntegerVector(out)
		}
	default:
		return value.Nil()
	}
}

// tileRep fills elements [start,end) of node ref's repeated-element
// result, allocating the backing vector on the first tile.
func tileRep(f *Frame, ref ir.Ref, n ir.Node, start, end int) {
	total := n.Out.ConcreteLength
	if start == 0 {
		f.vals[ref] = growVector(value.EmptyOfKind(n.ResultType), total)
	}
	src := f.vals[n.A]
	for i := start; i < end && i < total; i++ {
		copyElement(f.vals[ref], i, src, 0)
	}
}

// tileSeq fills elements [start,end) of a seq(len, step) node: integer
// offsets 0..len-1 (the recorder always specializes seq to a Double
// vector of consecutive offsets — see internal/trace's OpSeq emission).
func tileSeq(f *Frame, ref ir.Ref, n ir.Node, start, end int) {
	total := n.Out.ConcreteLength
	if start == 0 {
		f.vals[ref] = value.DoubleVector(make([]float64, total))
	}
	for i := start; i < end && i < total; i++ {
		f.vals[ref].SetDouble(i, float64(i))
	}
}

// tileGather fills elements [start,end) of a gather(base, index) node:
// result[i] = base[index[i]] (indices already 0-based — the recorder
// subtracts 1 at emission time per spec.md 4.D).
func tileGather(f *Frame, ref ir.Ref, n ir.Node, start, end int) {
	total := n.Out.ConcreteLength
	base, idx := f.vals[n.A], f.vals[n.B]
	if start == 0 {
		f.vals[ref] = growVector(value.EmptyOfKind(n.ResultType), total)
	}
	for i := start; i < end && i < total; i++ {
		if idx.IsNA(i) {
			continue
		}
		at := int(idx.IntegerAt(i))
		if at < 0 || at >= base.Length() {
			continue
		}
		copyElement(f.vals[ref], i, base, at)
	}
}

// tileScatter fills elements [start,end) of a scatter(base, index,
// value) node: result = base with result[index[i]] = value[i], base
// elements not targeted by any index pass through unchanged.
func tileScatter(f *Frame, ref ir.Ref, n ir.Node, start, end int) {
	base := f.vals[n.A]
	if start == 0 {
		f.vals[ref] = growVector(value.EmptyOfKind(n.ResultType), base.Length())
		for i := 0; i < base.Length(); i++ {
			copyElement(f.vals[ref], i, base, i)
		}
	}
	idx, vals := f.vals[n.B], f.vals[n.C]
	total := idx.Length()
	for i := start; i < end && i < total; i++ {
		if idx.IsNA(i) {
			continue
		}
		at := int(idx.IntegerAt(i))
		if at < 0 || at >= f.vals[ref].Length() {
			continue
		}
		copyElement(f.vals[ref], at, vals, i%vals.Length())
	}
}

// growVector returns a fresh zero-valued vector of kind v.Kind and
// length n (v itself is discarded — it only carries the Kind tag).
func growVector(v value.Value, n int) value.Value {
	switch v.Kind {
	case value.KindLogical:
		return value.LogicalVector(make([]byte, n))
	case value.KindInteger:
		return value.IntegerVector(make([]int64, n))
	case value.KindDouble:
		return value.DoubleVector(make([]float64, n))
	case value.KindComplex:
		return value.ComplexVector(make([]complex128, n))
	case value.KindCharacter:
		return value.CharacterVector(make([]int32, n))
	case value.KindList:
		return value.ListVector(make([]value.Value, n))
	default:
		return v
	}
}

// copyElement writes src[si] into dst[di]; dst and src must share a
// Kind (the caller is responsible for coercing beforehand, same
// discipline internal/value's own kernels follow).
func copyElement(dst value.Value, di int, src value.Value, si int) {
	switch dst.Kind {
	case value.KindLogical:
		dst.SetLogical(di, src.Logical(si))
	case value.KindInteger:
		dst.SetInteger(di, src.IntegerAt(si))
	case value.KindDouble:
		dst.SetDouble(di, src.DoubleAt(si))
	case value.KindComplex:
		dst.SetComplex(di, src.ComplexAt(si))
	case value.KindCharacter:
		dst.SetCharacter(di, src.CharacterAt(si))
	case value.KindList:
		dst.SetList(di, src.ListAt(si))
	}
}

// evalGuard checks a single guard node against already-computed
// values, returning false on failure (spec.md 4.H's exit trigger).
// interner resolves gclass's "class" attribute key and its immediate
// operand to the same interned ids internal/interp's classOf uses, so
// a trace never disagrees with the interpreter about what an object's
// class is.
func evalGuard(f *Frame, n ir.Node, interner value.InternTable) bool {
	switch n.Op {
	case ir.OpGTrue:
		a := f.vals[n.A]
		return a.Length() > 0 && !a.IsNA(0) && a.Logical(0) == value.LogicalTrue
	case ir.OpGFalse:
		a := f.vals[n.A]
		return a.Length() > 0 && !a.IsNA(0) && a.Logical(0) == value.LogicalFalse
	case ir.OpGLen:
		return f.vals[n.A].Length() == n.Out.ConcreteLength
	case ir.OpGShapeRange:
		shorter, longer := f.vals[n.A].Length(), f.vals[n.B].Length()
		return shorter > 0 && shorter <= longer
	case ir.OpGClass:
		return classOf(f.vals[n.A], interner) == n.Imm
	case ir.OpGNameBound:
		env := f.EnvAt(n.A)
		if env == nil {
			return true // no environment to be bound in: the speculation holds vacuously
		}
		return env.Get(n.Imm).Kind == value.KindNil
	default:
		return true
	}
}

// classOf mirrors internal/interp's ops_control.go classOf/classAttrID:
// an object's class is whatever Character id sits under its "class"
// attribute, interned through the same table the interpreter uses, so
// gclass and the interpreter's implicit-class builtin never disagree
// on the id a given class name resolves to. A non-Object value (or one
// with no class attribute) has no class id to compare against.
func classOf(v value.Value, interner value.InternTable) int32 {
	if v.Kind != value.KindObject {
		return value.CharacterNA
	}
	attr := value.GetAttribute(v, interner.Intern("class"))
	if attr.Kind != value.KindCharacter || attr.Length() == 0 {
		return value.CharacterNA
	}
	return attr.CharacterAt(0)
}

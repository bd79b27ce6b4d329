package interp

import "github.com/tracevm/tracevm/internal/value"

// elementOf extracts the value at index i of v as a length-1 Value of
// v's own Kind (spec.md section 4.A's element-access contract).
func elementOf(v value.Value, i int) value.Value {
	switch v.Kind {
	case value.KindLogical:
		return value.Logical(v.Logical(i))
	case value.KindInteger:
		return value.Integer(v.IntegerAt(i))
	case value.KindDouble:
		return value.Double(v.DoubleAt(i))
	case value.KindComplex:
		return value.ComplexVector([]complex128{v.ComplexAt(i)})
	case value.KindCharacter:
		return value.Character(v.CharacterAt(i))
	case value.KindList:
		return v.ListAt(i)
	default:
		return value.Nil()
	}
}

// naElementOf returns the NA sentinel of kind k, for padding a vector
// that is growing to accommodate an out-of-range assignment index
// (spec.md section 4.A/4.C's `x[i] <- v` "grows the vector" edge case).
func naElementOf(k value.Kind) value.Value {
	switch k {
	case value.KindLogical:
		return value.Logical(value.LogicalNA)
	case value.KindInteger:
		return value.Integer(value.IntegerNA)
	case value.KindDouble:
		return value.Double(value.DoubleNA())
	case value.KindComplex:
		return value.ComplexVector([]complex128{value.ComplexNA()})
	case value.KindCharacter:
		return value.Character(value.CharacterNA)
	default:
		return value.Nil()
	}
}

// withElementSet returns a new vector equal to base (coerced up to the
// wider of base's and elem's kind, per the coercion lattice) with index
// idx (0-based) set to elem, growing and NA-padding the vector if idx is
// beyond base's current length.
func withElementSet(base, elem value.Value, idx int, interner *InternTable) value.Value {
	target := value.UnifyKind(base.Kind, elem.Kind)
	if target == value.KindList && base.Kind != value.KindList {
		// A list assignment target promotes a bare vector to a list of
		// its own elements, matching R's `x[[i]] <- someList` widening.
		base = value.CoerceTo(base, value.KindList, interner)
	} else {
		base = value.CoerceTo(base, target, interner)
	}
	elem = value.CoerceTo(elem, target, interner)

	n := base.Length()
	length := n
	if idx+1 > length {
		length = idx + 1
	}

	switch target {
	case value.KindLogical:
		out := make([]byte, length)
		for i := 0; i < n; i++ {
			out[i] = base.Logical(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.LogicalNA
		}
		out[idx] = elem.Logical(0)
		return value.LogicalVector(out)
	case value.KindInteger:
		out := make([]int64, length)
		for i := 0; i < n; i++ {
			out[i] = base.IntegerAt(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.IntegerNA
		}
		out[idx] = elem.IntegerAt(0)
		return value.IntegerVector(out)
	case value.KindDouble:
		out := make([]float64, length)
		for i := 0; i < n; i++ {
			out[i] = base.DoubleAt(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.DoubleNA()
		}
		out[idx] = elem.DoubleAt(0)
		return value.DoubleVector(out)
	case value.KindComplex:
		out := make([]complex128, length)
		for i := 0; i < n; i++ {
			out[i] = base.ComplexAt(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.ComplexNA()
		}
		out[idx] = elem.ComplexAt(0)
		return value.ComplexVector(out)
	case value.KindCharacter:
		out := make([]int32, length)
		for i := 0; i < n; i++ {
			out[i] = base.CharacterAt(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.CharacterNA
		}
		out[idx] = elem.CharacterAt(0)
		return value.CharacterVector(out)
	case value.KindList:
		out := make([]value.Value, length)
		for i := 0; i < n; i++ {
			out[i] = base.ListAt(i)
		}
		for i := n; i < length; i++ {
			out[i] = value.Null()
		}
		out[idx] = elem
		return value.ListVector(out)
	default:
		return base
	}
}

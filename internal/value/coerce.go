package value

// InternTable resolves and assigns ids for interned Character elements.
// Coercion to/from Character needs this since the character payload is an
// id, not a string; the interpreter's Thread satisfies it.
type InternTable interface {
	Intern(s string) int32
	String(id int32) string
}

// UnifyKind returns the wider of two kinds under the coercion precedence
// "null < logical < integer < double < complex < character < list"
// (spec.md section 4.A), used to unify heterogeneous vectors before a
// binary op.
func UnifyKind(a, b Kind) Kind {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func rank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindLogical:
		return 1
	case KindInteger:
		return 2
	case KindDouble:
		return 3
	case KindComplex:
		return 4
	case KindCharacter:
		return 5
	case KindList:
		return 6
	default:
		return -1
	}
}

// CoerceTo converts v to the target Kind element-wise, propagating NA.
// Coercion between numeric/logical/character follows the precedence order;
// coercing "up" the lattice (e.g. logical->double) is lossless, coercing
// "down" (e.g. double->logical) treats any nonzero, non-NA value as true.
func CoerceTo(v Value, target Kind, interner InternTable) Value {
	if v.Kind == target {
		return v
	}
	n := v.Length()
	switch target {
	case KindLogical:
		out := make([]byte, n)
		for i := 0; i < n; i++ {
			out[i] = toLogical(v, i)
		}
		return LogicalVector(out)
	case KindInteger:
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = toInteger(v, i)
		}
		return IntegerVector(out)
	case KindDouble:
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = toDouble(v, i)
		}
		return DoubleVector(out)
	case KindComplex:
		out := make([]complex128, n)
		for i := 0; i < n; i++ {
			out[i] = toComplex(v, i)
		}
		return ComplexVector(out)
	case KindCharacter:
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = toCharacter(v, i, interner)
		}
		return CharacterVector(out)
	case KindList:
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = elementAsValue(v, i, interner)
		}
		return ListVector(out)
	default:
		return v
	}
}

func toLogical(v Value, i int) byte {
	if v.IsNA(i) {
		return LogicalNA
	}
	switch v.Kind {
	case KindLogical:
		return v.logical[i]
	case KindInteger:
		if v.integer[i] != 0 {
			return LogicalTrue
		}
		return LogicalFalse
	case KindDouble:
		if v.double[i] != 0 {
			return LogicalTrue
		}
		return LogicalFalse
	default:
		return LogicalNA
	}
}

func toInteger(v Value, i int) int64 {
	if v.IsNA(i) {
		return IntegerNA
	}
	switch v.Kind {
	case KindLogical:
		if v.logical[i] == LogicalTrue {
			return 1
		}
		return 0
	case KindInteger:
		return v.integer[i]
	case KindDouble:
		return int64(v.double[i])
	default:
		return IntegerNA
	}
}

func toDouble(v Value, i int) float64 {
	if v.IsNA(i) {
		return DoubleNA()
	}
	switch v.Kind {
	case KindLogical:
		if v.logical[i] == LogicalTrue {
			return 1
		}
		return 0
	case KindInteger:
		return float64(v.integer[i])
	case KindDouble:
		return v.double[i]
	case KindComplex:
		return real(v.complexv[i])
	default:
		return DoubleNA()
	}
}

func toComplex(v Value, i int) complex128 {
	if v.IsNA(i) {
		return ComplexNA()
	}
	if v.Kind == KindComplex {
		return v.complexv[i]
	}
	return complex(toDouble(v, i), 0)
}

func toCharacter(v Value, i int, interner InternTable) int32 {
	if v.IsNA(i) || interner == nil {
		return CharacterNA
	}
	if v.Kind == KindCharacter {
		return v.character[i]
	}
	return interner.Intern(elementString(v, i, interner))
}

func elementAsValue(v Value, i int, interner InternTable) Value {
	switch v.Kind {
	case KindLogical:
		return Logical(v.logical[i])
	case KindInteger:
		return Integer(v.integer[i])
	case KindDouble:
		return Double(v.double[i])
	case KindComplex:
		return ComplexVector([]complex128{v.complexv[i]})
	case KindCharacter:
		return Character(v.character[i])
	case KindList:
		return v.list[i]
	default:
		return Nil()
	}
}

func elementString(v Value, i int, interner InternTable) string {
	switch v.Kind {
	case KindCharacter:
		return interner.String(v.character[i])
	default:
		return ""
	}
}

package value

import "math"

// NA sentinels, per spec.md section 3.
const (
	LogicalFalse byte = 0
	LogicalTrue  byte = 1
	LogicalNA    byte = 2

	IntegerNA = int64(math.MinInt64)

	// CharacterNA is the interned-id sentinel for a missing character
	// element. Valid interned ids are always >= 0, including 0 for the
	// distinguished empty string, so -1 is free to use as NA.
	CharacterNA int32 = -1
)

// doubleNABits is a specific signaling-NaN bit pattern distinguished from
// any NaN a floating point computation would otherwise produce, so
// IsDoubleNA can tell "this slot was never set" apart from "this is the
// result of 0.0/0.0" (IsNA counts both as NA).
const doubleNABits = uint64(0x7FF00000000007A2)

// DoubleNA returns the distinguished NA double value.
func DoubleNA() float64 { return math.Float64frombits(doubleNABits) }

// IsDoubleNA reports whether f is exactly the NA bit pattern (not just
// any NaN).
func IsDoubleNA(f float64) bool { return math.Float64bits(f) == doubleNABits }

// IsNA reports whether the element at index i of v is the NA sentinel for
// its Kind. For Double it also returns true for every other NaN pattern,
// per spec.md section 4.A ("is.na identifies both NA and NaN for double").
func (v Value) IsNA(i int) bool {
	switch v.Kind {
	case KindLogical:
		return v.logical[i] == LogicalNA
	case KindInteger:
		return v.integer[i] == IntegerNA
	case KindDouble:
		return math.IsNaN(v.double[i])
	case KindComplex:
		c := v.complexv[i]
		return math.IsNaN(real(c)) || math.IsNaN(imag(c))
	case KindCharacter:
		return v.character[i] == CharacterNA
	default:
		return false
	}
}

// ComplexNA returns the distinguished NA complex value.
func ComplexNA() complex128 { return complex(DoubleNA(), DoubleNA()) }

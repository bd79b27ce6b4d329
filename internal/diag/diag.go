// Package diag implements the error taxonomy of spec.md section 7: type
// errors, arity errors, subscript errors, and missing-binding errors all
// unwind to the nearest interpreter invocation boundary as *diag.Error.
// Trace aborts and guard failures are deliberately NOT represented here —
// they are control-flow values (trace.AbortReason, an exit index), not
// errors, per spec.md section 7's "Trace abort — not an error" /
// "Guard failure — not an error" notes.
//
// Grounded on the teacher's errors/errors.go (CompilerError: a
// caret-annotated source-position formatter), generalized from
// "position in source" to "position in the running program" (PC +
// exception kind) and built on github.com/pkg/errors so every raise site
// keeps a stack trace, the way bin2ll (an LLVM-lowering tool of similar
// shape in the example pack) wraps its own errors.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind categorizes a runtime error so callers can branch on category
// instead of matching message strings.
type Kind uint8

const (
	KindType Kind = iota
	KindArity
	KindSubscript
	KindMissingBinding
	KindAssemblerOverflow
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type error"
	case KindArity:
		return "arity error"
	case KindSubscript:
		return "subscript out of bounds"
	case KindMissingBinding:
		return "object not found"
	case KindAssemblerOverflow:
		return "assembler buffer overflow"
	default:
		return "internal error"
	}
}

// Error is the runtime-error type raised via _error and propagated to
// the nearest eval boundary (spec.md section 7).
type Error struct {
	Kind    Kind
	Message string
	PC      int
	cause   error
}

// New raises a *Error of the given kind with a stack trace captured at
// the call site.
func New(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: msg, cause: errors.New(msg)}
}

// AtPC attaches the interpreter program counter active when the error was
// raised, for diagnostics.
func (e *Error) AtPC(pc int) *Error {
	e.PC = pc
	return e
}

func (e *Error) Error() string {
	if e.PC != 0 {
		return fmt.Sprintf("%s: %s (pc=%d)", e.Kind, e.Message, e.PC)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StackTrace exposes the captured stack, via github.com/pkg/errors, for
// --verbose diagnostics.
func (e *Error) StackTrace() errors.StackTrace {
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if st, ok := e.cause.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// TypeError, ArityError, SubscriptError, and MissingBinding are the
// convenience constructors spec.md section 7 names directly.

func TypeError(format string, args ...any) *Error {
	return New(KindType, format, args...)
}

func ArityError(format string, args ...any) *Error {
	return New(KindArity, format, args...)
}

func SubscriptError(format string, args ...any) *Error {
	return New(KindSubscript, format, args...)
}

// MissingBinding reports "object not found" for a non-promise, non-default
// Nil binding consumed by the interpreter.
func MissingBinding(name string) *Error {
	return New(KindMissingBinding, "object '%s' not found", name)
}

package proto

import (
	"github.com/tracevm/tracevm/internal/rtenv"
	"github.com/tracevm/tracevm/internal/value"
)

// Closure is the payload of a Function Value: a prototype paired with
// its defining (lexical) environment, per spec.md section 3.
type Closure struct {
	Proto *Prototype
	Env   *rtenv.Environment
}

// Promise is the payload of a Promise Value: a thunk captured at call
// time, forced on first read, with the forced value replacing the
// promise in Slot. Spec.md section 3 and the glossary.
type Promise struct {
	Thunk  *Prototype
	Env    *rtenv.Environment
	Slot   Operand
	Forced bool
	Value  value.Value
}

// Default is identical to Promise except it is evaluated in the callee's
// environment for default-argument expressions (glossary: "Default").
type Default struct {
	Thunk  *Prototype
	Env    *rtenv.Environment
	Slot   Operand
	Forced bool
	Value  value.Value
}

// StackFrame is the interpreter's call-frame record, spec.md section 3.
type StackFrame struct {
	Env         *rtenv.Environment
	Proto       *Prototype
	ReturnBase  int
	ReturnPC    int
	Destination Operand
	CallerEnv   *rtenv.Environment
	OwnsEnv     bool // this frame may recycle Env on return if closure-safe
}

// ClosureSafe reports whether v is safe to recycle the frame's
// environment after return: v does not itself capture (is not a
// Function/Promise/Default whose Env is this frame's environment, and is
// not an Environment value referencing it).
func ClosureSafe(v value.Value, env *rtenv.Environment) bool {
	switch v.Kind {
	case value.KindFunction:
		return v.Ref.(*Closure).Env != env
	case value.KindPromise:
		return v.Ref.(*Promise).Env != env
	case value.KindDefault:
		return v.Ref.(*Default).Env != env
	case value.KindEnvironment:
		return v.Ref.(*rtenv.Environment) != env
	default:
		return true
	}
}

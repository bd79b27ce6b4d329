// Package rtenv implements the Environment component (spec.md section
// 4.B): a name->Value mapping with lexical and dynamic parent chains,
// recursive lookup/insert, and a dots slot for "..1", "..2", ... capture.
//
// No teacher analog exists for this package (DWScript's scope handling
// lived inside its tree-walking interp package, deleted as out of scope
// per spec.md section 1); it follows the teacher's constructor/field
// naming idiom (New..., plain structs, explicit nil checks) applied to
// the Environment contract spec.md describes directly.
package rtenv

import "github.com/tracevm/tracevm/internal/value"

// Environment is an ordered name->Value mapping with lexical and dynamic
// parent chains.
type Environment struct {
	bindings map[int32]value.Value
	order    []int32 // insertion order, for deterministic iteration/printing
	Lexical  *Environment
	Dynamic  *Environment
	Dots     []int32 // interned names for ..1, ..2, ...
	Call     any     // reified call expression, opaque to this package
}

// New creates an empty Environment with the given lexical and dynamic
// parents. Either may be nil at the global environment.
func New(lexical, dynamic *Environment) *Environment {
	return &Environment{
		bindings: make(map[int32]value.Value),
		Lexical:  lexical,
		Dynamic:  dynamic,
	}
}

// Assign binds name to v in this environment, overwriting any existing
// binding.
func (e *Environment) Assign(name int32, v value.Value) {
	if _, exists := e.bindings[name]; !exists {
		e.order = append(e.order, name)
	}
	e.bindings[name] = v
}

// Get returns the Value bound to name in this environment only (no
// parent walk), or Nil if unbound. Promises and Defaults are returned
// uninterpreted: only the interpreter decides to force them.
func (e *Environment) Get(name int32) value.Value {
	if v, ok := e.bindings[name]; ok {
		return v
	}
	return value.Nil()
}

// GetRaw is an alias for Get that documents call sites which must not
// force a promise even implicitly (spec.md section 4.B: "getRaw-style
// fetches skip forcing" — forcing never happens in this package, only in
// internal/interp, so GetRaw and Get are identical here).
func (e *Environment) GetRaw(name int32) value.Value { return e.Get(name) }

// GetRecursive walks the lexical parent chain starting at e, returning
// the first binding found, or Nil if name is unbound anywhere in the
// chain.
func (e *Environment) GetRecursive(name int32) value.Value {
	for env := e; env != nil; env = env.Lexical {
		if v, ok := env.bindings[name]; ok {
			return v
		}
	}
	return value.Nil()
}

// InsertRecursive writes v into the nearest enclosing environment that
// already binds name, walking lexical parents; if no environment in the
// chain binds name, it is inserted into the outermost (global)
// environment, per spec.md section 4.B.
func (e *Environment) InsertRecursive(name int32, v value.Value) {
	outer := e
	for env := e; env != nil; env = env.Lexical {
		if _, ok := env.bindings[name]; ok {
			env.Assign(name, v)
			return
		}
		outer = env
	}
	outer.Assign(name, v)
}

// Rm removes a binding from this environment. It reports whether name was
// bound.
func (e *Environment) Rm(name int32) bool {
	if _, ok := e.bindings[name]; !ok {
		return false
	}
	delete(e.bindings, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the bound names in insertion order (debug/dump use).
func (e *Environment) Names() []int32 {
	return e.order
}

// reset clears all bindings so the Environment can be recycled by the
// Thread's free list (spec.md section 9, "global mutable state").
func (e *Environment) reset(lexical, dynamic *Environment) {
	for k := range e.bindings {
		delete(e.bindings, k)
	}
	e.order = e.order[:0]
	e.Lexical = lexical
	e.Dynamic = dynamic
	e.Dots = nil
	e.Call = nil
}

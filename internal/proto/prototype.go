package proto

import "github.com/tracevm/tracevm/internal/value"

// Prototype is a compiled unit: immutable once emitted by the (out of
// scope) compiler. Spec.md section 3: "constants array, nested
// prototypes, compiled-call table..., and an instruction stream."
type Prototype struct {
	Name       string
	Constants  []value.Value
	Nested     []*Prototype
	Calls      []CallInfo
	Code       []Instruction
	NumParams  int
	ParamNames []int32
	DotsIndex  int // index of the first "..." parameter, or -1
	NumSlots   int // register slots this prototype's frame reserves
	Source     string
}

// Validate checks structural invariants the interpreter relies on
// without re-deriving them on every call.
func (p *Prototype) Validate() error {
	for _, inst := range p.Code {
		for _, operand := range [3]Operand{inst.A, inst.B, inst.C} {
			if operand.IsRegister() && operand.Register() >= p.NumSlots {
				return errInvalidRegister
			}
		}
	}
	return nil
}

var errInvalidRegister = protoError("prototype: register operand out of range")

type protoError string

func (e protoError) Error() string { return string(e) }

package rtenv

import (
	"fmt"
	"io"
)

// Dump writes a human-readable listing of env's own bindings (not its
// parent chain) to w, for --verbose diagnostics.
func (e *Environment) Dump(w io.Writer, interner interface{ String(int32) string }) {
	fmt.Fprintf(w, "environment@%p (%d bindings)\n", e, len(e.order))
	for _, name := range e.order {
		label := fmt.Sprintf("#%d", name)
		if interner != nil {
			label = interner.String(name)
		}
		v := e.bindings[name]
		fmt.Fprintf(w, "  %s = %s\n", label, v.String())
	}
}

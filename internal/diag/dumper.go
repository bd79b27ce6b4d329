package diag

import (
	"io"

	"github.com/kr/pretty"
)

// Dumper writes verbose/trace-dump output (compiled traces, IR dumps,
// disassembly listings) the way cmd/tracevm's --verbose flag requests
// (spec.md section 3.2 supplement). It is a thin wrapper over
// github.com/kr/pretty, the struct-dump library the teacher pulls in
// transitively through go-snaps; here it gets a direct caller instead of
// only backing a test-assertion diff.
type Dumper struct {
	w       io.Writer
	enabled bool
}

// NewDumper builds a Dumper writing to w. enabled gates every method as
// a no-op when false, so call sites don't need their own "--verbose"
// check before every dump call.
func NewDumper(w io.Writer, enabled bool) *Dumper {
	return &Dumper{w: w, enabled: enabled}
}

// Enabled reports whether this Dumper actually writes anything.
func (d *Dumper) Enabled() bool {
	return d != nil && d.enabled
}

// Dump pretty-prints label and each value in vs, one per line, via
// kr/pretty's Fprintf (the same formatter go-snaps uses under the hood
// to render snapshot diffs).
func (d *Dumper) Dump(label string, vs ...any) {
	if !d.Enabled() {
		return
	}
	pretty.Fprintf(d.w, "%s:\n", label)
	for _, v := range vs {
		pretty.Fprintf(d.w, "  %# v\n", v)
	}
}

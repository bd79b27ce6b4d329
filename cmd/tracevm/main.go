// Command tracevm runs the hand-built demo programs in internal/demo
// through the tracing-JIT pipeline (spec.md), and exposes the
// introspection subcommands SPEC_FULL.md's "Supplemented features"
// section names: disassembly and trace-cache JSON dumps.
package main

import (
	"fmt"
	"os"

	"github.com/tracevm/tracevm/cmd/tracevm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

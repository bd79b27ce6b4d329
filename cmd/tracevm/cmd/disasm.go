package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracevm/tracevm/internal/demo"
	"github.com/tracevm/tracevm/internal/exec"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/pipeline"
)

var disasmStartPC int

var disasmCmd = &cobra.Command{
	Use:   "disasm <demo>",
	Short: "Run a demo and disassemble whatever trace its JIT compiled",
	Long: `Runs a demo program with the tracing JIT attached, then lowers the
compiled trace found at --start-pc to x86-64 (exec.Compile) and
disassembles it (internal/asm.Decode) — the "tracevm disasm" subcommand
SPEC_FULL.md's Supplemented features section names.

Only a demo whose loop is long enough to cross the tile threshold
(config.TuningConfig.TileThreshold, 128 by default) actually produces a
trace; loop-sum does, vector-add does not.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().IntVar(&disasmStartPC, "start-pc", 3, "the trace cache key to disassemble (the loop body's instruction index)")
}

func runDisasm(_ *cobra.Command, args []string) error {
	prog, ok := demo.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown demo %q (see tracevm run --list)", args[0])
	}

	cfg, err := loadTuning()
	if err != nil {
		return err
	}
	cfg.JITEnabled = true

	th := interp.NewThread()
	pipe := pipeline.New(cfg)
	pipe.Attach(th)

	if _, err := th.Eval(prog.Build(), nil); err != nil {
		return fmt.Errorf("running %s: %w", prog.Name, err)
	}

	entry := pipe.Cache().Get(disasmStartPC)
	if entry == nil {
		return fmt.Errorf("no trace was compiled at pc %d for %s (try a different --start-pc, or a demo with a longer loop)", disasmStartPC, prog.Name)
	}

	mc, err := exec.Compile(exec.NewTrace(entry.Optimized, entry.Schedule, entry.Assignment))
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}
	lines, err := mc.Disassemble()
	if err != nil {
		return fmt.Errorf("disassembling: %w", err)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracevm/tracevm/internal/demo"
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/pipeline"
)

var listDemos bool

var runCmd = &cobra.Command{
	Use:   "run [demo]",
	Short: "Run a demo program through the tracing JIT",
	Long: `Execute one of the hand-built demo programs in internal/demo.

Examples:
  # List the available demos
  tracevm run --list

  # Run the loop-sum demo with the JIT enabled (the default)
  tracevm run loop-sum

  # Run without tracing, interpreting every instruction directly
  tracevm run --jit=false loop-sum

  # Run with verbose trace/IR dump output
  tracevm run -v loop-sum`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&listDemos, "list", false, "list the available demo programs and exit")
}

func runDemo(_ *cobra.Command, args []string) error {
	if listDemos {
		fmt.Print(demo.Describe())
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: tracevm run [--jit=bool] [-v] <demo>  (see --list)")
	}

	prog, ok := demo.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown demo %q (see tracevm run --list)", args[0])
	}

	cfg, err := loadTuning()
	if err != nil {
		return err
	}

	th := interp.NewThreadWithOutput(os.Stdout)
	pipe := pipeline.New(cfg)
	pipe.SetDumper(diag.NewDumper(os.Stderr, verbose))
	pipe.Attach(th)

	result, err := th.Eval(prog.Build(), nil)
	if err != nil {
		return fmt.Errorf("running %s: %w", prog.Name, err)
	}

	fmt.Printf("%s => %s\n", prog.Name, result.String())
	if verbose {
		traces := pipe.Cache().Len()
		fmt.Fprintf(os.Stderr, "traces compiled: %d\n", traces)
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracevm/tracevm/internal/demo"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/pipeline"
	"github.com/tracevm/tracevm/internal/tracecache"
)

var traceQuery string

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace cache introspection",
}

var traceDumpCmd = &cobra.Command{
	Use:   "dump <demo>",
	Short: "Run a demo and dump its compiled trace cache as JSON",
	Long: `Runs a demo program with the tracing JIT attached and renders its trace
cache as a JSON document (internal/tracecache.DumpJSON) — the "tracevm
trace dump" subcommand SPEC_FULL.md's Supplemented features section
names. This is a debug/introspection surface only; it is not consulted
by the interpreter's hot path.

--query runs a gjson path against the dumped document instead of
printing the whole thing, e.g. --query "traces.0.exits.0.hits".`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceDump,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceDumpCmd)
	traceDumpCmd.Flags().StringVar(&traceQuery, "query", "", "gjson path to extract instead of the whole document")
}

func runTraceDump(_ *cobra.Command, args []string) error {
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

	doc, err := tracecache.DumpJSON(pipe.Cache())
	if err != nil {
		return fmt.Errorf("dumping trace cache: %w", err)
	}

	if traceQuery != "" {
		fmt.Println(tracecache.Query(doc, traceQuery).String())
		return nil
	}
	fmt.Println(string(doc))
	return nil
}

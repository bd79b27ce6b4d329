package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracevm/tracevm/internal/config"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configPath string
	jitFlag    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tracevm",
	Short: "Tracing-JIT vector interpreter",
	Long: `tracevm is a register-based bytecode interpreter for a small vector
language, backed by an on-stack-replacement tracing JIT: hot loops are
shadow-recorded into a typed IR, optimized (constant/load/store
forwarding, dead-store elimination), scheduled into fusable groups,
register-assigned, and run either by a tile interpreter or lowered to
x86-64. A guard failure drops straight back into the interpreter at the
point the speculation broke.

This CLI runs the hand-built demo programs in internal/demo (there is
no textual front end: parsing and compiling source is out of scope for
this pipeline) and exposes the trace/disassembly introspection surface.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "dump IR/trace/disassembly output as the pipeline runs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a tuning YAML file (internal/config.Load); defaults to config.Default()")
	rootCmd.PersistentFlags().BoolVar(&jitFlag, "jit", true, "enable the tracing JIT trigger (false runs the plain interpreter only)")
}

// loadTuning reads --config (falling back to config.Default()) and
// applies --jit on top of whatever the file set.
func loadTuning() (config.TuningConfig, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return config.TuningConfig{}, fmt.Errorf("loading %s: %w", configPath, err)
		}
	}
	cfg.JITEnabled = jitFlag
	return cfg, nil
}

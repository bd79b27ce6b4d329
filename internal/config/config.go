// Package config loads the tuning knobs the JIT trigger and trace cache
// read at startup (spec.md section 3.3, section 4.C's tile threshold,
// section 4.D's specialization threshold): tile-trigger length, the
// specialization threshold below which lengths are baked into guards
// instead of tracked symbolically, the vector-tile width the executor's
// kernels process per pass, the trace cache's table size, and the
// JIT-enabled flag.
//
// Grounded on the teacher's cmd/dwscript/cmd (cobra root command reading
// a config file via viper-less plain YAML unmarshal) generalized to a
// standalone loader so internal/interp and internal/pipeline don't need
// to import cobra; uses github.com/goccy/go-yaml, already present in the
// teacher's indirect dependency set, for the on-disk format.
package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/tracevm/tracevm/internal/diag"
)

// TuningConfig holds every tunable the pipeline consults (spec.md
// section 3.3).
type TuningConfig struct {
	// TileThreshold is the minimum operand vector length (spec.md
	// section 4.C's "length >= a configurable tile threshold") that
	// fires the JIT trigger at an arithmetic/seq instruction.
	TileThreshold int `yaml:"tile_threshold"`

	// SpecializationThreshold is the length below which the recorder
	// bakes a concrete length into a guard rather than tracking it
	// symbolically via an slength/elength node (spec.md section 4.D).
	SpecializationThreshold int `yaml:"specialization_threshold"`

	// TileWidth is the fixed SIMD lane count the tile interpreter and
	// machine-code backend process per pass (spec.md section 4.H,
	// "16 lanes per register").
	TileWidth int `yaml:"tile_width"`

	// TraceCacheSize bounds the number of compiled traces kept resident
	// keyed by startPC (spec.md section 6, "a trace table keyed by
	// startPC").
	TraceCacheSize int `yaml:"trace_cache_size"`

	// JITEnabled gates the trigger path in internal/interp (spec.md
	// section 6, "a JIT-enabled flag gates the trigger path").
	JITEnabled bool `yaml:"jit_enabled"`

	// SideTraceHitThreshold is the per-exit hit count (spec.md section
	// 4.H, "exits whose counter exceeds a threshold are candidates for
	// side-trace recording") above which tracecache.Cache.HotExits
	// reports an exit as a side-trace candidate.
	SideTraceHitThreshold int `yaml:"side_trace_hit_threshold"`
}

// Default returns the tuning this module's CLI (cmd/tracevm) falls back to when no
// config file is given.
func Default() TuningConfig {
	return TuningConfig{
		TileThreshold:           128,
		SpecializationThreshold: 16,
		TileWidth:               16,
		TraceCacheSize:          256,
		JITEnabled:              true,
		SideTraceHitThreshold:   50,
	}
}

// Load reads a YAML tuning file at path, starting from Default() so a
// partial file only overrides the fields it mentions.
func Load(path string) (TuningConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, diag.New(diag.KindInternal, "config: reading %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, diag.New(diag.KindInternal, "config: parsing %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects tunings the pipeline cannot run with.
func (c TuningConfig) Validate() error {
	if c.TileThreshold <= 0 {
		return diag.New(diag.KindInternal, "config: tile_threshold must be positive, got %d", c.TileThreshold)
	}
	if c.TileWidth <= 0 {
		return diag.New(diag.KindInternal, "config: tile_width must be positive, got %d", c.TileWidth)
	}
	if c.SpecializationThreshold < 0 {
		return diag.New(diag.KindInternal, "config: specialization_threshold must be non-negative, got %d", c.SpecializationThreshold)
	}
	if c.TraceCacheSize <= 0 {
		return diag.New(diag.KindInternal, "config: trace_cache_size must be positive, got %d", c.TraceCacheSize)
	}
	return nil
}

// Package tracecache implements the trace table persistence described in
// spec.md section 6 ("a trace table keyed by startPC, storing compiled
// entry pointer, exit records, and per-exit hit counters") and the
// "Trace cache persistence" design note of section 9. Invalidation is
// not required (no code patching of live traces), so Cache is a plain
// bounded map with FIFO eviction once internal/config's TraceCacheSize
// is exceeded.
//
// No teacher analog exists (DWScript compiles its stack bytecode once
// and never revisits it), so this package is built fresh against
// spec.md section 6, in the teacher's plain-struct style: a map keyed by
// an int, guarded by nothing fancier than the caller's own single-
// threaded discipline (spec.md section 5: "strictly single-threaded
// cooperative").
package tracecache

import (
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/regalloc"
	"github.com/tracevm/tracevm/internal/sched"
)

// Entry is everything the trace table keeps for one compiled trace,
// keyed by the interpreter PC it was recorded from.
type Entry struct {
	StartPC int

	// Optimized/Schedule/Assignment are the three pipeline stages
	// internal/exec consumes to build a Trace (internal/tracecache
	// sits below internal/exec in the import graph, so it stores these
	// plain values rather than an exec.Trace itself).
	Optimized  *ir.Optimized
	Schedule   *sched.Schedule
	Assignment *regalloc.Assignment

	// Code is the machine-code backend's emitted bytes, if this entry
	// has been lowered (exec.Compile); nil means the tile interpreter
	// backend is the only one available for this trace.
	Code []byte

	// Exits is indexed by ir.Exit.Index, parallel to every guard in
	// Optimized.Buffer.
	Exits []*ir.Exit

	// LoopPC is the recorder's loop back-edge target (trace.Recording.LoopPC):
	// the PC internal/pipeline resumes the interpreter at when a trace runs
	// to completion (every guard passes) rather than exiting through one.
	LoopPC int

	// hits[i] is the number of times exit i has been taken (spec.md
	// section 4.H: "an exit increments a per-exit counter").
	hits []int
}

// HitCount reports how many times exit index has fired. Out-of-range
// indices report zero rather than panicking, since a caller may ask
// about an exit recorded after this Entry snapshot was taken.
func (e *Entry) HitCount(index int) int {
	if index < 0 || index >= len(e.hits) {
		return 0
	}
	return e.hits[index]
}

// RecordExit increments index's hit counter, growing the counter slice
// if this is the first time an exit this high has fired.
func (e *Entry) RecordExit(index int) {
	if index < 0 {
		return
	}
	for len(e.hits) <= index {
		e.hits = append(e.hits, 0)
	}
	e.hits[index]++
}

// Cache is the Thread-owned trace table (spec.md section 9's "Global
// mutable state": the trace cache lives inside the Thread, not a
// static global).
type Cache struct {
	capacity int
	entries  map[int]*Entry
	order    []int // insertion order, for FIFO eviction once over capacity
}

// NewCache builds an empty Cache bounded to capacity entries
// (internal/config.TuningConfig.TraceCacheSize). A non-positive capacity
// is treated as unbounded.
func NewCache(capacity int) *Cache {
	return &Cache{capacity: capacity, entries: make(map[int]*Entry)}
}

// Get returns the Entry recorded for startPC, or nil if none exists.
func (c *Cache) Get(startPC int) *Entry {
	return c.entries[startPC]
}

// Put installs entry keyed by its own StartPC, evicting the oldest
// entry first if this insertion would exceed the cache's capacity.
// Overwriting an existing key does not count as growth and evicts
// nothing.
func (c *Cache) Put(entry *Entry) {
	if _, exists := c.entries[entry.StartPC]; !exists {
		if c.capacity > 0 && len(c.entries) >= c.capacity {
			c.evictOldest()
		}
		c.order = append(c.order, entry.StartPC)
	}
	c.entries[entry.StartPC] = entry
}

func (c *Cache) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}

// Len reports how many traces are currently resident.
func (c *Cache) Len() int {
	return len(c.entries)
}

// HotExits reports every (startPC, exit index) pair across the whole
// cache whose hit counter exceeds threshold
// (config.TuningConfig.SideTraceHitThreshold) — spec.md section 4.H's
// "exits whose counter exceeds a threshold are candidates for
// side-trace recording", exposed here for internal/pipeline to act on.
func (c *Cache) HotExits(threshold int) []HotExit {
	var hot []HotExit
	for startPC, entry := range c.entries {
		for i, count := range entry.hits {
			if count > threshold {
				hot = append(hot, HotExit{StartPC: startPC, ExitIndex: i, HitCount: count})
			}
		}
	}
	return hot
}

// HotExit names one side-trace recording candidate.
type HotExit struct {
	StartPC   int
	ExitIndex int
	HitCount  int
}

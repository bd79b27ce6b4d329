// Package pipeline wires the JIT stages together into the single
// collaborator internal/interp.Thread needs: something that implements
// Tracer. Trigger orchestrates internal/trace (record), internal/ir
// (replay/optimize), internal/sched (schedule), internal/regalloc
// (assign), internal/tracecache (persist), and internal/exec (run) in
// the order spec.md section 6's on-stack-replacement contract describes,
// and is the one place that actually drives a compiled trace against a
// live Thread.
//
// No teacher analog exists (DWScript's VM never leaves its own bytecode
// loop), so this package is built fresh against spec.md sections 4.H and
// 6, in the teacher's plain-struct, errors-as-values style.
//
// Trigger deliberately runs a trace exactly once per call rather than
// looping internally until some exit condition: a loop trace's only
// guard is typically a shape-stability check (OpGLen — "this vector's
// length hasn't changed"), which never naturally fails for an ordinary
// loop, so an internal drive loop here would have no safe stopping
// condition of its own. Looping is instead left to internal/interp's own
// dispatch loop: on a completed run, Trigger writes the next iteration's
// values back and resumes the interpreter at the loop's own start PC,
// which lets dispatch.go re-invoke Trigger the next time it reaches that
// PC — now a cheap cache hit instead of a fresh recording.
package pipeline

import (
	"fmt"

	"github.com/tracevm/tracevm/internal/config"
	"github.com/tracevm/tracevm/internal/diag"
	"github.com/tracevm/tracevm/internal/exec"
	"github.com/tracevm/tracevm/internal/interp"
	"github.com/tracevm/tracevm/internal/ir"
	"github.com/tracevm/tracevm/internal/regalloc"
	"github.com/tracevm/tracevm/internal/sched"
	"github.com/tracevm/tracevm/internal/trace"
	"github.com/tracevm/tracevm/internal/tracecache"
)

// Pipeline implements interp.Tracer. It owns the trace cache and the
// recorder/executor instances its tuning config sizes, and is meant to
// be attached to exactly one Thread via Attach (spec.md section 9: the
// cache is Thread-scoped state, never a package global).
type Pipeline struct {
	cfg       config.TuningConfig
	cache     *tracecache.Cache
	recorder  *trace.Recorder
	tile      *exec.TileInterpreter
	dump      *diag.Dumper
	recording bool // re-entrancy guard: Trigger must be idempotent while recording
}

// New builds a Pipeline from a tuning config (internal/config.TuningConfig,
// typically config.Default() or a value loaded via config.Load).
func New(cfg config.TuningConfig) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		cache:    tracecache.NewCache(cfg.TraceCacheSize),
		recorder: trace.NewRecorder(cfg),
		tile:     exec.NewTileInterpreter(cfg.TileWidth),
	}
}

// SetDumper installs the --verbose diagnostic sink (SPEC_FULL.md section
// 3.2). A nil or disabled Dumper is a safe no-op at every call site.
func (p *Pipeline) SetDumper(d *diag.Dumper) {
	p.dump = d
}

// Attach wires p into th as its Tracer, per spec.md section 4.C's JIT
// trigger hook. If the config disables the JIT, th is left untraced
// instead (SetTracer(nil) forces th.jitEnabled false).
func (p *Pipeline) Attach(th *interp.Thread) {
	if !p.cfg.JITEnabled {
		th.SetTracer(nil)
		return
	}
	th.SetTracer(p)
	th.SetTileThreshold(p.cfg.TileThreshold)
}

// Cache exposes the trace table, e.g. for a `tracevm trace dump` command
// or HotExits-driven side-trace tooling.
func (p *Pipeline) Cache() *tracecache.Cache {
	return p.cache
}

// SideTraceCandidates reports every exit whose hit counter has crossed
// the configured threshold (config.TuningConfig.SideTraceHitThreshold),
// spec.md 4.H/"Supplemented features"'s side-trace recording candidate
// list. Recording the side trace itself is left to a future pass; this
// is the surface that would feed it.
func (p *Pipeline) SideTraceCandidates() []tracecache.HotExit {
	return p.cache.HotExits(p.cfg.SideTraceHitThreshold)
}

// Trigger implements interp.Tracer. On a cache miss it records, replays,
// schedules, and register-assigns a fresh trace, caching it on success;
// a failed/aborted recording simply reports handled=false so the
// interpreter falls back to plain dispatch (spec.md's "if that is too
// complex, abort the trace — acceptable behavior"). On a cache hit (or
// immediately after a fresh recording), it runs the trace once.
func (p *Pipeline) Trigger(th *interp.Thread, startPC int) (int, bool) {
	if p.recording {
		return 0, false
	}

	entry := p.cache.Get(startPC)
	if entry == nil {
		var ok bool
		entry, ok = p.record(th, startPC)
		if !ok {
			return 0, false
		}
	}
	return p.run(th, entry)
}

// record shadow-records startPC, and on success compiles it through
// internal/ir/internal/sched/internal/regalloc and caches the result.
func (p *Pipeline) record(th *interp.Thread, startPC int) (*tracecache.Entry, bool) {
	p.recording = true
	defer func() { p.recording = false }()

	recording := p.recorder.Record(th, startPC)
	if recording.Reason != trace.NoAbort {
		if p.dump.Enabled() {
			p.dump.Dump("trace abort", fmt.Sprintf("pc=%d reason=%s", startPC, recording.Reason))
		}
		return nil, false
	}

	optimized := ir.Replay(recording.Buffer)
	schedule := sched.Build(optimized.Buffer)
	assignment, err := regalloc.Assign(optimized.Buffer)
	if err != nil {
		if p.dump.Enabled() {
			p.dump.Dump("regalloc failed", err)
		}
		return nil, false
	}

	entry := &tracecache.Entry{
		StartPC:    startPC,
		Optimized:  optimized,
		Schedule:   schedule,
		Assignment: assignment,
		Exits:      exitsByIndex(optimized),
		LoopPC:     recording.LoopPC,
	}
	p.cache.Put(entry)
	if p.dump.Enabled() {
		p.dump.Dump("trace recorded", entry)
	}
	return entry, true
}

// run executes entry once against th's live state and reports what the
// interpreter should do next: a guard failure writes the guard's live
// stores back and resumes at its Reenter.PC; a completed run writes the
// loop-carried phi values back and resumes at the trace's own loop PC.
func (p *Pipeline) run(th *interp.Thread, entry *tracecache.Entry) (int, bool) {
	t := exec.NewTrace(entry.Optimized, entry.Schedule, entry.Assignment)
	state := exec.EntryState{
		Registers: th.RegisterSnapshot(),
		Thread:    th,
		Interner:  th.Interner(),
	}

	result, frame, err := p.tile.Run(t, state)
	if err != nil {
		if p.dump.Enabled() {
			p.dump.Dump("trace run error", err)
		}
		return 0, false
	}

	if !result.Completed {
		guardExit := entry.Optimized.Exits[result.ExitRef]
		entry.RecordExit(guardExit.Index)
		exec.WriteBack(th, guardExit, frame)
		if p.dump.Enabled() {
			p.dump.Dump("guard exit", fmt.Sprintf("start_pc=%d exit=%d reenter=%d", entry.StartPC, guardExit.Index, guardExit.Reenter.PC))
		}
		return th.CurrentPC(), true
	}

	loopExit := loopContinuationExit(entry.Optimized.Buffer, entry.LoopPC)
	exec.WriteBack(th, loopExit, frame)
	return th.CurrentPC(), true
}

// exitsByIndex flattens Optimized.Exits (keyed by guard Ref) into a
// slice indexed by Exit.Index, the layout internal/tracecache.Entry
// wants for its JSON dump.
func exitsByIndex(opt *ir.Optimized) []*ir.Exit {
	exits := make([]*ir.Exit, len(opt.Exits))
	for _, e := range opt.Exits {
		for len(exits) <= e.Index {
			exits = append(exits, nil)
		}
		exits[e.Index] = e
	}
	return exits
}

// loopContinuationExit synthesizes the Exit a completed (all-guards-
// passed) trace implicitly falls through to: every phi node's updated
// (body) value becomes a live store, and Reenter points at the trace's
// own loop back-edge PC, so WriteBack can push next-iteration state into
// the interpreter exactly as it would a real guard exit.
func loopContinuationExit(buf *ir.Buffer, loopPC int) *ir.Exit {
	loopExit := ir.NewExit(-1)
	for i := 0; i < buf.Len(); i++ {
		n := buf.At(ir.Ref(i))
		if n.Op == ir.OpPhi {
			loopExit.RecordStore(n.Var, n.B)
		}
	}
	loopExit.Reenter = ir.Reenter{PC: loopPC, InScope: true}
	return loopExit
}

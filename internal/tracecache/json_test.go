package tracecache

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/tracevm/tracevm/internal/ir"
)

func buildSampleCache() *Cache {
	c := NewCache(4)
	exit := ir.NewExit(0)
	exit.Reenter = ir.Reenter{PC: 42}
	entry := &Entry{StartPC: 10, Exits: []*ir.Exit{exit}, Code: []byte{0x90}}
	entry.RecordExit(0)
	entry.RecordExit(0)
	c.Put(entry)
	return c
}

func TestDumpJSONFieldsRoundTripThroughQuery(t *testing.T) {
	c := buildSampleCache()
	doc, err := DumpJSON(c)
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}

	if got := Query(doc, "traces.0.start_pc").Int(); got != 10 {
		t.Errorf("traces.0.start_pc = %d, want 10", got)
	}
	if got := Query(doc, "traces.0.compiled").Bool(); !got {
		t.Error("traces.0.compiled = false, want true (entry has Code)")
	}
	if got := Query(doc, "traces.0.exits.0.reenter_pc").Int(); got != 42 {
		t.Errorf("traces.0.exits.0.reenter_pc = %d, want 42", got)
	}
	if got := ExitHits(doc, 10, 0); got != 2 {
		t.Errorf("ExitHits(10, 0) = %d, want 2", got)
	}
}

func TestDumpJSONSkipsEvictedEntries(t *testing.T) {
	c := NewCache(1)
	c.Put(&Entry{StartPC: 1})
	c.Put(&Entry{StartPC: 2}) // evicts startPC 1

	doc, err := DumpJSON(c)
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	if got := Query(doc, "traces.#").Int(); got != 1 {
		t.Errorf("traces.# = %d, want 1 (evicted entry must not appear)", got)
	}
	if got := Query(doc, "traces.0.start_pc").Int(); got != 2 {
		t.Errorf("traces.0.start_pc = %d, want 2", got)
	}
}

func TestDumpJSONSnapshot(t *testing.T) {
	c := buildSampleCache()
	doc, err := DumpJSON(c)
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	snaps.MatchSnapshot(t, string(doc))
}

package tracecache

import (
	"testing"

	"github.com/tracevm/tracevm/internal/ir"
)

func TestCacheGetReturnsNilForMissingKey(t *testing.T) {
	c := NewCache(4)
	if got := c.Get(99); got != nil {
		t.Errorf("Get(99) = %v, want nil", got)
	}
}

func TestCachePutAndGetRoundTrip(t *testing.T) {
	c := NewCache(4)
	entry := &Entry{StartPC: 10, Exits: []*ir.Exit{ir.NewExit(0)}}
	c.Put(entry)

	got := c.Get(10)
	if got != entry {
		t.Fatalf("Get(10) = %v, want the entry just Put", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheOverwriteDoesNotGrow(t *testing.T) {
	c := NewCache(4)
	c.Put(&Entry{StartPC: 10})
	c.Put(&Entry{StartPC: 10, Code: []byte{0x90}})

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after overwriting the same startPC", c.Len())
	}
	if c.Get(10).Code == nil {
		t.Error("overwrite did not replace the stored entry")
	}
}

func TestCacheEvictsOldestOnceOverCapacity(t *testing.T) {
	c := NewCache(2)
	c.Put(&Entry{StartPC: 1})
	c.Put(&Entry{StartPC: 2})
	c.Put(&Entry{StartPC: 3})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (capacity bound)", c.Len())
	}
	if c.Get(1) != nil {
		t.Error("startPC 1 should have been evicted first (FIFO)")
	}
	if c.Get(2) == nil || c.Get(3) == nil {
		t.Error("startPC 2 and 3 should both still be resident")
	}
}

func TestCacheUnboundedWithZeroCapacity(t *testing.T) {
	c := NewCache(0)
	for i := 0; i < 10; i++ {
		c.Put(&Entry{StartPC: i})
	}
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10 (capacity <= 0 means unbounded)", c.Len())
	}
}

func TestEntryRecordExitAndHitCount(t *testing.T) {
	e := &Entry{StartPC: 5}
	e.RecordExit(2)
	e.RecordExit(2)
	e.RecordExit(0)

	if got := e.HitCount(2); got != 2 {
		t.Errorf("HitCount(2) = %d, want 2", got)
	}
	if got := e.HitCount(0); got != 1 {
		t.Errorf("HitCount(0) = %d, want 1", got)
	}
	if got := e.HitCount(7); got != 0 {
		t.Errorf("HitCount(7) (never recorded) = %d, want 0", got)
	}
}

func TestCacheHotExitsReportsOnlyAboveThreshold(t *testing.T) {
	c := NewCache(4)
	hot := &Entry{StartPC: 100}
	hot.RecordExit(0)
	hot.RecordExit(0)
	hot.RecordExit(0)
	cold := &Entry{StartPC: 200}
	cold.RecordExit(0)
	c.Put(hot)
	c.Put(cold)

	exits := c.HotExits(1)
	if len(exits) != 1 {
		t.Fatalf("HotExits(1) returned %d entries, want 1", len(exits))
	}
	if exits[0].StartPC != 100 || exits[0].ExitIndex != 0 || exits[0].HitCount != 3 {
		t.Errorf("HotExits(1) = %+v, want {StartPC:100 ExitIndex:0 HitCount:3}", exits[0])
	}
}

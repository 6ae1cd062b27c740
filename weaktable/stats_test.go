// Snapshot census and its JSON encoding.
package weaktable

import (
	"testing"
	"unsafe"

	"github.com/sugawarayuuta/sonnet"
)

func TestStatsCensus(t *testing.T) {
	var tb Table

	// Two inline referents, one promoted.
	objs := newObjects(3)
	slots := newSlots(2 + 5)
	registerInto(t, &tb, objs[0], &slots[0])
	registerInto(t, &tb, objs[1], &slots[1])
	for i := 0; i < 5; i++ {
		registerInto(t, &tb, objs[2], &slots[2+i])
	}

	s := tb.Stats()
	if s.Capacity != 64 || s.Entries != 3 {
		t.Fatalf("capacity/entries = %d/%d, want 64/3", s.Capacity, s.Entries)
	}
	if s.InlineEntries != 2 || s.OutOfLine != 1 {
		t.Fatalf("inline/out-of-line = %d/%d, want 2/1", s.InlineEntries, s.OutOfLine)
	}
	if s.Referrers != 7 {
		t.Fatalf("referrers = %d, want 7", s.Referrers)
	}
	if s.ReferrerBuckets != 8 {
		t.Fatalf("referrer buckets = %d, want 8", s.ReferrerBuckets)
	}
	if s.MaxSetFill != 5 {
		t.Fatalf("max set fill = %d, want 5", s.MaxSetFill)
	}
}

func TestStatsEmptyTable(t *testing.T) {
	var tb Table
	s := tb.Stats()
	if s.Capacity != 0 || s.Entries != 0 || s.Referrers != 0 {
		t.Fatalf("empty table census not zero: %+v", s)
	}
}

func TestDumpStatsRoundTrip(t *testing.T) {
	var tb Table
	ref := newObjects(1)[0]
	slots := newSlots(1)
	registerInto(t, &tb, ref, &slots[0])

	raw, err := DumpStats(&tb)
	if err != nil {
		t.Fatalf("DumpStats: %v", err)
	}
	var back TableStats
	if err := sonnet.Unmarshal(raw, &back); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if back != tb.Stats() {
		t.Fatalf("dump round trip diverged: %+v vs %+v", back, tb.Stats())
	}
	_ = unsafe.Pointer(ref) // keep the referent alive through the dump
}

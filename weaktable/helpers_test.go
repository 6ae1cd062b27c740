// Shared fixtures and invariant probes for the weak-table tests.
package weaktable

import (
	"sort"
	"testing"
	"unsafe"

	"weaktable/constants"
	"weaktable/debug"
	"weaktable/disguise"
	"weaktable/utils"
)

// obj is a dummy heap object standing in for a runtime-managed referent.
type obj struct {
	_ [2]uint64
}

// newObjects allocates n distinct referents with stable addresses.
func newObjects(n int) []*obj {
	out := make([]*obj, n)
	for i := range out {
		out[i] = new(obj)
	}
	return out
}

// newSlots allocates n weak-variable storage locations.
func newSlots(n int) []unsafe.Pointer {
	return make([]unsafe.Pointer, n)
}

// registerInto registers the weak variable at slot for referent and stores the
// returned value the way a real caller writes the weak variable.
func registerInto(t *testing.T, tb *Table, referent *obj, slot *unsafe.Pointer) {
	t.Helper()
	got := Register(tb, unsafe.Pointer(referent), slot, true)
	if got != unsafe.Pointer(referent) {
		t.Fatalf("Register returned %p, want %p", got, referent)
	}
	*slot = got
}

// disguiseObj shortens the referent-key computation in assertions.
func disguiseObj(o *obj) disguise.Word {
	return disguise.Disguise(unsafe.Pointer(o))
}

// sortedSlotAddrs returns the addresses of the given weak slots, sorted the
// way referrersOf reports them.
func sortedSlotAddrs(slots []unsafe.Pointer) []uintptr {
	out := make([]uintptr, len(slots))
	for i := range slots {
		out[i] = uintptr(unsafe.Pointer(&slots[i]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// referrersOf collects the live referrer addresses registered for referent,
// sorted for comparison.
func referrersOf(tb *Table, referent *obj) []uintptr {
	e := tb.entryFor(disguise.Disguise(unsafe.Pointer(referent)))
	if e == nil {
		return nil
	}
	slots := e.inline[:]
	if e.outOfLine() {
		slots = e.referrers
	}
	var out []uintptr
	for _, w := range slots {
		if !w.IsNil() {
			out = append(out, w.Addr())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// countWeakErrors installs a counting WeakError observer and returns the
// counter plus a restore func.
func countWeakErrors() (*int, func()) {
	n := new(int)
	prev := debug.HookWeakError(func() { *n++ })
	return n, func() { debug.HookWeakError(prev) }
}

// checkInvariants verifies the quantified invariants on a directory and all
// of its referrer sets: power-of-two capacities, the ¾ load bound, the
// displacement bound, and fill-count accuracy.
func checkInvariants(t *testing.T, tb *Table) {
	t.Helper()

	if tb.mask == 0 {
		if tb.numEntries != 0 {
			t.Fatalf("empty directory claims %d entries", tb.numEntries)
		}
		return
	}

	size := tb.mask + 1
	if !utils.IsPow2(size) {
		t.Fatalf("directory capacity %d is not a power of two", size)
	}
	if tb.numEntries*constants.MaxLoadDen > size*constants.MaxLoadNum {
		t.Fatalf("directory load %d/%d exceeds ¾", tb.numEntries, size)
	}

	occupied := uintptr(0)
	for i := range tb.entries {
		e := &tb.entries[i]
		if e.referent.IsNil() {
			continue
		}
		occupied++

		ideal := utils.HashWord(uintptr(e.referent)) & tb.mask
		if disp := (uintptr(i) - ideal) & tb.mask; disp > tb.maxDisp {
			t.Fatalf("bucket %d displaced %d, recorded max %d", i, disp, tb.maxDisp)
		}

		if !e.outOfLine() {
			continue
		}
		esize := e.refTableSize()
		if !utils.IsPow2(esize) {
			t.Fatalf("referrer set capacity %d is not a power of two", esize)
		}
		if e.numRefs*constants.MaxLoadDen > esize*constants.MaxLoadNum {
			t.Fatalf("referrer set load %d/%d exceeds ¾", e.numRefs, esize)
		}
		live := uintptr(0)
		for j := uintptr(0); j < esize; j++ {
			w := e.referrers[j]
			if w.IsNil() {
				continue
			}
			live++
			ideal := utils.HashWord(uintptr(w)) & e.mask
			if disp := (j - ideal) & e.mask; disp > e.maxDisp {
				t.Fatalf("referrer slot %d displaced %d, recorded max %d", j, disp, e.maxDisp)
			}
		}
		if live != e.numRefs {
			t.Fatalf("referrer set fill %d, counted %d live slots", e.numRefs, live)
		}
	}
	if occupied != tb.numEntries {
		t.Fatalf("directory fill %d, counted %d occupied buckets", tb.numEntries, occupied)
	}
}

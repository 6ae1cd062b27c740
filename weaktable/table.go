// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: table.go — Referent directory (outer open-addressed table)
//
// Purpose:
//   - Maps disguised referent addresses to their referrer sets.
//   - Grows in place at ¾ load, compacts after large spikes drain.
//
// Notes:
//   - Linear probing with a recorded maximum displacement: a lookup that
//     probes past it terminates as a miss without touching the whole array.
//   - A probe that wraps to its starting bucket means the load invariant has
//     been violated; that is corruption, not a miss, and it aborts.
//   - Resize copies entry values; out-of-line referrer arrays move with
//     their owning entry and are never reallocated here.
// ─────────────────────────────────────────────────────────────────────────────

package weaktable

import (
	"weaktable/constants"
	"weaktable/debug"
	"weaktable/disguise"
	"weaktable/utils"
)

// ═══════════════════════════════════════════════════════════════════════════
// TABLE LAYOUT
// ═══════════════════════════════════════════════════════════════════════════

// Table is one referent directory. The zero value is an empty, ready-to-use
// table; the first registration takes it to capacity 64.
//
// Every operation assumes the caller holds whatever lock guards this
// instance — the table itself performs no synchronization (see the stripe
// package for the locked directory the runtime actually hands out).
type Table struct {
	entries    []entry // bucket array; nil until the first insert
	numEntries uintptr // occupied buckets
	mask       uintptr // capacity - 1; 0 while empty
	maxDisp    uintptr // deepest probe any insert has taken
}

// size returns the current bucket count (0 while empty).
//
//go:nosplit
//go:inline
func (t *Table) size() uintptr {
	if t.mask == 0 {
		return 0
	}
	return t.mask + 1
}

// ═══════════════════════════════════════════════════════════════════════════
// LOOKUP
// ═══════════════════════════════════════════════════════════════════════════

// entryFor returns the referrer set registered for a referent, or nil.
// Probing beyond the recorded maximum displacement is a definitive miss;
// wrapping back to the starting bucket is corruption.
func (t *Table) entryFor(referent disguise.Word) *entry {
	if t.entries == nil {
		return nil
	}

	begin := utils.HashWord(uintptr(referent)) & t.mask
	index := begin
	disp := uintptr(0)
	for t.entries[index].referent != referent {
		index = (index + 1) & t.mask
		if index == begin {
			debug.Fatal("weaktable", "directory probe wrapped: table corrupted")
		}
		disp++
		if disp > t.maxDisp {
			return nil
		}
	}
	return &t.entries[index]
}

// ═══════════════════════════════════════════════════════════════════════════
// INSERT & RESIZE
// ═══════════════════════════════════════════════════════════════════════════

// insert stores a fully-formed entry whose referent is not yet present.
// Callers run growMaybe first so the probe is guaranteed to find a hole.
func (t *Table) insert(e *entry) {
	begin := utils.HashWord(uintptr(e.referent)) & t.mask
	index := begin
	disp := uintptr(0)
	for !t.entries[index].referent.IsNil() {
		index = (index + 1) & t.mask
		if index == begin {
			debug.Fatal("weaktable", "directory probe wrapped during insert: table corrupted")
		}
		disp++
	}
	if disp > t.maxDisp {
		t.maxDisp = disp
	}
	t.entries[index] = *e
	t.numEntries++
}

// resize rebuilds the bucket array at newSize, reinserting every occupied
// entry by value. Fill and displacement are recomputed from scratch; inner
// referrer arrays travel with their entries untouched.
func (t *Table) resize(newSize uintptr) {
	oldSize := t.size()
	old := t.entries

	t.entries = make([]entry, newSize)
	t.mask = newSize - 1
	t.numEntries = 0
	t.maxDisp = 0

	for i := uintptr(0); i < oldSize; i++ {
		if !old[i].referent.IsNil() {
			t.insert(&old[i])
		}
	}
}

// growMaybe doubles the directory when fill already sits at ¾ or above, so
// the coming insert cannot push it past ¾. The first grow takes an empty
// table to the initial 64 buckets.
func (t *Table) growMaybe() {
	oldSize := t.size()
	if t.numEntries >= oldSize*constants.MaxLoadNum/constants.MaxLoadDen {
		newSize := oldSize * 2
		if newSize == 0 {
			newSize = constants.TableInitialSize
		}
		t.resize(newSize)
	}
}

// compactMaybe shrinks the directory to size/8 once a big table has drained
// to 1⁄16 fill. The 8× shrink from 1⁄16 lands at ½ load, inside the bound.
func (t *Table) compactMaybe() {
	oldSize := t.size()
	if oldSize < constants.CompactMinSize {
		return
	}
	if oldSize/constants.CompactFillDivisor >= t.numEntries {
		t.resize(oldSize / constants.CompactShrinkDivisor)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// REMOVE
// ═══════════════════════════════════════════════════════════════════════════

// removeEntry releases an entry found by entryFor: the out-of-line array is
// dropped, the bucket is zeroed so future probes treat it as empty, and the
// directory compacts if the spike that built it has drained.
func (t *Table) removeEntry(e *entry) {
	if e.outOfLine() {
		e.referrers = nil
	}
	*e = entry{}
	t.numEntries--
	t.compactMaybe()
}

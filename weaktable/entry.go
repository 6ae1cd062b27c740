// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: entry.go — Per-referent referrer set (inline ↔ out-of-line)
//
// Purpose:
//   - Holds every storage location currently aimed at one referent.
//   - Two representations: a fixed 4-slot inline array for the common case,
//     and an open-addressed power-of-two table once a fifth referrer lands.
//
// Notes:
//   - The discriminant lives in the low two bits of inline slot 1: a
//     disguised word-aligned address never carries 0b10 there, so that
//     pattern unambiguously marks the out-of-line state.
//   - Promotion is one-way. A set never returns to inline; it is removed
//     from the directory wholesale when its last referrer leaves.
//   - Callers guarantee a referrer is registered at most once per referent,
//     so the insert paths skip duplicate checks.
// ─────────────────────────────────────────────────────────────────────────────

package weaktable

import (
	"weaktable/constants"
	"weaktable/debug"
	"weaktable/disguise"
	"weaktable/utils"
)

// ═══════════════════════════════════════════════════════════════════════════
// ENTRY LAYOUT
// ═══════════════════════════════════════════════════════════════════════════

// entry is one bucket of the referent directory: the referent plus the set of
// disguised referrer addresses aimed at it.
//
// The out-of-line bucket array is held as a real slice (the collector must
// see the array itself; its CONTENTS stay disguised). The inline array keeps
// the original overlap contract: after promotion, slot 1 holds the
// out-of-line marker and the inline slots are dead.
type entry struct {
	referent disguise.Word // disguised referent address; Nil marks an empty bucket

	inline [constants.WeakInlineCount]disguise.Word // inline referrers; slot 1 low bits double as the discriminant

	referrers []disguise.Word // out-of-line bucket array; nil while inline
	numRefs   uintptr         // out-of-line fill count
	mask      uintptr         // out-of-line capacity - 1
	maxDisp   uintptr         // deepest probe any out-of-line insert has taken
}

// newEntry builds an inline set holding a single referrer in slot 0.
//
//go:inline
func newEntry(referent, referrer disguise.Word) entry {
	var e entry
	e.referent = referent
	e.inline[0] = referrer
	return e
}

// outOfLine reports which representation the set is in by reading the
// discriminant bits overlapping inline slot 1.
//
//go:nosplit
//go:inline
func (e *entry) outOfLine() bool {
	return uintptr(e.inline[1])&constants.DiscriminantMask == constants.OutOfLineMarker
}

// refTableSize returns the out-of-line capacity (0 before promotion).
//
//go:nosplit
//go:inline
func (e *entry) refTableSize() uintptr {
	if e.mask == 0 {
		return 0
	}
	return e.mask + 1
}

// isEmpty reports whether no referrer slot is occupied. An empty set must be
// removed from the directory before the enclosing operation returns.
//
//go:nosplit
//go:inline
func (e *entry) isEmpty() bool {
	if e.outOfLine() {
		return e.numRefs == 0
	}
	for i := range e.inline {
		if !e.inline[i].IsNil() {
			return false
		}
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════
// APPEND PATH
// ═══════════════════════════════════════════════════════════════════════════

// append adds a referrer to the set. The representation may change and the
// out-of-line capacity may grow; after return the referrer is stored exactly
// once.
func (e *entry) append(referrer disguise.Word) {
	if !e.outOfLine() {
		// Try to insert inline.
		for i := range e.inline {
			if e.inline[i].IsNil() {
				e.inline[i] = referrer
				return
			}
		}

		// Couldn't insert inline. Promote: copy the four inline referrers
		// into a capacity-4 array (deliberately at full load) and let the
		// grow path below expand to 8 before the new referrer lands.
		refs := make([]disguise.Word, constants.WeakInlineCount)
		copy(refs, e.inline[:])
		e.referrers = refs
		e.numRefs = constants.WeakInlineCount
		e.inline[1] = disguise.Word(constants.OutOfLineMarker)
		e.mask = constants.WeakInlineCount - 1
		e.maxDisp = 0
	}

	if e.numRefs >= (e.mask+1)*constants.MaxLoadNum/constants.MaxLoadDen {
		e.growAndInsert(referrer)
		return
	}

	begin := utils.HashWord(uintptr(referrer)) & e.mask
	index := begin
	disp := uintptr(0)
	for !e.referrers[index].IsNil() {
		index = (index + 1) & e.mask
		if index == begin {
			debug.Fatal("weaktable", "referrer set probe wrapped with fill below threshold: set corrupted")
		}
		disp++
	}
	if disp > e.maxDisp {
		e.maxDisp = disp
	}
	e.referrers[index] = referrer
	e.numRefs++
}

// growAndInsert doubles the out-of-line capacity (8 on the first grow after
// promotion), reinserts every surviving referrer, then lands the new one.
// After doubling the load is under ¾, so the recursive append cannot grow
// again.
func (e *entry) growAndInsert(referrer disguise.Word) {
	oldSize := e.refTableSize()
	newSize := oldSize * 2
	if newSize == 0 {
		newSize = constants.EntryInitialSize
	}

	remaining := e.numRefs
	old := e.referrers
	e.referrers = make([]disguise.Word, newSize)
	e.mask = newSize - 1
	e.numRefs = 0
	e.maxDisp = 0

	for i := uintptr(0); i < oldSize && remaining > 0; i++ {
		if !old[i].IsNil() {
			e.append(old[i])
			remaining--
		}
	}
	e.append(referrer)
}

// ═══════════════════════════════════════════════════════════════════════════
// REMOVE PATH
// ═══════════════════════════════════════════════════════════════════════════

// remove drops a referrer from the set if present. Removing a referrer that
// was never registered is caller misuse: it is reported and the set is left
// intact (duplicates cannot occur, so one removal always suffices).
func (e *entry) remove(referrer disguise.Word) {
	if !e.outOfLine() {
		for i := range e.inline {
			if e.inline[i] == referrer {
				e.inline[i] = disguise.Nil
				return
			}
		}
		reportUnknownReferrer(e.referent, referrer)
		return
	}

	begin := utils.HashWord(uintptr(referrer)) & e.mask
	index := begin
	disp := uintptr(0)
	for e.referrers[index] != referrer {
		index = (index + 1) & e.mask
		if index == begin {
			debug.Fatal("weaktable", "referrer set probe wrapped during removal: set corrupted")
		}
		disp++
		if disp > e.maxDisp {
			reportUnknownReferrer(e.referent, referrer)
			return
		}
	}
	e.referrers[index] = disguise.Nil
	e.numRefs--
}

// reportUnknownReferrer emits the misuse diagnostic for an unregister of a
// referrer the set does not hold, then trips the break-on hook.
func reportUnknownReferrer(referent, referrer disguise.Word) {
	debug.DropMessage("weaktable",
		"attempted to unregister unknown weak variable at "+utils.Hex(referrer.Addr())+
			" for object "+utils.Hex(referent.Addr()))
	reportMisuse(MisuseUnknownReferrer, referent.Addr(), referrer.Addr(),
		"unregister of a referrer that is not registered")
	debug.WeakError()
}

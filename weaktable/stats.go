// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: stats.go — Directory introspection snapshot & JSON dump
//
// Purpose:
//   - Point-in-time census of a directory: capacity, fill, displacement,
//     inline vs out-of-line population, total referrer count.
//   - Lets tests and tooling verify the load and displacement invariants
//     without reaching into unexported state.
//
// Notes:
//   - Snapshot only; the caller holds the table's lock for the duration.
//   - Addresses never appear in a snapshot, disguised or otherwise.
// ─────────────────────────────────────────────────────────────────────────────

package weaktable

import "github.com/sugawarayuuta/sonnet"

// TableStats is a census of one directory at a single instant.
type TableStats struct {
	Capacity        uint64 `json:"capacity"`         // bucket count (0 while empty)
	Entries         uint64 `json:"entries"`          // occupied buckets
	MaxDisplacement uint64 `json:"max_displacement"` // deepest recorded probe
	InlineEntries   uint64 `json:"inline_entries"`   // sets still in the 4-slot form
	OutOfLine       uint64 `json:"out_of_line"`      // promoted sets
	Referrers       uint64 `json:"referrers"`        // live referrer slots across all sets
	ReferrerBuckets uint64 `json:"referrer_buckets"` // summed out-of-line capacities
	MaxSetFill      uint64 `json:"max_set_fill"`     // largest single set's live count
	MaxSetDisp      uint64 `json:"max_set_disp"`     // deepest probe across all sets
}

// Stats walks the directory and counts. O(capacity); debug and test paths
// only.
func (t *Table) Stats() TableStats {
	s := TableStats{
		Capacity:        uint64(t.size()),
		Entries:         uint64(t.numEntries),
		MaxDisplacement: uint64(t.maxDisp),
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.referent.IsNil() {
			continue
		}
		var live uint64
		if e.outOfLine() {
			s.OutOfLine++
			s.ReferrerBuckets += uint64(e.refTableSize())
			live = uint64(e.numRefs)
			if uint64(e.maxDisp) > s.MaxSetDisp {
				s.MaxSetDisp = uint64(e.maxDisp)
			}
		} else {
			s.InlineEntries++
			for j := range e.inline {
				if !e.inline[j].IsNil() {
					live++
				}
			}
		}
		s.Referrers += live
		if live > s.MaxSetFill {
			s.MaxSetFill = live
		}
	}
	return s
}

// DumpStats serializes a snapshot as JSON for log lines and tooling.
func DumpStats(t *Table) ([]byte, error) {
	return sonnet.Marshal(t.Stats())
}

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Weak-table tunables & probe policy constants
//
// Purpose:
//   - Defines every sizing, load-factor, and encoding constant used by the
//     referent directory, the per-referent referrer sets, and the stripes.
//   - Single source of truth so the probe loops, the resize policies, and the
//     tests all agree on thresholds.
//
// Notes:
//   - All tables are power-of-two sized; masks are derived as size-1.
//   - Load factors are expressed as a numerator/denominator pair so the
//     threshold check stays in integer arithmetic on the hot path.
//
// ⚠️ No runtime logic here — all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ─────────────────────────── Referrer Set Sizing ───────────────────────────

const (
	// WeakInlineCount is the fixed slot count of an inline referrer set.
	// Four slots cover the overwhelming majority of referents: most objects
	// are weakly referenced from at most a handful of storage locations, so
	// the common case never touches the heap after entry creation.
	WeakInlineCount = 4

	// EntryInitialSize is the out-of-line capacity a promoted set lands on.
	// Promotion copies the 4 inline slots into a capacity-4 array (already at
	// full load), and the ordinary grow path immediately doubles it — so the
	// first usable out-of-line capacity is 8. Kept explicit for the tests.
	EntryInitialSize = 8
)

// ──────────────────────── Discriminant Encoding ─────────────────────────────

const (
	// OutOfLineMarker is the two-bit pattern that tags a referrer set as
	// out-of-line. It lives in the low two bits of inline slot 1. A disguised
	// word-aligned address can never carry 0b10 there (see disguise package),
	// which is what makes the overlap unambiguous.
	OutOfLineMarker = 0b10

	// DiscriminantMask extracts the two discriminant bits.
	DiscriminantMask = 0b11
)

// ───────────────────────── Directory (Table) Sizing ─────────────────────────

const (
	// TableInitialSize is the bucket count a directory grows to on its first
	// insert. 64 entries keeps the initial footprint small per stripe while
	// avoiding immediate regrowth under normal registration bursts.
	TableInitialSize = 64

	// MaxLoadNum / MaxLoadDen encode the ¾ load ceiling shared by the
	// directory and the out-of-line referrer sets. A mutation never returns
	// with fill above this bound; the grow paths check it before inserting.
	MaxLoadNum = 3
	MaxLoadDen = 4

	// CompactMinSize is the smallest directory capacity eligible for
	// shrinking. Small tables are cheap enough to keep; compaction only pays
	// for itself after a large registration spike has drained.
	CompactMinSize = 1024

	// CompactFillDivisor sets the shrink trigger: a directory at or below
	// size/16 fill is compacted.
	CompactFillDivisor = 16

	// CompactShrinkDivisor sets the shrink target: size/8. A 1⁄16-full table
	// shrunk 8× lands at ½ load, comfortably under the ¾ ceiling.
	CompactShrinkDivisor = 8
)

// ─────────────────────────── Tagged Pointer Probe ───────────────────────────

const (
	// TaggedPointerMask covers the two placements runtimes use for the
	// tagged-pointer bit: the least significant bit (alignment spare) and the
	// most significant bit (canonical-address spare). A referent matching
	// either bit is an immediate, never a heap object, and bypasses the
	// table entirely.
	TaggedPointerMask = uintptr(1) | uintptr(1)<<63
)

// ───────────────────────────── Stripe Directory ─────────────────────────────

const (
	// StripeCount is the number of independently locked directories the
	// stripe layer fans referents across. Power of two so stripe selection
	// is a mask; 64 stripes keep lock contention negligible without bloating
	// the idle footprint.
	StripeCount = 64

	// StripeMask selects a stripe from a mixed referent address.
	StripeMask = StripeCount - 1
)

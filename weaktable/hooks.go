// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: hooks.go — Collaborator surface supplied by the embedding runtime
//
// Purpose:
//   - The table core never inspects object memory itself; everything it
//     needs to know about a referent comes through these hooks.
//   - Defaults are self-contained so the package works standalone (tests,
//     tooling); a real runtime overrides them at startup.
//
// Notes:
//   - Hooks are plain package variables, not parameters: they are global to
//     the runtime the way the table stripes are, and swapping them is a
//     startup-time event, never a hot-path one.
// ─────────────────────────────────────────────────────────────────────────────

package weaktable

import (
	"unsafe"

	"weaktable/constants"
)

// Misuse classifies a detected caller error for the structured reporter.
type Misuse string

const (
	// MisuseUnknownReferrer — unregister of a storage location that was
	// never registered for the referent (or already unregistered).
	MisuseUnknownReferrer Misuse = "unknown-referrer"

	// MisuseRetargetedSlot — a registered weak variable found pointing at a
	// different object while its recorded referent was being destroyed.
	MisuseRetargetedSlot Misuse = "retargeted-slot"
)

var (
	// IsTaggedPointer reports whether a referent is an immediate value.
	// Immediates are never inserted; registration is a vacuous success.
	// The default probes the two spare-bit placements runtimes use.
	IsTaggedPointer = func(p unsafe.Pointer) bool {
		return uintptr(p)&constants.TaggedPointerMask != 0
	}

	// IsDeallocating answers "is this referent currently being destroyed?".
	// answerable=false means the object model could not resolve the
	// weak-permission query (the dispatch landed on the forward sentinel);
	// registration then fails with nil regardless of the dying flag.
	//
	// The embedding runtime chooses between a direct read of the
	// deallocating bit and an indirect dispatch through the object's
	// weak-permission hook; the table only sees the verdict.
	IsDeallocating = func(p unsafe.Pointer) (dying, answerable bool) {
		return false, true
	}

	// ClassName names a referent's class for the crash diagnostic emitted
	// when a dying referent is registered with crashIfDying set.
	ClassName = func(p unsafe.Pointer) string {
		return "<unknown class>"
	}

	// MisuseReporter, when non-nil, receives a structured record of every
	// detected misuse in addition to the stderr diagnostic and the
	// WeakError break-on hook. The audit recorder attaches here.
	MisuseReporter func(kind Misuse, referent, referrer uintptr, detail string)
)

// reportMisuse forwards to MisuseReporter when one is installed.
//
//go:inline
func reportMisuse(kind Misuse, referent, referrer uintptr, detail string) {
	if MisuseReporter != nil {
		MisuseReporter(kind, referent, referrer, detail)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: stripe.go — Striped, locked directory array for the runtime
//
// Purpose:
//   - The table core is lock-free by contract: its caller holds a mutex
//     guarding the specific Table. This package is that caller-side layer —
//     a fixed array of independently locked directories, with referents
//     fanned across them by address hash.
//
// Notes:
//   - Stripe membership is stable for an object's whole lifetime (derived
//     from its address), so a referent's register/unregister/clear sequence
//     is totally ordered by one lock. No ordering holds across stripes.
//   - Global package state: the stripes belong to the process the way a
//     runtime's side tables do; handing them around as values would only
//     invite aliased locks.
// ─────────────────────────────────────────────────────────────────────────────

package stripe

import (
	"sync"
	"unsafe"

	"weaktable/constants"
	"weaktable/utils"
	"weaktable/weaktable"
)

// Striped is one lock + directory pair. Lock/Unlock are exposed for callers
// that need to span several core calls under one critical section (the
// destructor path clears and then republishes state atomically).
type Striped struct {
	mu    sync.Mutex
	table weaktable.Table
	_     [72]byte // pad to keep neighboring stripes off one cache line
}

// stripes is the process-wide directory array.
var stripes [constants.StripeCount]Striped

// For returns the stripe owning a referent. Same address, same stripe,
// always.
//
//go:inline
func For(referent unsafe.Pointer) *Striped {
	i := utils.HashWord(uintptr(referent)) & constants.StripeMask
	return &stripes[i]
}

// Lock acquires the stripe's mutex.
func (s *Striped) Lock() { s.mu.Lock() }

// Unlock releases the stripe's mutex.
func (s *Striped) Unlock() { s.mu.Unlock() }

// Table exposes the guarded directory. Callers must hold the stripe lock.
func (s *Striped) Table() *weaktable.Table { return &s.table }

// ═══════════════════════════════════════════════════════════════════════════
// LOCKED CONVENIENCE WRAPPERS
// ═══════════════════════════════════════════════════════════════════════════

// Register runs weaktable.Register under the referent's stripe lock.
func Register(referent unsafe.Pointer, referrer *unsafe.Pointer, crashIfDying bool) unsafe.Pointer {
	s := For(referent)
	s.mu.Lock()
	r := weaktable.Register(&s.table, referent, referrer, crashIfDying)
	s.mu.Unlock()
	return r
}

// Unregister runs weaktable.Unregister under the referent's stripe lock.
func Unregister(referent unsafe.Pointer, referrer *unsafe.Pointer) {
	s := For(referent)
	s.mu.Lock()
	weaktable.Unregister(&s.table, referent, referrer)
	s.mu.Unlock()
}

// Clear runs weaktable.Clear under the referent's stripe lock.
func Clear(referent unsafe.Pointer) {
	s := For(referent)
	s.mu.Lock()
	weaktable.Clear(&s.table, referent)
	s.mu.Unlock()
}

// Do runs fn against the referent's directory with the stripe lock held.
func Do(referent unsafe.Pointer, fn func(*weaktable.Table)) {
	s := For(referent)
	s.mu.Lock()
	fn(&s.table)
	s.mu.Unlock()
}

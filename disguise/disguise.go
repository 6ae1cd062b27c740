// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: disguise.go — Reversible pointer disguise for scanner opacity
//
// Purpose:
//   - Stores addresses as negated integers so conservative heap scanners do
//     not observe interior pointers from the weak table into live objects.
//   - Keeps the rest of the module in terms of real addresses: disguise on
//     write, undisguise on read.
//
// Notes:
//   - Arithmetic negation is a self-inverse bijection on machine words and
//     maps nil to 0, so zero-initialized bucket arrays read as empty.
//   - For any word-aligned address a, -a has low bits 0b000; a disguised
//     occupied slot therefore never carries 0b10 in its low two bits, which
//     is what frees that pattern up as the out-of-line discriminant.
//
// ⚠️ Disguised words are invisible to the garbage collector ON PURPOSE.
//    The embedding runtime owns every lifetime the table records.
// ─────────────────────────────────────────────────────────────────────────────

package disguise

import "unsafe"

// Word is a disguised address. The zero value is disguised nil, so
// zero-initialized slot arrays are empty without a fill pass.
type Word uintptr

// Nil is the empty-slot sentinel.
const Nil Word = 0

// Disguise hides p as a non-pointer integer.
//
//go:nosplit
//go:inline
func Disguise(p unsafe.Pointer) Word {
	return Word(-uintptr(p))
}

// DisguiseAddr hides a raw address. Same transform; used where the caller
// already holds a uintptr (the double-indirect referrer slots).
//
//go:nosplit
//go:inline
func DisguiseAddr(a uintptr) Word {
	return Word(-a)
}

// Addr recovers the original address.
//
//go:nosplit
//go:inline
func (w Word) Addr() uintptr {
	return -uintptr(w)
}

// Pointer recovers the original pointer.
//
//go:nosplit
//go:inline
//go:nocheckptr
func (w Word) Pointer() unsafe.Pointer {
	return unsafe.Pointer(-uintptr(w))
}

// IsNil reports whether w is the disguised nil sentinel.
//
//go:nosplit
//go:inline
func (w Word) IsNil() bool {
	return w == Nil
}

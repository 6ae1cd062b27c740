// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: utils.go — Word-level helpers shared by the weak-table packages
//
// Purpose:
//   - Pointer-mixing hash used by both hash layers and the stripe selector.
//   - Raw-fd warning writer for cold-path diagnostics without heap pressure.
//   - Power-of-two helpers for table sizing.
//
// Notes:
//   - Avoids fmt and the standard loggers entirely; diagnostics concatenate
//     and write once.
//   - Safe for use from destructor-adjacent paths: no locks, and the only
//     allocations are the diagnostic strings (Hex results, message concats).
// ─────────────────────────────────────────────────────────────────────────────

package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — Probe Index Derivation
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Both hash layers derive probe start positions from it; inserts and lookups
// must agree on the mixer, so this is the only one in the module.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// HashWord reduces a machine word (a disguised address) to a probe seed.
//
//go:nosplit
//go:inline
func HashWord(w uintptr) uintptr {
	return uintptr(Mix64(uint64(w)))
}

///////////////////////////////////////////////////////////////////////////////
// Sizing — Power-of-Two Arithmetic
///////////////////////////////////////////////////////////////////////////////

// NextPow2 returns the smallest power of two ≥ n (and ≥ 1).
// Initialization-time only; the loop is fine.
//
//go:nosplit
//go:inline
func NextPow2(n uintptr) uintptr {
	s := uintptr(1)
	for s < n {
		s <<= 1
	}
	return s
}

// IsPow2 reports whether v is a non-zero power of two.
//
//go:nosplit
//go:inline
func IsPow2(v uintptr) bool {
	return v != 0 && v&(v-1) == 0
}

///////////////////////////////////////////////////////////////////////////////
// Diagnostics — Raw-FD Warning Writer
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg to stderr in a single syscall.
// ⚠️ Cold paths only — the string concat feeding this is the only allocation
// a diagnostic makes, and the write bypasses buffering so messages survive an
// immediately following abort.
//
//go:nosplit
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	_, _ = syscall.Write(2, unsafe.Slice(unsafe.StringData(msg), len(msg)))
}

///////////////////////////////////////////////////////////////////////////////
// Formatting — Alloc-Light Hex For Diagnostics
///////////////////////////////////////////////////////////////////////////////

const hexDigits = "0123456789abcdef"

// Hex formats a machine word as 0x-prefixed lowercase hex.
// Used by the diagnostic paths to name addresses without importing fmt.
func Hex(v uintptr) string {
	var buf [18]byte
	buf[0], buf[1] = '0', 'x'
	i := len(buf)
	for {
		i--
		buf[i] = hexDigits[v&0xf]
		v >>= 4
		if v == 0 {
			break
		}
	}
	n := copy(buf[2:], buf[i:])
	return string(buf[:2+n])
}

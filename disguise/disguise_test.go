// Package disguise correctness tests: the transform must be a self-inverse
// bijection, map nil to the empty sentinel, and never produce the 0b10
// discriminant pattern for word-aligned input.
package disguise

import (
	"testing"
	"unsafe"
)

// -----------------------------------------------------------------------------
// ░░ Round Trip ░░
// -----------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	var x uint64
	p := unsafe.Pointer(&x)
	w := Disguise(p)
	if w.Pointer() != p {
		t.Fatalf("round trip: got %p, want %p", w.Pointer(), p)
	}
	if w.Addr() != uintptr(p) {
		t.Fatalf("Addr round trip: got %#x, want %#x", w.Addr(), uintptr(p))
	}
}

func TestRoundTripAddr(t *testing.T) {
	for _, a := range []uintptr{8, 0x1000, 0xdeadbeef0, 1 << 40} {
		if got := DisguiseAddr(a).Addr(); got != a {
			t.Fatalf("DisguiseAddr(%#x) round trip = %#x", a, got)
		}
	}
}

// -----------------------------------------------------------------------------
// ░░ Sentinel ░░
// -----------------------------------------------------------------------------

func TestNilSentinel(t *testing.T) {
	if w := Disguise(nil); w != Nil {
		t.Fatalf("Disguise(nil) = %#x, want 0", uintptr(w))
	}
	if !Nil.IsNil() {
		t.Fatal("Nil.IsNil() = false")
	}
	var x uint64
	if Disguise(unsafe.Pointer(&x)).IsNil() {
		t.Fatal("live address disguised to the nil sentinel")
	}
}

func TestZeroValueIsEmpty(t *testing.T) {
	// Zero-initialized slot arrays must read as empty without a fill pass.
	var w Word
	if !w.IsNil() {
		t.Fatal("zero Word is not the empty sentinel")
	}
}

// -----------------------------------------------------------------------------
// ░░ Discriminant Safety ░░
// -----------------------------------------------------------------------------

// The out-of-line marker is 0b10 in the low two bits. A disguised
// word-aligned address must never collide with it.
func TestAlignedNeverDisguisesToMarker(t *testing.T) {
	for a := uintptr(0); a < 1<<16; a += 8 {
		if low := uintptr(DisguiseAddr(a)) & 0b11; low == 0b10 {
			t.Fatalf("DisguiseAddr(%#x) has low bits 0b10", a)
		}
	}
}

func TestDistinctInputsDistinctWords(t *testing.T) {
	seen := make(map[Word]uintptr)
	for a := uintptr(8); a < 1<<12; a += 8 {
		w := DisguiseAddr(a)
		if prev, dup := seen[w]; dup {
			t.Fatalf("addresses %#x and %#x disguise to the same word", prev, a)
		}
		seen[w] = a
	}
}

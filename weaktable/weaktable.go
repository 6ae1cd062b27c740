// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: weaktable.go — Registration protocol (register / unregister / clear)
//
// Purpose:
//   - The three public operations mediating between weak-variable callers
//     and the two hash layers, plus the debug-only registration probe.
//
// Notes:
//   - Every operation requires the caller to hold the lock guarding the
//     specific Table (the stripe package does this for the runtime). No
//     operation suspends, allocates beyond resize, or re-enters the table.
//   - The weak variable itself is written by the CALLER on register and
//     unregister; only Clear stores through the registered addresses, and
//     that store is what makes observers see the referent's death.
// ─────────────────────────────────────────────────────────────────────────────

package weaktable

import (
	"unsafe"

	"weaktable/debug"
	"weaktable/disguise"
	"weaktable/utils"
)

// ═══════════════════════════════════════════════════════════════════════════
// REGISTER
// ═══════════════════════════════════════════════════════════════════════════

// Register records that the weak variable at referrer is about to point at
// referent, and returns the value the caller should store there.
//
// Outcomes:
//   - nil or tagged referent: returned unchanged, table untouched — weak
//     references to immediates are always valid without bookkeeping.
//   - referent mid-destruction (or the permission query unanswerable):
//     returns nil so the caller stores nil instead of a dangling address;
//     with crashIfDying set, a dying referent aborts with a diagnostic
//     naming the object and its class.
//   - otherwise: the referrer joins the referent's set (created inline on
//     first registration) and referent is returned.
//
// The referrer slot itself is not written here.
func Register(t *Table, referent unsafe.Pointer, referrer *unsafe.Pointer, crashIfDying bool) unsafe.Pointer {
	if referent == nil || IsTaggedPointer(referent) {
		return referent
	}

	dying, answerable := IsDeallocating(referent)
	if !answerable {
		return nil
	}
	if dying {
		if crashIfDying {
			debug.Fatal("weaktable",
				"cannot form weak reference to instance ("+utils.Hex(uintptr(referent))+
					") of class "+ClassName(referent)+
					"; the object may be over-released or mid-destruction")
		}
		return nil
	}

	ref := disguise.Disguise(referent)
	slot := disguise.DisguiseAddr(uintptr(unsafe.Pointer(referrer)))

	if e := t.entryFor(ref); e != nil {
		e.append(slot)
	} else {
		ne := newEntry(ref, slot)
		t.growMaybe()
		t.insert(&ne)
	}
	return referent
}

// ═══════════════════════════════════════════════════════════════════════════
// UNREGISTER
// ═══════════════════════════════════════════════════════════════════════════

// Unregister removes the (referent, referrer) registration because the weak
// variable's backing storage is going away while the referent lives. The
// variable is not modified. Absent referents are ignored; an unknown
// referrer inside a live set is reported as misuse. A set emptied here is
// removed from the directory, which may compact.
func Unregister(t *Table, referent unsafe.Pointer, referrer *unsafe.Pointer) {
	if referent == nil {
		return
	}

	ref := disguise.Disguise(referent)
	e := t.entryFor(ref)
	if e == nil {
		return
	}

	e.remove(disguise.DisguiseAddr(uintptr(unsafe.Pointer(referrer))))
	if e.isEmpty() {
		t.removeEntry(e)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// CLEAR
// ═══════════════════════════════════════════════════════════════════════════

// Clear is invoked from the referent's destructor. Every registered weak
// variable still aimed at the referent is overwritten with nil through its
// disguised address; a slot found aiming elsewhere indicates earlier misuse
// of the weak APIs and is reported but left alone. The referent's entry is
// then removed, so a second Clear is a no-op.
//
// An absent referent is tolerated: destruction paths of mismatched
// frameworks can reach here without a registration.
func Clear(t *Table, referent unsafe.Pointer) {
	if referent == nil {
		return
	}

	ref := disguise.Disguise(referent)
	e := t.entryFor(ref)
	if e == nil {
		return
	}

	var slots []disguise.Word
	if e.outOfLine() {
		slots = e.referrers
	} else {
		slots = e.inline[:]
	}

	for i := range slots {
		w := slots[i]
		if w.IsNil() {
			continue
		}
		loc := (*unsafe.Pointer)(w.Pointer())
		switch *loc {
		case referent:
			*loc = nil
		case nil:
			// Already nil: the variable was cleared by its own path first.
		default:
			debug.DropMessage("weaktable",
				"weak variable at "+utils.Hex(w.Addr())+
					" holds "+utils.Hex(uintptr(*loc))+
					" instead of "+utils.Hex(uintptr(referent))+
					"; probable mismatched weak init/destroy calls")
			reportMisuse(MisuseRetargetedSlot, uintptr(referent), w.Addr(),
				"weak variable retargeted while its referent was being destroyed")
			debug.WeakError()
		}
	}

	t.removeEntry(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// DEBUG PROBE
// ═══════════════════════════════════════════════════════════════════════════

// IsRegistered reports whether any weak variable is registered against
// referent. Debug aid only — production callers have no business asking.
func IsRegistered(t *Table, referent unsafe.Pointer) bool {
	if referent == nil {
		return false
	}
	return t.entryFor(disguise.Disguise(referent)) != nil
}

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path diagnostics for the weak-table core
//
// Purpose:
//   - Non-fatal misuse reporting (unknown referrer, retargeted weak slot).
//   - Fatal abort on detected table corruption.
//   - A break-on symbol debuggers can trap when misuse is detected.
//
// Notes:
//   - Uses stackless logging model: single concat, single write, no fmt.
//   - Fatal paths run with the caller's stripe lock held; they must not
//     re-enter the table.
//
// ⚠️ Never invoke in hot loops — use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "weaktable/utils"

// DropMessage logs a diagnostic with one string concat and one raw write.
// Used for cold-path misuse reports and state-change notices.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	msg := prefix + ": " + message + "\n"
	utils.PrintWarning(msg)
}

// DropError logs an error with the same concat-then-write strategy.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		msg := prefix + ": " + err.Error() + "\n"
		utils.PrintWarning(msg)
	} else {
		msg := prefix + "\n"
		utils.PrintWarning(msg)
	}
}

// Fatal reports unrecoverable state corruption and aborts.
// The message is written to stderr before the panic so it survives callers
// that recover and re-raise.
func Fatal(prefix, detail string) {
	msg := prefix + ": " + detail
	utils.PrintWarning(msg + "\n")
	panic(msg)
}

// weakErrorObserver, when non-nil, is invoked from WeakError.
// Installed by tests through HookWeakError; nil in production.
var weakErrorObserver func()

// WeakError is the well-known misuse symbol. It does nothing by itself —
// set a debugger breakpoint on it to catch weak-reference API misuse at the
// moment of detection.
//
//go:noinline
func WeakError() {
	if weakErrorObserver != nil {
		weakErrorObserver()
	}
}

// HookWeakError installs fn as the WeakError observer and returns the
// previous observer so callers can chain or restore it.
func HookWeakError(fn func()) func() {
	prev := weakErrorObserver
	weakErrorObserver = fn
	return prev
}

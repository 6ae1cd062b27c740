// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: audit.go — Offline misuse journal for the weak-table core
//
// Purpose:
//   - Records detected weak-API misuse (unknown-referrer unregisters,
//     retargeted slots found during clear) into a sqlite journal so leaks
//     and double-destroys can be diagnosed after the process is gone.
//
// Notes:
//   - Strictly cold path: the recorder sits behind the MisuseReporter hook
//     and misuse is, by definition, exceptional. Table contents are never
//     persisted — events only.
//   - Addresses are journaled as integers; the payload column carries the
//     structured event as JSON for ad-hoc querying.
// ─────────────────────────────────────────────────────────────────────────────

package audit

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sugawarayuuta/sonnet"

	"weaktable/weaktable"
)

const schema = `
CREATE TABLE IF NOT EXISTS weak_misuse (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ns     INTEGER NOT NULL,
	kind      TEXT    NOT NULL,
	referent  INTEGER NOT NULL,
	referrer  INTEGER NOT NULL,
	detail    TEXT    NOT NULL,
	payload   TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS weak_misuse_kind ON weak_misuse(kind);
`

// Event is the journaled record of one detected misuse.
type Event struct {
	AtNs     int64  `json:"at_ns"`
	Kind     string `json:"kind"`
	Referent uint64 `json:"referent"`
	Referrer uint64 `json:"referrer"`
	Detail   string `json:"detail"`
}

// Recorder journals misuse events into one sqlite database.
type Recorder struct {
	db     *sql.DB
	insert *sql.Stmt
	detach func() // restores the previous MisuseReporter; nil when not attached
}

// Open creates (or reopens) a journal at path. ":memory:" works for tests.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "audit: open journal")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit: journal unreachable")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit: create schema")
	}
	insert, err := db.Prepare(
		`INSERT INTO weak_misuse (at_ns, kind, referent, referrer, detail, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "audit: prepare insert")
	}

	log.WithField("path", path).Debug("weak misuse journal opened")
	return &Recorder{db: db, insert: insert}, nil
}

// Record journals one event. Failures are logged and swallowed: the journal
// must never turn a diagnostic into a new failure mode.
func (r *Recorder) Record(ev Event) {
	if ev.AtNs == 0 {
		ev.AtNs = time.Now().UnixNano()
	}
	payload, err := sonnet.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("audit: event payload marshal failed")
		payload = []byte("{}")
	}
	if _, err := r.insert.Exec(ev.AtNs, ev.Kind, int64(ev.Referent),
		int64(ev.Referrer), ev.Detail, string(payload)); err != nil {
		log.WithError(err).Warn("audit: journal insert failed")
	}
}

// Attach installs the recorder as the core's MisuseReporter, chaining any
// reporter already installed. Call Detach (or Close) to restore it.
func (r *Recorder) Attach() {
	prev := weaktable.MisuseReporter
	weaktable.MisuseReporter = func(kind weaktable.Misuse, referent, referrer uintptr, detail string) {
		r.Record(Event{
			Kind:     string(kind),
			Referent: uint64(referent),
			Referrer: uint64(referrer),
			Detail:   detail,
		})
		if prev != nil {
			prev(kind, referent, referrer, detail)
		}
	}
	r.detach = func() { weaktable.MisuseReporter = prev }
}

// Detach restores the MisuseReporter that was installed before Attach.
func (r *Recorder) Detach() {
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
}

// Count returns the number of journaled events of one kind ("" for all).
func (r *Recorder) Count(kind string) (int, error) {
	var n int
	var err error
	if kind == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM weak_misuse`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM weak_misuse WHERE kind = ?`, kind).Scan(&n)
	}
	if err != nil {
		return 0, errors.Wrap(err, "audit: count")
	}
	return n, nil
}

// Events returns the journaled events of one kind ("" for all), oldest first.
func (r *Recorder) Events(kind string) ([]Event, error) {
	q := `SELECT payload FROM weak_misuse ORDER BY id`
	args := []any{}
	if kind != "" {
		q = `SELECT payload FROM weak_misuse WHERE kind = ? ORDER BY id`
		args = append(args, kind)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "audit: query events")
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "audit: scan event")
		}
		var ev Event
		if err := sonnet.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, errors.Wrap(err, "audit: decode event payload")
		}
		out = append(out, ev)
	}
	return out, errors.Wrap(rows.Err(), "audit: iterate events")
}

// Close detaches the recorder and releases the journal.
func (r *Recorder) Close() error {
	r.Detach()
	if r.insert != nil {
		r.insert.Close()
	}
	return errors.Wrap(r.db.Close(), "audit: close journal")
}

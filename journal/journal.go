package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned when using a closed journal
var ErrClosed = errors.New("journal closed")

// queueSize is the number of events buffered for the writer
const queueSize = 256

// Event is a single entry of a maneuver journal
type Event struct {
	ManeuverID string
	At         time.Time
	// Kind is the type of event such as a command or phase change
	Kind   string
	Phase  string
	Detail string
}

// Journal records the commands and phase transitions of parking maneuvers
// into a SQLite database.  Events are written by a background goroutine so
// recording never blocks the caller.
type Journal struct {
	db     *sql.DB
	queue  chan entry
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	// dropped counts events discarded because the queue was full
	dropped atomic.Int64
}

// entry is a queued event, or a flush marker when done is set
type entry struct {
	event Event
	done  chan struct{}
}

// Open opens or creates the journal database at path and applies the schema
// migrations
func Open(path string) (*Journal, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// a single connection keeps in-memory databases and write ordering
	// consistent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{
		db:    db,
		queue: make(chan entry, queueSize),
	}

	j.wg.Add(1)
	go j.writer()

	return j, nil
}

// Version returns the applied schema version
func (j *Journal) Version() (uint, error) {
	return schemaVersion(j.db)
}

// Begin starts a new maneuver and returns its handle
func (j *Journal) Begin(ctx context.Context) (*Maneuver, error) {

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}

	id := uuid.NewString()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO maneuvers (id, started_at) VALUES (?, ?)",
		id, time.Now().UnixNano())

	if err != nil {
		return nil, fmt.Errorf("failed to insert maneuver: %w", err)
	}

	return &Maneuver{ID: id, j: j}, nil
}

// record queues an event for writing, dropping it when the queue is full
func (j *Journal) record(e Event) {

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return
	}

	select {
	case j.queue <- entry{event: e}:
	default:
		if n := j.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Printf("[journal] queue full, dropped %d events", n)
		}
	}
}

// writer inserts queued events until the queue is closed
func (j *Journal) writer() {

	defer j.wg.Done()

	for item := range j.queue {
		if item.done != nil {
			close(item.done)
			continue
		}

		e := item.event

		_, err := j.db.Exec(
			"INSERT INTO events (maneuver_id, at, kind, phase, detail) VALUES (?, ?, ?, ?, ?)",
			e.ManeuverID, e.At.UnixNano(), e.Kind, e.Phase, e.Detail)

		if err != nil {
			log.Printf("[journal] error writing event: %v", err)
		}
	}
}

// Events returns the recorded events of a maneuver in insertion order
func (j *Journal) Events(ctx context.Context, maneuverID string) ([]Event, error) {

	rows, err := j.db.QueryContext(ctx,
		"SELECT at, kind, phase, detail FROM events WHERE maneuver_id = ? ORDER BY id",
		maneuverID)

	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	defer rows.Close()

	var out []Event

	for rows.Next() {
		var at int64
		e := Event{ManeuverID: maneuverID}

		if err := rows.Scan(&at, &e.Kind, &e.Phase, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.At = time.Unix(0, at)
		out = append(out, e)
	}

	return out, rows.Err()
}

// Flush waits until all events queued before the call have been written
func (j *Journal) Flush() {

	j.mu.RLock()

	if j.closed {
		j.mu.RUnlock()
		return
	}

	done := make(chan struct{})
	j.queue <- entry{done: done}
	j.mu.RUnlock()

	<-done
}

// Dropped returns the number of events discarded because the queue was
// full
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close stops the writer after draining queued events and closes the
// database
func (j *Journal) Close() error {

	j.mu.Lock()

	if j.closed {
		j.mu.Unlock()
		return nil
	}

	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	j.wg.Wait()

	return j.db.Close()
}

// Maneuver is the journal handle of one parking maneuver
type Maneuver struct {
	ID string
	j  *Journal
}

// Record queues an event for the maneuver
func (m *Maneuver) Record(kind, phase, detail string) {
	m.j.record(Event{
		ManeuverID: m.ID,
		At:         time.Now(),
		Kind:       kind,
		Phase:      phase,
		Detail:     detail,
	})
}

// Package catalog records decode runs in a SQLite database: which scripts
// were decoded, from which content hash, and which failed and why. The
// driver consults it to skip scripts whose bytes have not changed.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/sc3/dist"
	"github.com/chazu/sc3/pkg/sc3"
)

// ErrNotFound indicates the script has no successful decode on record, or
// the run does not exist.
var ErrNotFound = errors.New("script not found")

var log = commonlog.GetLogger("sc3.catalog")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER,
	decoded     INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS scripts (
	name         TEXT PRIMARY KEY,
	hash         TEXT NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	instructions INTEGER NOT NULL,
	decoded_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	name     TEXT NOT NULL,
	hash     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	position INTEGER,
	message  TEXT NOT NULL,
	PRIMARY KEY (run_id, name)
);`

// Catalog is a handle on the catalog database. It is safe for concurrent
// use; writes are serialized.
type Catalog struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Run identifies one invocation of the decoder.
type Run struct {
	ID      string
	Started time.Time
}

// Stats are the per-run counters stored by FinishRun.
type Stats struct {
	Decoded int
	Skipped int
	Failed  int
}

// RunRecord is a stored run. Finished is zero while the run is open.
type RunRecord struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Stats    Stats
}

// Script is the last successful decode of a script.
type Script struct {
	Name         string
	Hash         string
	RunID        string
	Instructions int
	DecodedAt    time.Time
}

// Failure is one failed decode.
type Failure struct {
	RunID    string
	Name     string
	Hash     string
	Kind     string
	Position int64 // -1 when the failure has no instruction position
	Message  string
}

// Open opens or creates the catalog at path.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection, so the pragma below holds for every query.
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debugf("opened catalog %s", path)
	return &Catalog{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// BeginRun starts a new run.
func (c *Catalog) BeginRun() (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	run := &Run{ID: uuid.New().String(), Started: time.Now()}
	if _, err := c.db.Exec(
		"INSERT INTO runs (id, started_at) VALUES (?, ?)",
		run.ID, run.Started.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("beginning run: %w", err)
	}
	log.Infof("run %s started", run.ID)
	return run, nil
}

// RecordScript stores a successful decode, replacing any earlier one.
func (c *Catalog) RecordScript(run *Run, name string, hash dist.Hash, instructions int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(
		`INSERT OR REPLACE INTO scripts (name, hash, run_id, instructions, decoded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		name, hash.String(), run.ID, instructions, time.Now().UnixNano(),
	); err != nil {
		return fmt.Errorf("recording script %s: %w", name, err)
	}
	return nil
}

// RecordFailure stores a failed decode. The script loses its successful
// record so the next run tries it again.
func (c *Catalog) RecordFailure(run *Run, name string, hash dist.Hash, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, position := describe(cause)
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("recording failure %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM scripts WHERE name = ?", name); err != nil {
		return fmt.Errorf("recording failure %s: %w", name, err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO failures (run_id, name, hash, kind, position, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, name, hash.String(), kind, position, cause.Error(),
	); err != nil {
		return fmt.Errorf("recording failure %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording failure %s: %w", name, err)
	}
	return nil
}

// FinishRun stores the run's counters.
func (c *Catalog) FinishRun(run *Run, stats Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec(
		`UPDATE runs SET finished_at = ?, decoded = ?, skipped = ?, failed = ? WHERE id = ?`,
		time.Now().UnixNano(), stats.Decoded, stats.Skipped, stats.Failed, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: no such run", run.ID)
	}
	log.Infof("run %s finished: %d decoded, %d skipped, %d failed",
		run.ID, stats.Decoded, stats.Skipped, stats.Failed)
	return nil
}

const runColumns = "id, started_at, finished_at, decoded, skipped, failed"

// LookupRun returns the stored record of a run.
func (c *Catalog) LookupRun(id string) (*RunRecord, error) {
	return scanRun(c.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
}

// LatestRun returns the most recently started run.
func (c *Catalog) LatestRun() (*RunRecord, error) {
	return scanRun(c.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY started_at DESC LIMIT 1"))
}

func scanRun(row *sql.Row) (*RunRecord, error) {
	var r RunRecord
	var started int64
	var finished sql.NullInt64
	err := row.Scan(&r.ID, &started, &finished, &r.Stats.Decoded, &r.Stats.Skipped, &r.Stats.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	r.Started = time.Unix(0, started)
	if finished.Valid {
		r.Finished = time.Unix(0, finished.Int64)
	}
	return &r, nil
}

// Lookup returns the last successful decode of name.
func (c *Catalog) Lookup(name string) (*Script, error) {
	var s Script
	var decodedAt int64
	err := c.db.QueryRow(
		"SELECT name, hash, run_id, instructions, decoded_at FROM scripts WHERE name = ?", name,
	).Scan(&s.Name, &s.Hash, &s.RunID, &s.Instructions, &decodedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying script: %w", err)
	}
	s.DecodedAt = time.Unix(0, decodedAt)
	return &s, nil
}

// Unchanged reports whether name was last decoded successfully from bytes
// with the same hash.
func (c *Catalog) Unchanged(name string, hash dist.Hash) (bool, error) {
	s, err := c.Lookup(name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.Hash == hash.String() {
		log.Debugf("%s unchanged since run %s", name, s.RunID)
		return true, nil
	}
	return false, nil
}

// Failures lists the failures recorded for a run, ordered by name.
func (c *Catalog) Failures(runID string) ([]Failure, error) {
	rows, err := c.db.Query(
		`SELECT run_id, name, hash, kind, position, message FROM failures
		 WHERE run_id = ? ORDER BY name`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		var position sql.NullInt64
		if err := rows.Scan(&f.RunID, &f.Name, &f.Hash, &f.Kind, &position, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		f.Position = -1
		if position.Valid {
			f.Position = position.Int64
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

var kinds = []error{
	sc3.ErrGrammar,
	sc3.ErrStructural,
	sc3.ErrUnknownOpcode,
	sc3.ErrResolution,
	sc3.ErrMalformedChoice,
	sc3.ErrMalformedFunctionCall,
	sc3.ErrTruncated,
}

// describe returns the stored kind and position of a failure cause.
func describe(err error) (string, sql.NullInt64) {
	var position sql.NullInt64
	var de *sc3.DecodeError
	if errors.As(err, &de) && de.HasPosition {
		position = sql.NullInt64{Int64: int64(de.Position), Valid: true}
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error(), position
		}
	}
	return "other", position
}

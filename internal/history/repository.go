package history

import (
	"database/sql"
	"fmt"
	"time"

	"shipctl/internal/database"
)

// Outcomes recorded per run.
const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeRolledBack = "rolled_back"
)

// Entry is one row of the local deploy history.
type Entry struct {
	ID             int64
	StartedAt      time.Time
	Command        string // "deploy" or "rollback"
	Commit         string
	PreviousCommit string
	TargetURL      string
	Outcome        string
	Detail         string
	Steps          int
	DurationMs     int64
}

// EntryFromRecord summarizes a finished run for the history table.
func EntryFromRecord(command string, record *DeploymentRecord, outcome, detail string) *Entry {
	return &Entry{
		StartedAt:      record.StartedAt,
		Command:        command,
		Commit:         record.Commit,
		PreviousCommit: record.PreviousCommit,
		TargetURL:      record.TargetURL,
		Outcome:        outcome,
		Detail:         detail,
		Steps:          len(record.Steps),
		DurationMs:     record.Duration().Milliseconds(),
	}
}

// Repository defines the persistence interface for history entries.
type Repository interface {
	Save(entry *Entry) error
	List(limit int) ([]Entry, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the history repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS deploys (
            id              INTEGER PRIMARY KEY AUTOINCREMENT,
            started_at      TEXT    NOT NULL,
            command         TEXT    NOT NULL,
            commit_id       TEXT    NOT NULL DEFAULT '',
            previous_commit TEXT    NOT NULL DEFAULT '',
            target_url      TEXT    NOT NULL DEFAULT '',
            outcome         TEXT    NOT NULL DEFAULT '',
            detail          TEXT    NOT NULL DEFAULT '',
            steps           INTEGER NOT NULL DEFAULT 0,
            duration_ms     INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_deploys_started_at ON deploys(started_at);
        CREATE INDEX IF NOT EXISTS idx_deploys_outcome ON deploys(outcome);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("history: migration failed: %w", err)
	}
	return nil
}

// Save inserts a new history entry.
func (r *SQLiteRepository) Save(entry *Entry) error {
	if entry.StartedAt.IsZero() {
		entry.StartedAt = now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO deploys (started_at, command, commit_id, previous_commit, target_url, outcome, detail, steps, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.StartedAt.Format(time.RFC3339Nano), entry.Command, entry.Commit, entry.PreviousCommit,
		entry.TargetURL, entry.Outcome, entry.Detail, entry.Steps, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("history: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns the most recent entries, newest first.
func (r *SQLiteRepository) List(limit int) ([]Entry, error) {
	rows, err := r.db.Query(`
        SELECT id, started_at, command, commit_id, previous_commit, target_url, outcome, detail, steps, duration_ms
        FROM deploys ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var startedStr string
		err := rows.Scan(
			&entry.ID, &startedStr, &entry.Command, &entry.Commit, &entry.PreviousCommit,
			&entry.TargetURL, &entry.Outcome, &entry.Detail, &entry.Steps, &entry.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("history: scan failed: %w", err)
		}
		entry.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Prune removes entries older than the given age. Returns the number
// of entries removed.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM deploys WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: prune failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

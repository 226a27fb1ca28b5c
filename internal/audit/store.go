package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lhoang/mailbridge/internal/model"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS operations (
	id         TEXT PRIMARY KEY,
	timestamp  DATETIME NOT NULL,
	operation  TEXT NOT NULL,
	parameters TEXT NOT NULL DEFAULT '{}',
	outcome    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_timestamp ON operations(timestamp);
CREATE INDEX IF NOT EXISTS idx_operations_operation ON operations(operation);
`,
	},
}

// Store persists audit records in a local SQLite database. It backs
// the in-memory ring so the trail survives restarts; reads for the
// gate always come from the ring.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the audit database at dbPath, enables
// WAL mode, and runs any pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
	}

	return nil
}

// Insert writes one record. Parameters are stored as JSON.
func (s *Store) Insert(rec model.OperationRecord) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO operations (id, timestamp, operation, parameters, outcome)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Operation, string(params), rec.Outcome,
	)
	if err != nil {
		return fmt.Errorf("inserting operation record: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest last.
func (s *Store) Recent(n int) ([]model.OperationRecord, error) {
	type row struct {
		ID         string `db:"id"`
		Timestamp  string `db:"timestamp"`
		Operation  string `db:"operation"`
		Parameters string `db:"parameters"`
		Outcome    string `db:"outcome"`
	}

	var rows []row
	err := s.db.Select(&rows,
		`SELECT id, timestamp, operation, parameters, outcome
		 FROM operations ORDER BY timestamp DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying operation records: %w", err)
	}

	recs := make([]model.OperationRecord, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing record timestamp %q: %w", r.Timestamp, err)
		}
		var params map[string]string
		if err := json.Unmarshal([]byte(r.Parameters), &params); err != nil {
			return nil, fmt.Errorf("decoding record parameters: %w", err)
		}
		recs = append(recs, model.OperationRecord{
			ID:         r.ID,
			Timestamp:  ts,
			Operation:  r.Operation,
			Parameters: params,
			Outcome:    r.Outcome,
		})
	}
	return recs, nil
}

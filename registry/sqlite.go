package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andishehs/MetaGen/core"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements core.Registry and core.OutcomeStore on a SQLite
// database file.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteOptions configures NewSQLiteStore.
type SQLiteOptions struct {
	// Seed inserts these orchestras when the orchestras table is empty.
	Seed []core.Orchestra
}

// NewSQLiteStore opens (or creates) the database at dbPath, runs the schema
// migration and seeds the sample orchestras into an empty registry.
func NewSQLiteStore(dbPath string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{Seed: Samples()}

	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	// WAL mode for concurrent readers while a session result is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate registry db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.seed(opts.Seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed registry db: %w", err)
	}
	return s, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orchestras (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date        TEXT NOT NULL,
			json_data   TEXT NOT NULL DEFAULT '{}'
		);
		CREATE TABLE IF NOT EXISTS outcomes (
			session_id     TEXT PRIMARY KEY,
			orchestra      TEXT NOT NULL,
			status         TEXT NOT NULL,
			failure_reason TEXT NOT NULL DEFAULT '',
			rounds         INTEGER NOT NULL,
			transcript     TEXT NOT NULL DEFAULT '[]',
			started_at     TEXT NOT NULL,
			ended_at       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_outcomes_orchestra ON outcomes(orchestra, started_at);
	`)
	return err
}

func (s *SQLiteStore) seed(samples []core.Orchestra) error {
	if len(samples) == 0 {
		return nil
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orchestras").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range samples {
		o := samples[i]
		if err := validate(&o); err != nil {
			return err
		}
		normalize(&o)
		if _, err := tx.Exec(
			"INSERT INTO orchestras (name, description, date, json_data) VALUES (?, ?, ?, ?)",
			o.Name, o.Description, o.Date, string(o.Definition),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements core.Registry.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*core.Orchestra, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, date, json_data FROM orchestras WHERE name = ?", name,
	)

	var o core.Orchestra
	var data string
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Date, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("orchestra %q: %w", name, core.ErrNotFound)
		}
		return nil, err
	}
	o.Definition = json.RawMessage(data)
	return &o, nil
}

// Save implements core.Registry as an upsert by name.
func (s *SQLiteStore) Save(ctx context.Context, o *core.Orchestra) error {
	if err := validate(o); err != nil {
		return err
	}
	normalize(o)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orchestras (name, description, date, json_data) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			date        = excluded.date,
			json_data   = excluded.json_data`,
		o.Name, o.Description, o.Date, string(o.Definition),
	)
	if err != nil {
		return fmt.Errorf("save orchestra %q: %w", o.Name, err)
	}
	return s.db.QueryRowContext(ctx, "SELECT id FROM orchestras WHERE name = ?", o.Name).Scan(&o.ID)
}

// List implements core.Registry.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM orchestras ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete implements core.Registry.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orchestras WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("orchestra %q: %w", name, core.ErrNotFound)
	}
	return nil
}

// SaveOutcome implements core.OutcomeStore.
func (s *SQLiteStore) SaveOutcome(ctx context.Context, rec core.OutcomeRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("%w: outcome without session id", core.ErrInvalidSession)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outcomes (session_id, orchestra, status, failure_reason, rounds, transcript, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Orchestra, rec.Status.String(), rec.FailureReason, rec.Rounds, string(transcript),
		rec.StartedAt.UTC().Format(timeLayout), rec.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save outcome %s: %w", rec.SessionID, err)
	}
	return nil
}

const outcomeColumns = "session_id, orchestra, status, failure_reason, rounds, transcript, started_at, ended_at"

// GetOutcome implements core.OutcomeStore.
func (s *SQLiteStore) GetOutcome(ctx context.Context, sessionID string) (*core.OutcomeRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+outcomeColumns+" FROM outcomes WHERE session_id = ?", sessionID)
	rec, err := scanOutcome(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("outcome %s: %w", sessionID, core.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// ListOutcomes implements core.OutcomeStore. An empty orchestra lists all.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, orchestra string) ([]core.OutcomeRecord, error) {
	query := "SELECT " + outcomeColumns + " FROM outcomes"
	var args []any
	if orchestra != "" {
		query += " WHERE orchestra = ?"
		args = append(args, orchestra)
	}
	query += " ORDER BY started_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []core.OutcomeRecord{}
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row scanner) (*core.OutcomeRecord, error) {
	var rec core.OutcomeRecord
	var status, transcript, started, ended string
	if err := row.Scan(&rec.SessionID, &rec.Orchestra, &status, &rec.FailureReason, &rec.Rounds,
		&transcript, &started, &ended); err != nil {
		return nil, err
	}

	var err error
	if rec.Status, err = core.ParseStatus(status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(transcript), &rec.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	rec.StartedAt, _ = time.Parse(timeLayout, started)
	rec.EndedAt, _ = time.Parse(timeLayout, ended)
	return &rec, nil
}

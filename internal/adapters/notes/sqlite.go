package notes

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLite is a Store persisted in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates when needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("notes: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("notes: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("notes: ping database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("notes: read schema: %w", err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("notes: execute schema: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key Key) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	var note string
	err := s.db.QueryRowContext(ctx,
		`SELECT note FROM kpi_notes WHERE employee_id = ? AND period = ? AND kpi_id = ?`,
		key.Employee, key.Period, key.KPI).Scan(&note)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("notes: get: %w", err)
	}
	return note, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, key Key, text string) error {
	if err := key.validate(); err != nil {
		return err
	}
	if text == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM kpi_notes WHERE employee_id = ? AND period = ? AND kpi_id = ?`,
			key.Employee, key.Period, key.KPI)
		if err != nil {
			return fmt.Errorf("notes: delete: %w", err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kpi_notes (employee_id, period, kpi_id, note, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(employee_id, period, kpi_id) DO UPDATE SET
			note = excluded.note,
			updated_at = CURRENT_TIMESTAMP`,
		key.Employee, key.Period, key.KPI, text)
	if err != nil {
		return fmt.Errorf("notes: set: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context, employee, period string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kpi_id, note FROM kpi_notes WHERE employee_id = ? AND period = ?`,
		employee, period)
	if err != nil {
		return nil, fmt.Errorf("notes: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var kpi, note string
		if err := rows.Scan(&kpi, &note); err != nil {
			return nil, fmt.Errorf("notes: scan: %w", err)
		}
		out[kpi] = note
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notes: list: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

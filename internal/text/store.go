package text

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/f3rmion/dlgview/internal/tabular"
)

const schema = `CREATE TABLE IF NOT EXISTS strings (
	id   INTEGER PRIMARY KEY,
	text TEXT NOT NULL
)`

// Store is a sqlite-backed string table, built once from a TableTalk
// export so later runs skip the CSV parse.
type Store struct {
	path string
	db   *sql.DB
}

// OpenStore opens (creating if needed) the string database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ImportCSV replaces the stored strings with the rows of a TableTalk
// export and returns how many were stored.
func (s *Store) ImportCSV(path string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM strings"); err != nil {
		return 0, fmt.Errorf("clearing strings: %w", err)
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO strings (id, text) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	err = tabular.Each(path, func(_ int, cols []string) {
		if insertErr != nil {
			return
		}
		id, text, ok := parseRow(cols)
		if !ok {
			return
		}
		if _, err := stmt.Exec(id, text); err != nil {
			insertErr = fmt.Errorf("inserting string %d: %w", id, err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("importing strings: %w", err)
	}
	if insertErr != nil {
		return 0, insertErr
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}

	n, err := s.Count()
	if err != nil {
		return 0, err
	}
	slog.Info("imported strings", "count", n, "db", s.path)
	return n, nil
}

// Count returns the number of stored strings.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM strings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting strings: %w", err)
	}
	return n, nil
}

// Get returns the raw text for id.
func (s *Store) Get(id int32) (string, bool, error) {
	var text string
	err := s.db.QueryRow("SELECT text FROM strings WHERE id = ?", id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying string %d: %w", id, err)
	}
	return text, true, nil
}

// Table loads every stored string into an in-memory table.
func (s *Store) Table(g Gender) (*Table, error) {
	rows, err := s.db.Query("SELECT id, text FROM strings")
	if err != nil {
		return nil, fmt.Errorf("querying strings: %w", err)
	}
	defer rows.Close()

	t := NewTable(g)
	for rows.Next() {
		var (
			id   int32
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scanning string: %w", err)
		}
		t.Add(id, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Summary describes the store contents.
func (s *Store) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("String table: %s\n", s.path))
	n, err := s.Count()
	if err != nil {
		sb.WriteString(fmt.Sprintf("  Error: %v\n", err))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("  Strings: %d\n", n))
	return sb.String()
}

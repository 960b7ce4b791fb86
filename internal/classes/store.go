package classes

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/theSKAILab/TART/internal/engine/token"
)

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	position INTEGER NOT NULL,
	id       INTEGER NOT NULL UNIQUE,
	name     TEXT    NOT NULL UNIQUE,
	color    TEXT    NOT NULL
)`

// Store persists the class list between sessions in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the class store at path. Use ":memory:" for a
// throwaway store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open class store: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create class table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored classes with classes, keeping their order.
func (s *Store) Save(ctx context.Context, classes []token.LabelClass) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save classes: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM classes`); err != nil {
		return fmt.Errorf("clear classes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO classes (position, id, name, color) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range classes {
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.Name, c.Color); err != nil {
			return fmt.Errorf("insert class %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// Load returns the stored classes in saved order.
func (s *Store) Load(ctx context.Context) ([]token.LabelClass, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM classes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}
	defer rows.Close()

	var out []token.LabelClass
	for rows.Next() {
		var c token.LabelClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Package sqlite implements the turn archive on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/store"
)

// Store implements store.TurnStore using SQLite.
type Store struct {
	db *sql.DB
}

// Verify interface compliance at compile time.
var _ store.TurnStore = (*Store)(nil)

// New opens (or creates) a SQLite database at the given path and runs
// migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL UNIQUE,
		timestamp DATETIME NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_turns_seq ON turns(seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendTurn persists one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, turn domain.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, seq, timestamp, role, content)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM turns), ?, ?, ?)`,
		uuid.New().String(), turn.Timestamp.UTC(), string(turn.Role), turn.Content,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit of the most recent turns in chronological
// order.
func (s *Store) RecentTurns(ctx context.Context, limit int) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, role, content FROM (
			SELECT seq, timestamp, role, content FROM turns ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		var role string
		if err := rows.Scan(&t.Timestamp, &role, &t.Content); err != nil {
			return nil, err
		}
		t.Role = domain.Role(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Package store keeps a SQLite log of recognized plates.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"plate-reader/pkg/geometry"
)

// Record is one recognized plate.
type Record struct {
	ID         string
	Source     string
	Frame      int
	Plate      string
	Region     geometry.RectInt
	Characters int
	CreatedAt  time.Time
}

// ResultStore is a SQLite-backed recognition log.
type ResultStore struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*ResultStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &ResultStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *ResultStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recognitions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		frame INTEGER DEFAULT 0,
		plate TEXT NOT NULL,
		x INTEGER DEFAULT 0,
		y INTEGER DEFAULT 0,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		characters INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recognitions_created_at ON recognitions(created_at);
	CREATE INDEX IF NOT EXISTS idx_recognitions_plate ON recognitions(plate);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database.
func (s *ResultStore) Close() error {
	return s.conn.Close()
}

// Insert stores rec, filling in ID and CreatedAt when they are unset.
func (s *ResultStore) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO recognitions (id, source, frame, plate, x, y, width, height, characters, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Source, rec.Frame, rec.Plate,
		rec.Region.X, rec.Region.Y, rec.Region.Width, rec.Region.Height,
		rec.Characters, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recognition: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (s *ResultStore) Recent(ctx context.Context, n int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, source, frame, plate, x, y, width, height, characters, created_at
		FROM recognitions ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recognitions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Source, &r.Frame, &r.Plate,
			&r.Region.X, &r.Region.Y, &r.Region.Width, &r.Region.Height,
			&r.Characters, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recognition: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

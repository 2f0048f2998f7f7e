// Package db manages the SQLite database backing the meeting index.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	busyTimeout  = 5000 // milliseconds
	maxOpenConns = 4
	maxIdleConns = 2
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meetings (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	date           TEXT NOT NULL,
	topics         TEXT NOT NULL DEFAULT '',
	participants   TEXT NOT NULL DEFAULT '',
	knowledge_path TEXT NOT NULL,
	indexed_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meetings_date ON meetings(date);
`

// DB wraps the SQLite connection used by the meeting index.
type DB struct {
	conn *sql.DB
}

// Open creates the index database in the data directory, applying the schema.
func Open(dataDir string) (*DB, error) {
	dbPath := filepath.Join(dataDir, "protokoll.db")

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", dbPath, busyTimeout)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)

	if err := conn.PingContext(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if _, err := conn.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Conn returns the underlying connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

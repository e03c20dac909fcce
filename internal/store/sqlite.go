// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout,
//     foreign keys).
//   - Creating the schema idempotently on open.
//   - One JSON snapshot row per room (round-trippable reconstruction on
//     boot) plus an append-only round results table.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS room_snapshots (
    room_id    TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS round_results (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id     TEXT NOT NULL,
    game_type   TEXT NOT NULL,
    mode        TEXT NOT NULL,
    winner      TEXT NOT NULL DEFAULT '',
    attempts    INTEGER NOT NULL DEFAULT 0,
    team_score  INTEGER NOT NULL DEFAULT 0,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_results_room ON round_results(room_id);
`

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite-backed Store.
//
// - Ensures the parent directory exists for relative DSNs (e.g. ./data/app.db).
// - Configures busy timeout and WAL journaling mode.
// - Enforces foreign keys.
// - Applies the schema idempotently.
func OpenSQLite(dsn string) (Store, error) {
	// Ensure directory exists for ./data/app.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SaveRoom(ctx context.Context, roomID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO room_snapshots (room_id, data, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(room_id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		roomID, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id=?`, roomID)
	return err
}

func (s *sqliteStore) LoadRooms(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_id, data FROM room_snapshots`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		out[id] = []byte(data)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RecordResult(ctx context.Context, res RoundResult) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO round_results (room_id, game_type, mode, winner, attempts, team_score, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RoomID, res.GameType, res.Mode, res.Winner, res.Attempts, res.TeamScore,
		res.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }

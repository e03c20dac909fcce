// internal/store/store.go
//
// Persistence interface for the optional durability variant.
// The room layer deals in opaque JSON snapshot blobs so this package stays
// free of game types. All writes on the hot path are best-effort: callers
// log failures and move on, a lost snapshot never fails a guess.

package store

import (
	"context"
	"time"
)

// RoundResult is one finished round, recorded on victory or defeat.
type RoundResult struct {
	RoomID     string
	GameType   string
	Mode       string
	Winner     string // empty on defeat/surrender
	Attempts   int    // total guesses in the round
	TeamScore  int    // blitz only
	FinishedAt time.Time
}

// Store persists room snapshots and round results. Implementations may be
// backed by memory (this package) or SQLite.
type Store interface {
	// SaveRoom inserts or replaces one room's snapshot blob.
	SaveRoom(ctx context.Context, roomID string, data []byte) error

	// DeleteRoom removes a room's snapshot. Missing rooms are not an error.
	DeleteRoom(ctx context.Context, roomID string) error

	// LoadRooms returns every persisted snapshot, keyed by room id.
	LoadRooms(ctx context.Context) (map[string][]byte, error)

	// RecordResult appends a finished-round row.
	RecordResult(ctx context.Context, res RoundResult) error

	Close() error
}

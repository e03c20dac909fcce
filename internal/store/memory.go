// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used when durability is not
// required (the default deployment: room state is process-lifetime only).
//
// Characteristics:
//   - Stores snapshot blobs keyed by room id in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex
	rooms   map[string][]byte
	results []RoundResult
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rooms: make(map[string][]byte)}
}

func (m *memory) SaveRoom(ctx context.Context, roomID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID] = append([]byte(nil), data...)
	return nil
}

func (m *memory) DeleteRoom(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *memory) LoadRooms(ctx context.Context) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.rooms))
	for id, data := range m.rooms {
		out[id] = append([]byte(nil), data...)
	}
	return out, nil
}

func (m *memory) RecordResult(ctx context.Context, res RoundResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

// Results returns the recorded rounds (test helper).
func (m *memory) Results() []RoundResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RoundResult(nil), m.results...)
}

func (m *memory) Close() error { return nil }

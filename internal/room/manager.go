// internal/room/manager.go
//
// Room registry and lifecycle.
// Responsibilities:
//   - Create, look up and destroy rooms; engine-initialization failures
//     abort creation and never leave a half-initialized room registered.
//   - Own the single waiting-duel matchmaking slot, mutated under the
//     manager mutex rather than a bare process-wide variable.
//   - Best-effort snapshot persistence through the Store.
//   - Periodic eviction of rooms idle past the configured TTL.

package room

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mbriand/lexica/internal/game"
	"github.com/mbriand/lexica/internal/store"
)

// Manager is the registry mapping room ids to rooms.
type Manager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	waitingDuel string // id of the one duel room awaiting an opponent

	deps game.Deps
	st   store.Store
	ttl  time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager builds a Manager. st may be nil (no persistence).
// ttl bounds how long an idle, viewer-less room survives before eviction.
func NewManager(deps game.Deps, st store.Store, ttl time.Duration) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		deps:  deps,
		st:    st,
		ttl:   ttl,
		done:  make(chan struct{}),
	}
}

// newRoomID returns a compact 8-hex-char identifier.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// buildRoom constructs and initializes a room without registering it.
func (m *Manager) buildRoom(gameType game.GameType, mode Mode, creator string, duration int) (*Room, error) {
	engine, err := game.New(gameType, m.deps)
	if err != nil {
		return nil, err
	}
	seed := ""
	if mode == ModeDaily {
		seed = game.DateKey(time.Now())
	}
	if err := engine.NewGame(seed); err != nil {
		return nil, err
	}

	r := newRoom(newRoomID(), gameType, mode, engine, seed)
	// An anonymous creator gets no scoreboard row and no host claim;
	// registering "" would also wedge reset votes, which count every
	// known player.
	if creator = strings.TrimSpace(creator); creator != "" {
		r.hostName = creator
		r.addPlayerLocked(creator) // no contention before registration
	}

	if mode == ModeBlitz && duration > 0 {
		r.duration = duration
		r.endTime = time.Now().Unix() + int64(duration)
	}
	if mode == ModeDuel {
		// Fixed round length; the timer arms when the opponent connects.
		r.duration = duelDurationSeconds
	}
	return r, nil
}

// CreateRoom creates, initializes and registers a room.
func (m *Manager) CreateRoom(gameType game.GameType, mode Mode, creator string, duration int) (*Room, error) {
	r, err := m.buildRoom(gameType, mode, creator, duration)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[r.ID] = r
	m.mu.Unlock()

	log.Info().Str("roomId", r.ID).Str("gameType", string(gameType)).
		Str("mode", string(mode)).Str("creator", creator).Msg("room created")
	m.Persist(r)
	return r, nil
}

// Get looks up a room by id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Delete removes a room, clearing the waiting-duel slot when it points at it.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, existed := m.rooms[id]
	delete(m.rooms, id)
	if m.waitingDuel == id {
		m.waitingDuel = ""
	}
	m.mu.Unlock()

	if !existed {
		return
	}
	log.Info().Str("roomId", id).Msg("room destroyed")
	if m.st != nil {
		if err := m.st.DeleteRoom(context.Background(), id); err != nil {
			log.Warn().Err(err).Str("roomId", id).Msg("delete room snapshot")
		}
	}
}

// Count returns the number of registered rooms.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// JoinRandomDuel reuses the waiting duel room when one has space, otherwise
// creates a fresh one and registers it as waiting. At most one duel room is
// ever outstanding, discoverable by any request.
func (m *Manager) JoinRandomDuel(playerName string) (*Room, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waitingDuel != "" {
		if r, ok := m.rooms[m.waitingDuel]; ok && r.PlayerCount() < duelPlayerCap {
			m.waitingDuel = ""
			return r, false, nil
		}
		// Stale slot: the room vanished or filled up.
		m.waitingDuel = ""
	}

	r, err := m.buildRoom(game.GameSemantic, ModeDuel, playerName, 0)
	if err != nil {
		return nil, false, err
	}
	m.rooms[r.ID] = r
	m.waitingDuel = r.ID
	log.Info().Str("roomId", r.ID).Str("creator", playerName).Msg("duel room waiting for opponent")
	return r, true, nil
}

// WaitingDuelID exposes the current slot (diagnostics and tests).
func (m *Manager) WaitingDuelID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitingDuel
}

// ClearWaitingDuel empties the slot if it still points at roomID.
// Called when a waiting duel room loses its only viewer.
func (m *Manager) ClearWaitingDuel(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waitingDuel == roomID {
		m.waitingDuel = ""
		log.Info().Str("roomId", roomID).Msg("waiting duel abandoned")
	}
}

// Persist writes the room's snapshot, best effort.
func (m *Manager) Persist(r *Room) {
	if m.st == nil {
		return
	}
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		log.Warn().Err(err).Str("roomId", r.ID).Msg("marshal room snapshot")
		return
	}
	if err := m.st.SaveRoom(context.Background(), r.ID, data); err != nil {
		log.Warn().Err(err).Str("roomId", r.ID).Msg("save room snapshot")
	}
}

// RecordResult appends a finished-round row, best effort.
func (m *Manager) RecordResult(r *Room, winner string) {
	if m.st == nil {
		return
	}
	snap := r.Snapshot()
	attempts := 0
	for _, p := range snap.Players {
		attempts += p.Attempts
	}
	res := store.RoundResult{
		RoomID:     snap.RoomID,
		GameType:   snap.GameType,
		Mode:       snap.Mode,
		Winner:     winner,
		Attempts:   attempts,
		TeamScore:  snap.TeamScore,
		FinishedAt: time.Now(),
	}
	if err := m.st.RecordResult(context.Background(), res); err != nil {
		log.Warn().Err(err).Str("roomId", snap.RoomID).Msg("record round result")
	}
}

// LoadPersisted rebuilds rooms from stored snapshots at boot.
// Individual corrupt snapshots are skipped with a warning.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	if m.st == nil {
		return nil
	}
	blobs, err := m.st.LoadRooms(ctx)
	if err != nil {
		return err
	}
	for id, data := range blobs {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Warn().Err(err).Str("roomId", id).Msg("decode room snapshot")
			continue
		}
		r, err := Restore(snap, m.deps)
		if err != nil {
			log.Warn().Err(err).Str("roomId", id).Msg("restore room")
			continue
		}
		m.mu.Lock()
		m.rooms[r.ID] = r
		m.mu.Unlock()
	}
	log.Info().Int("rooms", m.Count()).Msg("restored persisted rooms")
	return nil
}

// StartSweep launches the idle-eviction goroutine.
func (m *Manager) StartSweep(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// sweep evicts rooms with no viewers that have been idle past the TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var evict []string
	for id, r := range m.rooms {
		if r.ActiveCount() == 0 && r.LastActivity().Before(cutoff) {
			evict = append(evict, id)
		}
	}
	m.mu.Unlock()

	for _, id := range evict {
		log.Info().Str("roomId", id).Msg("room evicted (idle)")
		m.Delete(id)
	}
}

// Close stops the sweep goroutine.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// internal/room/snapshot.go
//
// Round-trippable room snapshots for the optional durability variant.
// A snapshot carries everything needed to rebuild the room and its engine
// losslessly: identity, mode fields, players, history, and the engine's
// own snapshot (target word included).

package room

import (
	"fmt"

	"github.com/mbriand/lexica/internal/game"
)

// Snapshot is the serializable form of one room.
type Snapshot struct {
	RoomID    string                 `json:"room_id"`
	GameType  string                 `json:"game_type"`
	Mode      string                 `json:"mode"`
	Locked    bool                   `json:"locked"`
	EndTime   int64                  `json:"end_time,omitempty"`
	Duration  int                    `json:"duration,omitempty"`
	TeamScore int                    `json:"team_score,omitempty"`
	HostName  string                 `json:"host_name,omitempty"`
	Seed      string                 `json:"seed,omitempty"`
	Players   map[string]PlayerStats `json:"players"`
	History   []GuessEntry           `json:"history"`
	Engine    game.Snapshot          `json:"engine"`
}

// Snapshot captures the room's current persistent state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make(map[string]PlayerStats, len(r.players))
	for name, stats := range r.players {
		players[name] = *stats
	}
	return Snapshot{
		RoomID:    r.ID,
		GameType:  string(r.GameType),
		Mode:      string(r.Mode),
		Locked:    r.locked,
		EndTime:   r.endTime,
		Duration:  r.duration,
		TeamScore: r.teamScore,
		HostName:  r.hostName,
		Seed:      r.seed,
		Players:   players,
		History:   append([]GuessEntry(nil), r.history...),
		Engine:    r.engine.Snapshot(),
	}
}

// Restore rebuilds a room (engine included) from a snapshot.
// Connection-scoped state (active players, votes, chat) starts empty.
func Restore(s Snapshot, deps game.Deps) (*Room, error) {
	gameType, err := game.ParseGameType(s.GameType)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.RoomID, err)
	}
	engine, err := game.New(gameType, deps)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.RoomID, err)
	}
	if err := engine.Restore(s.Engine); err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.RoomID, err)
	}

	r := newRoom(s.RoomID, gameType, ParseMode(s.Mode), engine, s.Seed)
	r.locked = s.Locked
	r.endTime = s.EndTime
	r.duration = s.Duration
	r.teamScore = s.TeamScore
	r.hostName = s.HostName
	for name, stats := range s.Players {
		st := stats
		r.players[name] = &st
	}
	r.history = append([]GuessEntry(nil), s.History...)
	return r, nil
}

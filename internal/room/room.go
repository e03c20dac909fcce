// internal/room/room.go
//
// Room state for one game session.
// Responsibilities:
//   - Own the authoritative mutable state: players, history, lock/timer,
//     votes, chat, team score, and the single engine instance.
//   - Serialize every multi-step mutation under one mutex so concurrent
//     guesses, votes and joins never interleave mid-transaction.
//   - Derive the scoreboard and the full state_sync projection sent to
//     newly connected viewers.
//
// Locking: the room mutex is held for whole transactions and released
// before any broadcast I/O. No other lock is ever taken while holding it.

package room

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/mbriand/lexica/internal/game"
)

// Mode is the play style of a room.
type Mode string

const (
	ModeCoop  Mode = "coop"
	ModeRace  Mode = "race"
	ModeBlitz Mode = "blitz"
	ModeDaily Mode = "daily"
	ModeDuel  Mode = "duel"
)

// ParseMode falls back to coop for anything unrecognized.
func ParseMode(s string) Mode {
	switch m := Mode(s); m {
	case ModeCoop, ModeRace, ModeBlitz, ModeDaily, ModeDuel:
		return m
	}
	return ModeCoop
}

const (
	// chatHistoryMax bounds the retained chat backlog.
	chatHistoryMax = 50
	// surrenderCooldown blocks new surrender votes after a cancellation.
	surrenderCooldown = 30 * time.Second
	// duelPlayerCap is the connection limit for duel rooms.
	duelPlayerCap = 2
	// duelDurationSeconds is the fixed duel round length.
	duelDurationSeconds = 60
)

// PlayerStats tracks one player's per-room counters.
type PlayerStats struct {
	Attempts       int     `json:"attempts"`
	BestSimilarity float64 `json:"best_similarity"`
}

// GuessEntry is one immutable history record.
type GuessEntry struct {
	Word        string   `json:"word"`
	PlayerName  string   `json:"player_name"`
	Similarity  *float64 `json:"similarity"`
	Temperature float64  `json:"temperature"`
	Feedback    string   `json:"feedback,omitempty"`
}

// ChatMessage is one retained chat line.
type ChatMessage struct {
	PlayerName string `json:"player_name"`
	Content    string `json:"content"`
}

// ScoreRow is one scoreboard line.
type ScoreRow struct {
	PlayerName     string  `json:"player_name"`
	Attempts       int     `json:"attempts"`
	BestSimilarity float64 `json:"best_similarity"`
}

// Room owns one session's state and its engine.
type Room struct {
	mu sync.Mutex

	ID       string
	GameType game.GameType
	Mode     Mode

	engine game.Engine
	seed   string // daily date key, reused on reset so the target stays stable

	locked    bool
	endTime   int64 // unix seconds; 0 = no deadline
	duration  int   // seconds
	teamScore int

	players        map[string]*PlayerStats
	history        []GuessEntry
	activePlayers  map[string]struct{}
	resetVotes     map[string]struct{}
	surrenderVotes map[string]struct{}
	cooldownUntil  time.Time
	chatHistory    []ChatMessage
	hostName       string

	lastActivity time.Time

	now func() time.Time // injectable clock
}

func newRoom(id string, gameType game.GameType, mode Mode, engine game.Engine, seed string) *Room {
	r := &Room{
		ID:             id,
		GameType:       gameType,
		Mode:           mode,
		engine:         engine,
		seed:           seed,
		players:        make(map[string]*PlayerStats),
		activePlayers:  make(map[string]struct{}),
		resetVotes:     make(map[string]struct{}),
		surrenderVotes: make(map[string]struct{}),
		now:            time.Now,
	}
	r.lastActivity = r.now()
	return r
}

// touchLocked refreshes the idle-eviction timestamp. Caller holds mu.
func (r *Room) touchLocked() { r.lastActivity = r.now() }

// addPlayerLocked creates stats lazily; never removes. Caller holds mu.
func (r *Room) addPlayerLocked(name string) *PlayerStats {
	p, ok := r.players[name]
	if !ok {
		p = &PlayerStats{}
		r.players[name] = p
	}
	return p
}

// AddPlayer registers a player, creating stats on first sight.
func (r *Room) AddPlayer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPlayerLocked(name)
	r.touchLocked()
}

// Connect marks a player as actively viewing the room. For duel rooms it
// also arms the round timer once the second player arrives; justStarted
// reports that transition so the caller can announce it.
func (r *Room) Connect(name string) (justStarted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPlayerLocked(name)
	r.activePlayers[name] = struct{}{}
	if r.hostName == "" {
		r.hostName = name
	}
	if r.Mode == ModeDuel && len(r.players) >= duelPlayerCap && r.endTime == 0 {
		r.endTime = r.now().Unix() + int64(r.duration)
		justStarted = true
	}
	r.touchLocked()
	return justStarted
}

// Disconnect drops a player from the active set and returns how many
// active viewers remain.
func (r *Room) Disconnect(name string) (remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activePlayers, name)
	r.touchLocked()
	return len(r.activePlayers)
}

// IsActive reports whether a name is currently connected.
func (r *Room) IsActive(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.activePlayers[name]
	return ok
}

// PlayerCount returns the number of players ever seen in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// ActiveCount returns the number of connected viewers.
func (r *Room) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activePlayers)
}

// HostName returns the first joiner (duel ownership).
func (r *Room) HostName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostName
}

// Locked reports the lock state.
func (r *Room) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

// TeamScore returns the blitz team score.
func (r *Room) TeamScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamScore
}

// EndTime returns the round deadline in unix seconds (0 = none).
func (r *Room) EndTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endTime
}

// LastActivity returns the idle-eviction timestamp.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// AddChat appends a chat line, keeping only the most recent entries.
func (r *Room) AddChat(name, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPlayerLocked(name)
	r.chatHistory = append(r.chatHistory, ChatMessage{PlayerName: name, Content: content})
	if len(r.chatHistory) > chatHistoryMax {
		r.chatHistory = r.chatHistory[len(r.chatHistory)-chatHistoryMax:]
	}
	r.touchLocked()
}

// Scoreboard derives the ranking: best similarity descending, ties broken
// by fewer attempts.
func (r *Room) Scoreboard() []ScoreRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scoreboardLocked()
}

func (r *Room) scoreboardLocked() []ScoreRow {
	rows := make([]ScoreRow, 0, len(r.players))
	for name, stats := range r.players {
		rows = append(rows, ScoreRow{
			PlayerName:     name,
			Attempts:       stats.Attempts,
			BestSimilarity: stats.BestSimilarity,
		})
	}
	sortScoreboard(rows)
	return rows
}

// sortScoreboard orders rows by best similarity descending, then fewer
// attempts first, rewarding fewer guesses among equally close players.
func sortScoreboard(rows []ScoreRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BestSimilarity != rows[j].BestSimilarity {
			return rows[i].BestSimilarity > rows[j].BestSimilarity
		}
		return rows[i].Attempts < rows[j].Attempts
	})
}

// StateSync builds the full snapshot sent to a newly connected viewer.
func (r *Room) StateSync() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make([]map[string]any, 0, len(r.history))
	for _, entry := range r.history {
		history = append(history, map[string]any{
			"word":        entry.Word,
			"player_name": entry.PlayerName,
			"similarity":  entry.Similarity,
			"temperature": entry.Temperature,
			"progression": r.progressionLocked(entry.Similarity),
			"feedback":    entry.Feedback,
			"game_type":   string(r.GameType),
		})
	}

	return map[string]any{
		"type":         "state_sync",
		"history":      history,
		"scoreboard":   r.scoreboardLocked(),
		"mode":         string(r.Mode),
		"locked":       r.locked,
		"game_type":    string(r.GameType),
		"public_state": r.engine.PublicState(),
		"end_time":     r.endTime,
		"duration":     r.duration,
		"team_score":   r.teamScore,
		"chat_history": append([]ChatMessage(nil), r.chatHistory...),
	}
}

// progressionLocked derives the display-only progression metric.
// Only the semantic variant has a meaningful value.
func (r *Room) progressionLocked(similarity *float64) int {
	if r.GameType != game.GameSemantic || similarity == nil {
		return 0
	}
	return int(math.Round(*similarity * 1000))
}

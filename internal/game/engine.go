// internal/game/engine.go
//
// Engine contract shared by all game variants.
// Defines:
//   - GameType: tagged dispatch over the five variants, resolved once at
//     room creation.
//   - Engine: the per-room guess/scoring capability with its secret state.
//   - Result: structured outcome of a single guess.
//   - Snapshot: round-trippable engine state for the persistence variant.
//
// Engines only mutate their own secret state. Room-level fields (lock,
// score, history) belong to the room layer.

package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbriand/lexica/internal/oracle"
)

// GameType selects one of the engine variants.
type GameType string

const (
	GameSemantic   GameType = "semantic"
	GameDefinition GameType = "definition"
	GameHangman    GameType = "hangman"
	GameIntruder   GameType = "intruder"
	GameArcade     GameType = "arcade"
)

// ErrOracleUnavailable is returned when a variant requires the similarity
// oracle and none is configured.
var ErrOracleUnavailable = errors.New("game: similarity oracle unavailable")

// ParseGameType validates a client-provided game type string.
func ParseGameType(s string) (GameType, error) {
	switch t := GameType(s); t {
	case GameSemantic, GameDefinition, GameHangman, GameIntruder, GameArcade:
		return t, nil
	}
	return "", fmt.Errorf("game: unknown game type %q", s)
}

// NeedsOracle reports whether the variant requires the similarity oracle.
func (t GameType) NeedsOracle() bool {
	return t == GameSemantic || t == GameIntruder
}

// Result is the structured outcome of one guess.
// When Exists is false the guess was rejected and Err carries the
// engine's message; nothing else is meaningful.
type Result struct {
	Exists      bool
	Err         string
	Similarity  *float64 // nil when the variant has no similarity notion
	Temperature float64  // display value; variant-specific semantics
	Correct     bool
	Feedback    string
	Lives       *int           // hangman only
	Extra       map[string]any // variant-specific broadcast fields
}

// Snapshot is the serializable engine state used by the optional
// persistence layer. Target is the secret word; State carries any
// variant-specific remainder.
type Snapshot struct {
	Target string          `json:"target_word"`
	Seed   string          `json:"seed,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}

// Engine is the per-room game capability. One instance per room,
// exclusively owned, replaced in place on reset.
type Engine interface {
	// NewGame (re)initializes the secret state. An empty seed picks a
	// random target; a non-empty seed (the daily date key) is
	// deterministic. Errors abort room creation.
	NewGame(seed string) error

	// Guess validates the input and scores it against the secret state.
	Guess(word string) Result

	// PublicState is the safe-to-broadcast projection. Idempotent and
	// callable at any time, including before NewGame. Never includes
	// the target.
	PublicState() map[string]any

	// NextWord advances to a new round without resetting room history
	// (blitz mode). Default no-op.
	NextWord()

	// Target reveals the secret word, for defeat/surrender reveals and
	// snapshots. Empty until NewGame succeeds.
	Target() string

	// Snapshot/Restore round-trip the engine for persistence.
	Snapshot() Snapshot
	Restore(Snapshot) error
}

// Deps bundles the external capabilities engines may need.
type Deps struct {
	Oracle      oracle.Oracle
	Definitions DefinitionProvider
	DailySalt   string
}

// New constructs the engine for a game type without starting a round.
// Callers follow up with NewGame.
func New(t GameType, deps Deps) (Engine, error) {
	switch t {
	case GameSemantic:
		if deps.Oracle == nil {
			return nil, ErrOracleUnavailable
		}
		return newSemanticEngine(deps.Oracle, deps.DailySalt), nil
	case GameDefinition:
		p := deps.Definitions
		if p == nil {
			p = NewStaticDefinitions()
		}
		return newDefinitionEngine(p, deps.DailySalt), nil
	case GameHangman:
		return newHangmanEngine(deps.DailySalt), nil
	case GameIntruder:
		if deps.Oracle == nil {
			return nil, ErrOracleUnavailable
		}
		return newIntruderEngine(deps.Oracle, deps.DailySalt), nil
	case GameArcade:
		return newArcadeEngine(), nil
	}
	return nil, fmt.Errorf("game: unknown game type %q", t)
}

// internal/game/arcade.go
//
// Arcade variant: a continuous collection loop with no win or loss.
// The board holds a small set of collectible entities; "guessing" an
// entity id collects it and spawns a replacement. Rooms running this
// variant never lock on a guess.

package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
)

// arcadeBoardSize is the number of entities kept on the board.
const arcadeBoardSize = 5

var arcadeKinds = []string{"star", "gem", "coin"}

// ArcadeEntity is one collectible on the board.
type ArcadeEntity struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type arcadeEngine struct {
	entities  []ArcadeEntity
	collected int
	nextID    int
}

type arcadeState struct {
	Entities  []ArcadeEntity `json:"entities"`
	Collected int            `json:"collected"`
	NextID    int            `json:"next_id"`
}

func newArcadeEngine() *arcadeEngine {
	return &arcadeEngine{}
}

func (e *arcadeEngine) NewGame(seed string) error {
	e.entities = e.entities[:0]
	e.collected = 0
	e.nextID = 0
	for i := 0; i < arcadeBoardSize; i++ {
		e.spawn()
	}
	return nil
}

func (e *arcadeEngine) spawn() {
	e.nextID++
	e.entities = append(e.entities, ArcadeEntity{
		ID:   fmt.Sprintf("e%d", e.nextID),
		Kind: arcadeKinds[rand.IntN(len(arcadeKinds))],
		X:    rand.Float64(),
		Y:    rand.Float64(),
	})
}

// Guess collects the entity with the given id. Correct stays false:
// arcade rounds have no victory and must never lock the room.
func (e *arcadeEngine) Guess(input string) Result {
	if e.nextID == 0 {
		return Result{Err: "game not initialized"}
	}
	id := normalizeWord(input)
	for i, ent := range e.entities {
		if ent.ID != id {
			continue
		}
		e.entities = append(e.entities[:i], e.entities[i+1:]...)
		e.collected++
		e.spawn()
		return Result{
			Exists:   true,
			Feedback: "collected " + ent.Kind,
			Extra: map[string]any{
				"entities":  e.board(),
				"collected": e.collected,
			},
		}
	}
	return Result{Err: "no such entity"}
}

func (e *arcadeEngine) board() []ArcadeEntity {
	return append([]ArcadeEntity(nil), e.entities...)
}

func (e *arcadeEngine) PublicState() map[string]any {
	return map[string]any{
		"game_type": string(GameArcade),
		"entities":  e.board(),
		"collected": e.collected,
	}
}

func (e *arcadeEngine) NextWord() {}

// Target is empty: arcade has no secret word to reveal.
func (e *arcadeEngine) Target() string { return "" }

func (e *arcadeEngine) Snapshot() Snapshot {
	state, _ := json.Marshal(arcadeState{
		Entities:  e.entities,
		Collected: e.collected,
		NextID:    e.nextID,
	})
	return Snapshot{State: state}
}

func (e *arcadeEngine) Restore(s Snapshot) error {
	var st arcadeState
	if len(s.State) > 0 {
		if err := json.Unmarshal(s.State, &st); err != nil {
			return fmt.Errorf("arcade: decode snapshot: %w", err)
		}
	}
	e.entities = st.Entities
	e.collected = st.Collected
	e.nextID = st.NextID
	if e.nextID == 0 {
		return e.NewGame("")
	}
	return nil
}

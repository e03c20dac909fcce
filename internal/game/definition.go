// internal/game/definition.go
//
// Definition variant: players see a dictionary definition and must name the
// word it defines. Scoring is binary; feedback hints at near misses.
//
// Definitions come from a DefinitionProvider, normally an external
// dictionary lookup. NewGame probes the provider a bounded number of times;
// exhaustion is a hard error that aborts room creation.

package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mbriand/lexica/internal/words"
)

// maxDefinitionProbes bounds provider lookups during NewGame.
const maxDefinitionProbes = 10

// DefinitionProvider supplies candidate (word, definition) pairs.
// Lookups may fail transiently; callers retry up to a bound.
type DefinitionProvider interface {
	Next() (word, def string, err error)
}

type definitionEngine struct {
	provider DefinitionProvider
	salt     string
	target   string
	hint     string
}

type definitionState struct {
	Hint string `json:"hint"`
}

func newDefinitionEngine(p DefinitionProvider, salt string) *definitionEngine {
	return &definitionEngine{provider: p, salt: salt}
}

func (e *definitionEngine) NewGame(seed string) error {
	var lastErr error
	for i := 0; i < maxDefinitionProbes; i++ {
		word, def, err := e.provider.Next()
		if err != nil {
			lastErr = err
			continue
		}
		e.target = normalizeWord(word)
		e.hint = def
		return nil
	}
	return fmt.Errorf("definition: lookup failed after %d attempts: %w", maxDefinitionProbes, lastErr)
}

func (e *definitionEngine) Guess(word string) Result {
	if e.target == "" {
		return Result{Err: "game not initialized"}
	}
	guess := normalizeWord(word)
	if guess == "" {
		return Result{Err: "empty guess"}
	}

	if guess == e.target {
		one := 1.0
		return Result{
			Exists:      true,
			Similarity:  &one,
			Temperature: 100,
			Correct:     true,
			Feedback:    "Correct!",
		}
	}

	feedback := "Incorrect"
	switch {
	case len(guess) == len(e.target):
		feedback = "Right length"
	case len(guess) >= 2 && strings.HasPrefix(e.target, guess[:2]):
		feedback = "Good start"
	}
	zero := 0.0
	return Result{
		Exists:     true,
		Similarity: &zero,
		Feedback:   feedback,
	}
}

func (e *definitionEngine) PublicState() map[string]any {
	if e.target == "" {
		return map[string]any{"game_type": string(GameDefinition)}
	}
	return map[string]any{
		"game_type":   string(GameDefinition),
		"hint":        e.hint,
		"word_length": len(e.target),
	}
}

// NextWord rolls a fresh definition for continuous blitz play.
// A transient lookup failure keeps the current word in play.
func (e *definitionEngine) NextWord() {
	_ = e.NewGame("")
}

func (e *definitionEngine) Target() string { return e.target }

func (e *definitionEngine) Snapshot() Snapshot {
	state, _ := json.Marshal(definitionState{Hint: e.hint})
	return Snapshot{Target: e.target, State: state}
}

func (e *definitionEngine) Restore(s Snapshot) error {
	if s.Target == "" {
		return fmt.Errorf("definition: snapshot has no target")
	}
	var st definitionState
	if len(s.State) > 0 {
		if err := json.Unmarshal(s.State, &st); err != nil {
			return fmt.Errorf("definition: decode snapshot: %w", err)
		}
	}
	e.target = s.Target
	e.hint = st.Hint
	return nil
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// staticDefinitions serves the embedded dictionary. It stands in for the
// external dictionary provider in development and tests.
type staticDefinitions struct{}

// NewStaticDefinitions returns a provider over the embedded word list.
func NewStaticDefinitions() DefinitionProvider {
	return staticDefinitions{}
}

func (staticDefinitions) Next() (string, string, error) {
	defs := words.Definitions()
	if len(defs) == 0 {
		return "", "", fmt.Errorf("definition: no dictionary entries loaded")
	}
	d := defs[rand.IntN(len(defs))]
	return d.Word, d.Def, nil
}

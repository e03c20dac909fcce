// internal/game/semantic.go
//
// Semantic-guess variant: players guess any vocabulary word, scored by the
// similarity oracle against a hidden target. Similarity lives in [-1, 1];
// the displayed "temperature" is similarity × 100. A guess wins once its
// similarity reaches the fixed threshold.

package game

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/mbriand/lexica/internal/oracle"
)

// winThreshold is the similarity at which a semantic guess counts as found.
const winThreshold = 0.999

type semanticEngine struct {
	orc    oracle.Oracle
	salt   string
	seed   string
	target string
}

func newSemanticEngine(orc oracle.Oracle, salt string) *semanticEngine {
	return &semanticEngine{orc: orc, salt: salt}
}

func (e *semanticEngine) NewGame(seed string) error {
	cands := e.orc.Candidates()
	if len(cands) == 0 {
		return fmt.Errorf("semantic: oracle has no target candidates")
	}
	e.seed = seed
	if seed == "" {
		e.target = cands[rand.IntN(len(cands))]
	} else {
		e.target = cands[seedIndex(seed, e.salt, len(cands))]
	}
	return nil
}

func (e *semanticEngine) Guess(word string) Result {
	if e.target == "" {
		return Result{Err: "game not initialized"}
	}
	if !e.orc.Exists(word) {
		return Result{Err: "unknown word"}
	}
	sim, err := e.orc.Similarity(word, e.target)
	if err != nil {
		return Result{Err: "unknown word"}
	}
	return Result{
		Exists:      true,
		Similarity:  &sim,
		Temperature: round2(sim * 100),
		Correct:     sim >= winThreshold,
	}
}

func (e *semanticEngine) PublicState() map[string]any {
	return map[string]any{"game_type": string(GameSemantic)}
}

// NextWord rerolls the target for continuous blitz play.
func (e *semanticEngine) NextWord() {
	cands := e.orc.Candidates()
	if len(cands) > 0 {
		e.target = cands[rand.IntN(len(cands))]
	}
}

func (e *semanticEngine) Target() string { return e.target }

func (e *semanticEngine) Snapshot() Snapshot {
	return Snapshot{Target: e.target, Seed: e.seed}
}

func (e *semanticEngine) Restore(s Snapshot) error {
	if s.Target == "" {
		return fmt.Errorf("semantic: snapshot has no target")
	}
	e.target = s.Target
	e.seed = s.Seed
	return nil
}

// round2 rounds to two decimals for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

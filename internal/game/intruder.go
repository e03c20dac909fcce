// internal/game/intruder.go
//
// Intruder variant: a fixed option set is shown; one option is semantically
// distant from the rest, precomputed at round start from oracle scores.
// Guessing is binary: name the intruder.

package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/mbriand/lexica/internal/oracle"
)

// intruderOptionCount is the size of the displayed option set.
const intruderOptionCount = 5

type intruderEngine struct {
	orc      oracle.Oracle
	salt     string
	options  []string
	intruder string
}

type intruderState struct {
	Options []string `json:"options"`
}

func newIntruderEngine(orc oracle.Oracle, salt string) *intruderEngine {
	return &intruderEngine{orc: orc, salt: salt}
}

func (e *intruderEngine) NewGame(seed string) error {
	cands := e.orc.Candidates()
	if len(cands) < intruderOptionCount {
		return fmt.Errorf("intruder: need at least %d candidates, have %d", intruderOptionCount, len(cands))
	}

	// Draw distinct options; seeded draws are deterministic.
	picked := make(map[int]bool, intruderOptionCount)
	e.options = e.options[:0]
	for i := 0; len(e.options) < intruderOptionCount; i++ {
		var idx int
		if seed == "" {
			idx = rand.IntN(len(cands))
		} else {
			idx = seedIndex(fmt.Sprintf("%s/%d", seed, i), e.salt, len(cands))
		}
		if picked[idx] {
			// Seeded collision: walk forward deterministically.
			idx = (idx + 1) % len(cands)
			for picked[idx] {
				idx = (idx + 1) % len(cands)
			}
		}
		picked[idx] = true
		e.options = append(e.options, cands[idx])
	}

	e.intruder = e.leastSimilarOption()
	return nil
}

// leastSimilarOption returns the option with the lowest mean similarity
// to the other options.
func (e *intruderEngine) leastSimilarOption() string {
	best := e.options[0]
	bestScore := 2.0
	for _, a := range e.options {
		var total float64
		for _, b := range e.options {
			if a == b {
				continue
			}
			sim, err := e.orc.Similarity(a, b)
			if err != nil {
				continue
			}
			total += sim
		}
		mean := total / float64(len(e.options)-1)
		if mean < bestScore {
			bestScore = mean
			best = a
		}
	}
	return best
}

func (e *intruderEngine) Guess(word string) Result {
	if e.intruder == "" {
		return Result{Err: "game not initialized"}
	}
	guess := normalizeWord(word)
	var isOption bool
	for _, o := range e.options {
		if o == guess {
			isOption = true
			break
		}
	}
	if !isOption {
		return Result{Err: "pick one of the options"}
	}

	sim := 0.0
	correct := guess == e.intruder
	if correct {
		sim = 1
	}
	return Result{
		Exists:      true,
		Similarity:  &sim,
		Temperature: sim * 100,
		Correct:     correct,
	}
}

func (e *intruderEngine) PublicState() map[string]any {
	if e.intruder == "" {
		return map[string]any{"game_type": string(GameIntruder)}
	}
	return map[string]any{
		"game_type": string(GameIntruder),
		"options":   append([]string(nil), e.options...),
	}
}

func (e *intruderEngine) NextWord() {}

func (e *intruderEngine) Target() string { return e.intruder }

func (e *intruderEngine) Snapshot() Snapshot {
	state, _ := json.Marshal(intruderState{Options: e.options})
	return Snapshot{Target: e.intruder, State: state}
}

func (e *intruderEngine) Restore(s Snapshot) error {
	if s.Target == "" {
		return fmt.Errorf("intruder: snapshot has no target")
	}
	var st intruderState
	if len(s.State) > 0 {
		if err := json.Unmarshal(s.State, &st); err != nil {
			return fmt.Errorf("intruder: decode snapshot: %w", err)
		}
	}
	if len(st.Options) == 0 {
		return fmt.Errorf("intruder: snapshot has no options")
	}
	e.intruder = s.Target
	e.options = st.Options
	return nil
}

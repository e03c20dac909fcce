// internal/game/hangman.go
//
// Hangman variant: players reveal the target word letter by letter.
// Every wrong letter costs a life; the round is lost at zero lives.
// "Temperature" is repurposed as the remaining-lives percentage.

package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mbriand/lexica/internal/words"
)

// hangmanLives is the number of wrong guesses before defeat.
const hangmanLives = 7

type hangmanEngine struct {
	salt   string
	target string
	found  map[rune]bool
	wrong  map[rune]bool
	lives  int
}

type hangmanState struct {
	Found string `json:"found"`
	Wrong string `json:"wrong"`
	Lives int    `json:"lives"`
}

func newHangmanEngine(salt string) *hangmanEngine {
	return &hangmanEngine{salt: salt}
}

func (e *hangmanEngine) NewGame(seed string) error {
	vocab := words.Vocabulary()
	if len(vocab) == 0 {
		return fmt.Errorf("hangman: vocabulary not loaded")
	}
	if seed == "" {
		e.target = words.RandomWord()
	} else {
		e.target = vocab[seedIndex(seed, e.salt, len(vocab))]
	}
	e.found = make(map[rune]bool)
	e.wrong = make(map[rune]bool)
	e.lives = hangmanLives
	return nil
}

func (e *hangmanEngine) Guess(input string) Result {
	if e.target == "" {
		return Result{Err: "game not initialized"}
	}
	guess := normalizeWord(input)
	if guess == "" {
		return Result{Err: "empty guess"}
	}

	// Whole-word attempt: an exact match reveals everything, a miss
	// costs one life like a wrong letter. Count runes, not bytes, so
	// a lone accented character is handled as a letter below.
	if utf8.RuneCountInString(guess) > 1 {
		if guess == e.target {
			for _, r := range e.target {
				e.found[r] = true
			}
			return e.outcome(1, true)
		}
		e.lives--
		return e.outcome(0, false)
	}

	r, _ := utf8.DecodeRuneInString(guess)
	if r < 'a' || r > 'z' {
		return Result{Err: "guess a single letter"}
	}
	if e.found[r] || e.wrong[r] {
		return Result{Err: "letter already tried"}
	}

	if strings.ContainsRune(e.target, r) {
		e.found[r] = true
		return e.outcome(1, e.allFound())
	}
	e.wrong[r] = true
	e.lives--
	return e.outcome(0, false)
}

// outcome assembles the per-guess result with the shared hangman fields.
func (e *hangmanEngine) outcome(sim float64, correct bool) Result {
	lives := e.lives
	return Result{
		Exists:      true,
		Similarity:  &sim,
		Temperature: round2(float64(lives) / hangmanLives * 100),
		Correct:     correct,
		Lives:       &lives,
		Extra: map[string]any{
			"masked":        e.masked(),
			"found_letters": letterList(e.found),
			"wrong_letters": letterList(e.wrong),
		},
	}
}

func (e *hangmanEngine) allFound() bool {
	for _, r := range e.target {
		if !e.found[r] {
			return false
		}
	}
	return true
}

// masked renders the target with unfound letters hidden.
func (e *hangmanEngine) masked() string {
	var b strings.Builder
	for _, r := range e.target {
		if e.found[r] {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func letterList(set map[rune]bool) []string {
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

func (e *hangmanEngine) PublicState() map[string]any {
	if e.target == "" {
		return map[string]any{"game_type": string(GameHangman)}
	}
	return map[string]any{
		"game_type":     string(GameHangman),
		"masked":        e.masked(),
		"wrong_letters": letterList(e.wrong),
		"lives":         e.lives,
		"max_lives":     hangmanLives,
		"word_length":   len(e.target),
	}
}

func (e *hangmanEngine) NextWord() {}

func (e *hangmanEngine) Target() string { return e.target }

func (e *hangmanEngine) Snapshot() Snapshot {
	state, _ := json.Marshal(hangmanState{
		Found: strings.Join(letterList(e.found), ""),
		Wrong: strings.Join(letterList(e.wrong), ""),
		Lives: e.lives,
	})
	return Snapshot{Target: e.target, State: state}
}

func (e *hangmanEngine) Restore(s Snapshot) error {
	if s.Target == "" {
		return fmt.Errorf("hangman: snapshot has no target")
	}
	var st hangmanState
	if len(s.State) > 0 {
		if err := json.Unmarshal(s.State, &st); err != nil {
			return fmt.Errorf("hangman: decode snapshot: %w", err)
		}
	} else {
		st.Lives = hangmanLives
	}
	e.target = s.Target
	e.lives = st.Lives
	e.found = make(map[rune]bool)
	e.wrong = make(map[rune]bool)
	for _, r := range st.Found {
		e.found[r] = true
	}
	for _, r := range st.Wrong {
		e.wrong[r] = true
	}
	return nil
}

// internal/words/words.go
//
// Provides word list management for the game engines.
//
// Responsibilities:
//   - Load the guessing vocabulary from an environment-provided file or fall
//     back to the embedded default list.
//   - Maintain a lookup set for fast membership checks.
//   - Supply utility functions like RandomWord, IsWord, Definitions and Stats.
//
// Word Lists:
//   - "vocab": guessable words; targets are drawn from it.
//   - "definitions": word|definition pairs for definition rooms.
//
// Environment variables:
//   WORDS_VOCAB_FILE=/path/to/vocab.txt
//
// Constraints:
//   • Words must be 3–12 alphabetic letters (a–z).
//   • Lists are normalized to lowercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/mbriand/lexica/assets"
)

// Definition pairs a dictionary word with its clue text.
type Definition struct {
	Word string
	Def  string
}

var (
	initOnce    sync.Once
	vocab       []string            // guessable words, target candidates
	vocabSet    map[string]struct{} // fast membership checks
	definitions []Definition        // embedded dictionary entries
	initialErr  error
)

// Init loads word lists exactly once.
// Returns an error if the vocabulary ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string

		if path := os.Getenv("WORDS_VOCAB_FILE"); path != "" {
			var err error
			list, err = readWordFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			var err error
			list, err = assets.VocabList()
			if err != nil {
				initialErr = err
				return
			}
			list = filterValid(list)
		}

		vocab = list
		vocabSet = toSet(list)
		if len(vocab) == 0 {
			initialErr = errors.New("words: vocabulary is empty")
			return
		}

		lines, err := assets.DefinitionLines()
		if err != nil {
			initialErr = err
			return
		}
		for _, line := range lines {
			word, def, ok := strings.Cut(line, "|")
			word = strings.TrimSpace(word)
			def = strings.TrimSpace(def)
			if !ok || word == "" || def == "" {
				continue
			}
			definitions = append(definitions, Definition{Word: word, Def: def})
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file,
// lowercases, trims, and keeps only valid alphabetic words.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if isValidWord(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

func filterValid(list []string) []string {
	out := list[:0]
	for _, w := range list {
		if isValidWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isValidWord reports whether s is 3–12 lowercase ASCII letters.
func isValidWord(s string) bool {
	if len(s) < 3 || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Vocabulary returns the loaded vocabulary. The slice must not be mutated.
func Vocabulary() []string { return vocab }

// RandomWord returns a cryptographically random word from the vocabulary.
// If the vocabulary is not loaded yet or empty, falls back to "orange".
func RandomWord() string {
	if len(vocab) == 0 {
		return "orange"
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(vocab))))
	return vocab[nBig.Int64()]
}

// IsWord reports whether w is part of the vocabulary.
func IsWord(w string) bool {
	_, ok := vocabSet[strings.ToLower(w)]
	return ok
}

// Definitions returns the embedded dictionary entries.
func Definitions() []Definition { return definitions }

// Stats returns counts of loaded words: (vocab, definitions).
func Stats() (vocabCount int, definitionCount int) {
	return len(vocab), len(definitions)
}

// internal/oracle/oracle.go
//
// Semantic similarity oracle used by the semantic and intruder engines.
//
// Responsibilities:
//   - Define the read-only Oracle capability: word existence, pairwise
//     similarity, and the pool of target candidates.
//   - Provide an in-process implementation backed by deterministic
//     hash-derived embeddings, so the server runs without an external
//     vector model; a real word2vec-style backend can implement the same
//     interface.
//
// Concurrency: implementations must be safe for unlocked concurrent reads.
// Nothing in the guess path ever mutates the oracle.

package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

// Oracle maps word pairs to a semantic closeness score in [-1, 1].
type Oracle interface {
	// Exists reports whether the oracle knows the word.
	Exists(word string) bool

	// Similarity returns the closeness of a and b.
	// Returns an error if either word is unknown.
	Similarity(a, b string) (float64, error)

	// Candidates returns the words suitable as round targets.
	Candidates() []string
}

const embeddingDims = 64

// vectorOracle derives one fixed unit vector per vocabulary word from a
// SHA-256 expansion of the word itself. Scores are arbitrary but stable
// across processes, which is all the game logic requires.
type vectorOracle struct {
	vectors    map[string][]float64
	candidates []string
}

// NewVectorOracle builds an oracle over the given vocabulary.
func NewVectorOracle(vocab []string) (Oracle, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("oracle: empty vocabulary")
	}
	o := &vectorOracle{
		vectors:    make(map[string][]float64, len(vocab)),
		candidates: append([]string(nil), vocab...),
	}
	for _, w := range vocab {
		o.vectors[w] = embed(w)
	}
	return o, nil
}

func (o *vectorOracle) Exists(word string) bool {
	_, ok := o.vectors[word]
	return ok
}

func (o *vectorOracle) Similarity(a, b string) (float64, error) {
	va, ok := o.vectors[a]
	if !ok {
		return 0, fmt.Errorf("oracle: unknown word %q", a)
	}
	vb, ok := o.vectors[b]
	if !ok {
		return 0, fmt.Errorf("oracle: unknown word %q", b)
	}
	if a == b {
		return 1, nil
	}
	var dot float64
	for i := range va {
		dot += va[i] * vb[i]
	}
	// Guard against float drift outside the advertised range.
	return math.Max(-1, math.Min(1, dot)), nil
}

func (o *vectorOracle) Candidates() []string { return o.candidates }

// embed expands a word into a unit vector via chained SHA-256 digests.
// Each 8-byte window becomes one coordinate in [-1, 1).
func embed(word string) []float64 {
	v := make([]float64, 0, embeddingDims)
	sum := sha256.Sum256([]byte(word))
	for len(v) < embeddingDims {
		for i := 0; i+8 <= len(sum) && len(v) < embeddingDims; i += 8 {
			n := binary.BigEndian.Uint64(sum[i : i+8])
			v = append(v, float64(n)/float64(math.MaxUint64)*2-1)
		}
		sum = sha256.Sum256(sum[:])
	}
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

package oracle

import (
	"math"
	"testing"
)

func TestVectorOracleSelfSimilarityIsOne(t *testing.T) {
	o, err := NewVectorOracle([]string{"apple", "tiger", "river"})
	if err != nil {
		t.Fatalf("NewVectorOracle: %v", err)
	}
	sim, err := o.Similarity("apple", "apple")
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if sim != 1 {
		t.Errorf("self-similarity = %v, want exactly 1", sim)
	}
}

func TestVectorOracleUnknownWord(t *testing.T) {
	o, err := NewVectorOracle([]string{"apple"})
	if err != nil {
		t.Fatalf("NewVectorOracle: %v", err)
	}
	if o.Exists("zzzz") {
		t.Error("Exists(zzzz) = true, want false")
	}
	if _, err := o.Similarity("apple", "zzzz"); err == nil {
		t.Error("Similarity with unknown word: want error, got nil")
	}
}

func TestVectorOracleDeterministicAcrossInstances(t *testing.T) {
	vocab := []string{"apple", "tiger", "river", "stone"}
	a, _ := NewVectorOracle(vocab)
	b, _ := NewVectorOracle(vocab)
	s1, _ := a.Similarity("apple", "tiger")
	s2, _ := b.Similarity("apple", "tiger")
	if s1 != s2 {
		t.Errorf("similarity differs across instances: %v vs %v", s1, s2)
	}
}

func TestVectorOracleRange(t *testing.T) {
	vocab := []string{"apple", "tiger", "river", "stone", "cloud", "piano"}
	o, _ := NewVectorOracle(vocab)
	for _, a := range vocab {
		for _, b := range vocab {
			sim, err := o.Similarity(a, b)
			if err != nil {
				t.Fatalf("Similarity(%s,%s): %v", a, b, err)
			}
			if sim < -1 || sim > 1 || math.IsNaN(sim) {
				t.Errorf("Similarity(%s,%s) = %v, out of [-1,1]", a, b, sim)
			}
		}
	}
}

func TestVectorOracleEmptyVocab(t *testing.T) {
	if _, err := NewVectorOracle(nil); err == nil {
		t.Error("NewVectorOracle(nil): want error, got nil")
	}
}

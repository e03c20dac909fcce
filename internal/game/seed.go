package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC. Daily rooms use it as the engine
// seed so every room created on the same calendar date shares a target.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// seedIndex returns a deterministic index using HMAC(salt, seed) % n.
func seedIndex(seed, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(seed))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

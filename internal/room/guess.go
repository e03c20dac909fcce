// internal/room/guess.go
//
// The guess transaction: validates a guess against room state, invokes the
// engine, updates history/score/lock, and produces the outbound broadcast
// payload. The checks run in a strict order, short-circuiting on the first
// failure, and the whole sequence holds the room mutex so two concurrent
// guesses against the same room can never interleave their read-modify-write
// of locked, teamScore or history. Broadcast I/O happens after the mutex is
// released, once the state has already reached its new consistent value.

package room

import (
	"github.com/mbriand/lexica/internal/game"
)

// GuessOutcome carries everything the transport layer needs after a
// committed guess: the direct reply, the fan-out payload, and the flags
// driving follow-up scoreboard/victory events.
type GuessOutcome struct {
	Response   map[string]any // direct reply to the guesser
	Broadcast  map[string]any // "guess" event for all viewers
	Scoreboard []ScoreRow
	Victory    bool // standard (non-blitz) victory
	Defeat     bool // hangman loss
	Locked     bool
	Mode       Mode
}

// ProcessGuess runs the transactional guess pipeline.
func (r *Room) ProcessGuess(word, playerName string) (*GuessOutcome, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. Lazy time-expiry check (blitz/duel): a guess arriving after the
	// deadline locks the room on the spot.
	if (r.Mode == ModeBlitz || r.Mode == ModeDuel) && r.endTime > 0 && r.now().Unix() > r.endTime {
		r.locked = true
		return nil, newError(CodeTimeUp, "time is up")
	}

	// 2. Locked rooms accept no guesses until a reset or surrender.
	if r.locked {
		return nil, newError(CodeRoomLocked, "this room is locked")
	}

	// 3. Engine validation.
	result := r.engine.Guess(word)
	if !result.Exists {
		msg := result.Err
		if msg == "" {
			msg = "unknown word"
		}
		return nil, newError(CodeUnknownWord, msg)
	}

	// 4. Record unconditionally on the success path.
	stats := r.addPlayerLocked(playerName)
	stats.Attempts++
	if result.Similarity != nil && *result.Similarity > stats.BestSimilarity {
		stats.BestSimilarity = *result.Similarity
	}
	r.history = append(r.history, GuessEntry{
		Word:        word,
		PlayerName:  playerName,
		Similarity:  result.Similarity,
		Temperature: result.Temperature,
		Feedback:    result.Feedback,
	})

	// 5. Hangman defeat: out of lives without winning ends the round and
	// reveals the target.
	defeat := false
	targetReveal := ""
	if r.GameType == game.GameHangman && result.Lives != nil && *result.Lives <= 0 && !result.Correct {
		defeat = true
		r.locked = true
		targetReveal = r.engine.Target()
	}

	// 6/7. Victory branch, and the blitz penalty on misses.
	var blitzData map[string]any
	if result.Correct {
		if r.Mode == ModeBlitz {
			// Continuous play: bump the team score and rotate the word.
			r.teamScore++
			r.engine.NextWord()
			blitzData = map[string]any{
				"blitz_success":    true,
				"new_public_state": r.engine.PublicState(),
			}
		} else if r.Mode != ModeDaily {
			// Daily rooms stay open: the shared word of the day
			// remains guessable by everyone until midnight.
			r.locked = true
		}
	} else if r.Mode == ModeBlitz {
		r.teamScore-- // no floor; may go negative
	}

	// 8. Display-only progression metric.
	progression := r.progressionLocked(result.Similarity)

	broadcast := map[string]any{
		"type":          "guess",
		"word":          word,
		"player_name":   playerName,
		"temperature":   result.Temperature,
		"similarity":    result.Similarity,
		"progression":   progression,
		"feedback":      result.Feedback,
		"is_correct":    result.Correct,
		"game_type":     string(r.GameType),
		"team_score":    r.teamScore,
		"defeat":        defeat,
		"target_reveal": targetReveal,
	}
	if result.Lives != nil {
		broadcast["lives"] = *result.Lives
	}
	for k, v := range result.Extra {
		broadcast[k] = v
	}
	for k, v := range blitzData {
		broadcast[k] = v
	}

	response := map[string]any{
		"exists":      true,
		"similarity":  result.Similarity,
		"temperature": result.Temperature,
		"is_correct":  result.Correct,
		"feedback":    result.Feedback,
		"progression": progression,
		"defeat":      defeat,
	}
	if result.Lives != nil {
		response["lives"] = *result.Lives
	}

	r.touchLocked()

	return &GuessOutcome{
		Response:   response,
		Broadcast:  broadcast,
		Scoreboard: r.scoreboardLocked(),
		Victory:    result.Correct && r.Mode != ModeBlitz,
		Defeat:     defeat,
		Locked:     r.locked,
		Mode:       r.Mode,
	}, nil
}

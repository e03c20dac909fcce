// internal/room/votes.go
//
// Vote-gated reset and surrender coordination.
//
// Reset:     Active → (votes accumulate) → AllVoted → Reset → Active.
// Surrender: Idle → VotePending → {Success | Cancelled} → Cooldown → Idle.
//
// Daily rooms reject both paths: their round belongs to the calendar date
// and is neither resettable nor abandonable.

package room

import (
	"fmt"
	"math"
	"sort"

	"github.com/mbriand/lexica/internal/game"
)

// ResetOutcome reports a reset vote's effect.
type ResetOutcome struct {
	Done         bool
	CurrentVotes int
	TotalPlayers int
	WaitingFor   []string       // players who have not voted yet
	PublicState  map[string]any // fresh engine projection, when Done
	Scoreboard   []ScoreRow
	EndTime      int64
}

// VoteReset records a reset vote. Once every current player has voted the
// engine is reinitialized (daily rooms would reuse the date seed, but are
// rejected before that), history and votes are cleared, the lock lifts,
// and blitz rooms restart their timer and team score.
func (r *Room) VoteReset(playerName string) (*ResetOutcome, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Mode == ModeDaily {
		return nil, newError(CodeDailyRoom, "daily rooms cannot be reset")
	}

	r.addPlayerLocked(playerName)
	r.resetVotes[playerName] = struct{}{}
	r.touchLocked()

	if len(r.resetVotes) < len(r.players) {
		waiting := make([]string, 0, len(r.players))
		for name := range r.players {
			if _, voted := r.resetVotes[name]; !voted {
				waiting = append(waiting, name)
			}
		}
		sort.Strings(waiting)
		return &ResetOutcome{
			CurrentVotes: len(r.resetVotes),
			TotalPlayers: len(r.players),
			WaitingFor:   waiting,
		}, nil
	}

	if err := r.resetLocked(); err != nil {
		return nil, newError(CodeResetFailed, err.Error())
	}
	return &ResetOutcome{
		Done:        true,
		PublicState: r.engine.PublicState(),
		Scoreboard:  r.scoreboardLocked(),
		EndTime:     r.endTime,
	}, nil
}

// resetLocked starts a fresh round in place. Caller holds mu.
func (r *Room) resetLocked() error {
	seed := ""
	if r.Mode == ModeDaily {
		seed = r.seed
	}
	if err := r.engine.NewGame(seed); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	r.history = nil
	r.resetVotes = make(map[string]struct{})
	r.surrenderVotes = make(map[string]struct{})
	r.locked = false

	// Blitz keeps per-player tallies across rounds of one session;
	// the other modes start players from zero.
	if r.Mode != ModeBlitz {
		for name := range r.players {
			r.players[name] = &PlayerStats{}
		}
	}
	if r.Mode == ModeBlitz {
		r.teamScore = 0
		if r.duration > 0 {
			r.endTime = r.now().Unix() + int64(r.duration)
		}
	}
	return nil
}

// Surrender vote statuses.
const (
	SurrenderPending   = "vote_pending"
	SurrenderSuccess   = "success"
	SurrenderCancelled = "cancelled"
)

// SurrenderOutcome reports a surrender vote's effect.
type SurrenderOutcome struct {
	Status       string
	Votes        int
	Needed       int
	TargetReveal string // set on success
}

// VoteSurrender handles one yes/no surrender vote. A single negative vote
// cancels the pending vote and opens a 30-second cooldown; a completed
// positive vote reveals the target and locks the room.
func (r *Room) VoteSurrender(playerName string, vote bool) (*SurrenderOutcome, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Mode == ModeDaily {
		return nil, newError(CodeDailyRoom, "daily rooms cannot be surrendered")
	}
	if r.GameType != game.GameSemantic && r.GameType != game.GameHangman {
		return nil, newError(CodeNotSurrenderable, "this game type cannot be surrendered")
	}

	now := r.now()
	if len(r.surrenderVotes) == 0 && now.Before(r.cooldownUntil) {
		remaining := int(math.Ceil(r.cooldownUntil.Sub(now).Seconds()))
		err := newError(CodeSurrenderCooldown,
			fmt.Sprintf("surrender was just declined, retry in %ds", remaining))
		err.RetryAfter = remaining
		return nil, err
	}

	r.addPlayerLocked(playerName)
	r.touchLocked()

	if !vote {
		// One refusal cancels everything; the cooldown only arms when a
		// vote was actually pending.
		hadPending := len(r.surrenderVotes) > 0
		r.surrenderVotes = make(map[string]struct{})
		if hadPending {
			r.cooldownUntil = now.Add(surrenderCooldown)
		}
		return &SurrenderOutcome{Status: SurrenderCancelled}, nil
	}

	r.surrenderVotes[playerName] = struct{}{}

	// A solo room must be able to surrender to itself.
	needed := len(r.activePlayers)
	if needed < 1 {
		needed = 1
	}
	if len(r.surrenderVotes) < needed {
		return &SurrenderOutcome{
			Status: SurrenderPending,
			Votes:  len(r.surrenderVotes),
			Needed: needed,
		}, nil
	}

	reveal := r.engine.Target()
	r.locked = true
	r.surrenderVotes = make(map[string]struct{})
	return &SurrenderOutcome{
		Status:       SurrenderSuccess,
		Votes:        needed,
		Needed:       needed,
		TargetReveal: reveal,
	}, nil
}

// internal/httpserver/server.go
//
// HTTP wiring for the Lexica game server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Room lifecycle endpoints: create, random-duel matchmaking, guess,
//     reset vote, surrender vote, existence and pseudo checks.
//   - WebSocket endpoint per room (see ws.go).
//   - Mapping the room error taxonomy onto HTTP statuses.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - Room mutations run to completion before any broadcast is issued;
//     handlers only fan out after the transaction commits.

package httpserver

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mbriand/lexica/internal/game"
	"github.com/mbriand/lexica/internal/hub"
	"github.com/mbriand/lexica/internal/room"
	"github.com/mbriand/lexica/internal/words"
)

// Server bundles router, room registry and broadcast hub.
type Server struct {
	r        *chi.Mux
	rooms    *room.Manager
	hub      *hub.Hub
	oracleUp bool
}

// New constructs a Server, installs middleware, and registers routes.
// oracleUp reports whether the similarity oracle is loaded; variants that
// need it fail room creation with a 500 when it is not.
func New(rooms *room.Manager, h *hub.Hub, oracleUp bool) *Server {
	s := &Server{r: chi.NewRouter(), rooms: rooms, hub: h, oracleUp: oracleUp}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"lexica","endpoints":["/health","POST /rooms","POST /rooms/join_random","POST /rooms/{id}/guess"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		vocab, defs := words.Stats()
		out := map[string]any{"vocab": vocab, "definitions": defs}
		if q := r.URL.Query().Get("check"); q != "" {
			out["check"] = q
			out["known"] = words.IsWord(q)
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	// --- rooms ---
	s.r.Post("/rooms", s.handleCreateRoom)
	s.r.Post("/rooms/join_random", s.handleJoinRandomDuel)
	s.r.Route("/rooms/{roomID}", func(r chi.Router) {
		r.Get("/check", s.handleCheckRoom)
		r.Get("/check_pseudo", s.handleCheckPseudo)
		r.Post("/guess", s.handleGuess)
		r.Post("/reset", s.handleReset)
		r.Post("/surrender", s.handleSurrender)
		r.Get("/ws", s.handleWS)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRoomError maps room error codes to HTTP statuses.
func writeRoomError(w http.ResponseWriter, e *room.Error) {
	status := http.StatusBadRequest
	switch e.Code {
	case room.CodeRoomNotFound:
		status = http.StatusNotFound
	case room.CodeSurrenderCooldown:
		status = http.StatusTooManyRequests
	case room.CodeRoomFull:
		status = http.StatusConflict
	case room.CodeResetFailed:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, e)
}

func roomNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   room.CodeRoomNotFound,
		"message": "unknown room",
	})
}

// ------------------------------- rooms -------------------------------------

type createRoomReq struct {
	PlayerName string `json:"player_name"`
	Mode       string `json:"mode"`
	GameType   string `json:"game_type"`
	Duration   int    `json:"duration"`
}

// handleCreateRoom creates and registers a new room. Engine initialization
// failures surface as 503 and never leave a half-initialized room behind.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.GameType == "" {
		req.GameType = string(game.GameSemantic)
	}
	gameType, err := game.ParseGameType(req.GameType)
	if err != nil {
		http.Error(w, `{"error":"unknown_game_type"}`, http.StatusBadRequest)
		return
	}
	if gameType.NeedsOracle() && !s.oracleUp {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "the similarity oracle is not loaded",
		})
		return
	}

	mode := room.ParseMode(req.Mode)
	rm, err := s.rooms.CreateRoom(gameType, mode, req.PlayerName, req.Duration)
	if err != nil {
		log.Error().Err(err).Str("gameType", string(gameType)).Msg("create room")
		message := "could not create the game"
		if gameType == game.GameDefinition {
			message = "could not create a definition game right now"
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"message": message,
			"detail":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":    rm.ID,
		"mode":       string(rm.Mode),
		"game_type":  string(rm.GameType),
		"scoreboard": rm.Scoreboard(),
	})
}

type joinRandomReq struct {
	PlayerName string `json:"player_name"`
}

// handleJoinRandomDuel reuses the single waiting duel room or creates one.
func (s *Server) handleJoinRandomDuel(w http.ResponseWriter, r *http.Request) {
	var req joinRandomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	rm, isNew, err := s.rooms.JoinRandomDuel(req.PlayerName)
	if err != nil {
		log.Error().Err(err).Msg("join random duel")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"message": "could not create a duel",
			"detail":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":   rm.ID,
		"mode":      string(rm.Mode),
		"game_type": string(rm.GameType),
		"is_new":    isNew,
	})
}

// handleCheckRoom reports existence and mode for a room id.
func (s *Server) handleCheckRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"exists":  false,
			"message": "unknown room",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exists": true, "mode": string(rm.Mode)})
}

// handleCheckPseudo reports whether a name is free among connected players.
func (s *Server) handleCheckPseudo(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"available": false,
			"message":   "unknown room",
		})
		return
	}
	name := r.URL.Query().Get("player_name")
	if rm.IsActive(name) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"available": false,
			"message":   "the pseudo '" + name + "' is already taken by a connected player",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true})
}

// ------------------------------- guesses -----------------------------------

type guessReq struct {
	Word       string `json:"word"`
	PlayerName string `json:"player_name"`
}

// handleGuess runs the guess transaction and fans the committed outcome out
// to every viewer: the guess event, a scoreboard update, and a victory
// event when the round ends.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		roomNotFound(w)
		return
	}

	word := strings.ToLower(strings.TrimSpace(req.Word))
	outcome, rerr := rm.ProcessGuess(word, req.PlayerName)
	if rerr != nil {
		writeRoomError(w, rerr)
		return
	}

	// State is committed; fan out after the fact.
	s.hub.Broadcast(rm.ID, outcome.Broadcast)
	var winner any
	if outcome.Victory {
		winner = req.PlayerName
	}
	s.hub.Broadcast(rm.ID, map[string]any{
		"type":       "scoreboard_update",
		"scoreboard": outcome.Scoreboard,
		"mode":       string(outcome.Mode),
		"locked":     outcome.Locked,
		"victory":    outcome.Victory,
		"winner":     winner,
	})
	if outcome.Victory {
		s.hub.Broadcast(rm.ID, map[string]any{
			"type":        "victory",
			"mode":        string(outcome.Mode),
			"player_name": req.PlayerName,
			"room_id":     rm.ID,
			"winner":      req.PlayerName,
		})
	}

	if outcome.Victory || outcome.Defeat {
		s.rooms.RecordResult(rm, req.PlayerName)
	}
	s.rooms.Persist(rm)

	resp := map[string]any{
		"scoreboard": outcome.Scoreboard,
		"mode":       string(outcome.Mode),
		"locked":     outcome.Locked,
	}
	for k, v := range outcome.Response {
		resp[k] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// ------------------------------- votes -------------------------------------

type voteReq struct {
	PlayerName string `json:"player_name"`
	Vote       *bool  `json:"vote,omitempty"` // surrender only
}

// handleReset records a reset vote; once every player has voted the room
// restarts and everyone is notified.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req voteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		roomNotFound(w)
		return
	}

	out, rerr := rm.VoteReset(req.PlayerName)
	if rerr != nil {
		writeRoomError(w, rerr)
		return
	}

	if out.Done {
		s.hub.Broadcast(rm.ID, map[string]any{
			"type":         "game_reset",
			"public_state": out.PublicState,
			"mode":         string(rm.Mode),
			"scoreboard":   out.Scoreboard,
			"end_time":     out.EndTime,
		})
		s.rooms.Persist(rm)
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset_done"})
		return
	}

	s.hub.Broadcast(rm.ID, map[string]any{
		"type":          "reset_update",
		"current_votes": out.CurrentVotes,
		"total_players": out.TotalPlayers,
		"waiting_for":   out.WaitingFor,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "waiting"})
}

// handleSurrender records one yes/no surrender vote and broadcasts the
// resulting state transition.
func (s *Server) handleSurrender(w http.ResponseWriter, r *http.Request) {
	var req voteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	rm, ok := s.rooms.Get(chi.URLParam(r, "roomID"))
	if !ok {
		roomNotFound(w)
		return
	}

	vote := true
	if req.Vote != nil {
		vote = *req.Vote
	}
	out, rerr := rm.VoteSurrender(req.PlayerName, vote)
	if rerr != nil {
		writeRoomError(w, rerr)
		return
	}

	switch out.Status {
	case room.SurrenderPending:
		s.hub.Broadcast(rm.ID, map[string]any{
			"type":        "surrender_vote_start",
			"player_name": req.PlayerName,
			"votes":       out.Votes,
			"needed":      out.Needed,
		})
	case room.SurrenderCancelled:
		s.hub.Broadcast(rm.ID, map[string]any{
			"type":        "surrender_cancel",
			"player_name": req.PlayerName,
		})
	case room.SurrenderSuccess:
		s.hub.Broadcast(rm.ID, map[string]any{
			"type":          "surrender_success",
			"player_name":   req.PlayerName,
			"target_reveal": out.TargetReveal,
		})
		s.rooms.RecordResult(rm, "")
		s.rooms.Persist(rm)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": out.Status,
		"votes":  out.Votes,
		"needed": out.Needed,
	})
}

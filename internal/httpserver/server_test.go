package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mbriand/lexica/internal/game"
	"github.com/mbriand/lexica/internal/hub"
	"github.com/mbriand/lexica/internal/oracle"
	"github.com/mbriand/lexica/internal/room"
	"github.com/mbriand/lexica/internal/words"
)

type testEnv struct {
	srv   *httptest.Server
	rooms *room.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if err := words.Init(); err != nil {
		t.Fatalf("words.Init: %v", err)
	}
	orc, err := oracle.NewVectorOracle(words.Vocabulary())
	if err != nil {
		t.Fatalf("NewVectorOracle: %v", err)
	}
	deps := game.Deps{Oracle: orc, Definitions: game.NewStaticDefinitions(), DailySalt: "salt"}
	rooms := room.NewManager(deps, nil, time.Hour)
	t.Cleanup(rooms.Close)

	s := New(rooms, hub.New(), true)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, rooms: rooms}
}

func (e *testEnv) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestDebugWordsCheck(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/debug/words?check=orange")
	if body["known"] != true {
		t.Errorf("orange: body = %v", body)
	}

	_, body = env.get(t, "/debug/words?check=zzzzz")
	if body["known"] != false {
		t.Errorf("zzzzz: body = %v", body)
	}
}

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.post(t, "/rooms", map[string]any{
		"player_name": "alice",
		"mode":        "coop",
		"game_type":   "semantic",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["room_id"].(string)
	if len(id) != 8 {
		t.Errorf("room_id = %q, want 8 chars", id)
	}
	if body["mode"] != "coop" || body["game_type"] != "semantic" {
		t.Errorf("body = %v", body)
	}
	if _, ok := env.rooms.Get(id); !ok {
		t.Error("room not registered")
	}
}

func TestCreateRoomUnknownGameType(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.post(t, "/rooms", map[string]any{"game_type": "wordle"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateRoomWithoutOracle(t *testing.T) {
	if err := words.Init(); err != nil {
		t.Fatalf("words.Init: %v", err)
	}
	rooms := room.NewManager(game.Deps{Definitions: game.NewStaticDefinitions()}, nil, time.Hour)
	defer rooms.Close()
	srv := httptest.NewServer(New(rooms, hub.New(), false).Router())
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"game_type": "semantic"})
	resp, err := http.Post(srv.URL+"/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("semantic without oracle: status = %d, want 500", resp.StatusCode)
	}

	// Hangman needs no oracle and must still work.
	body, _ = json.Marshal(map[string]any{"game_type": "hangman"})
	resp, err = http.Post(srv.URL+"/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("hangman without oracle: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuessFlow(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	// Unknown word is rejected with the stable error code.
	resp, body := env.post(t, "/rooms/"+id+"/guess", map[string]any{
		"word": "zzzznotaword", "player_name": "alice",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown word: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["error"] != "unknown_word" {
		t.Errorf("error = %v", body["error"])
	}

	// A vocabulary word is scored, with surrounding whitespace and case
	// normalized away.
	word := words.Vocabulary()[0]
	resp, body = env.post(t, "/rooms/"+id+"/guess", map[string]any{
		"word": "  " + word + "  ", "player_name": "alice",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guess: status = %d, body = %v", resp.StatusCode, body)
	}
	if body["exists"] != true {
		t.Errorf("exists = %v", body["exists"])
	}
	rows, _ := body["scoreboard"].([]any)
	if len(rows) != 1 {
		t.Fatalf("scoreboard = %v", body["scoreboard"])
	}
}

func TestGuessRoomNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.post(t, "/rooms/nope1234/guess", map[string]any{
		"word": "apple", "player_name": "alice",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] != "room_not_found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCheckPseudo(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	resp, body := env.get(t, "/rooms/"+id+"/check_pseudo?player_name=alice")
	if resp.StatusCode != http.StatusOK || body["available"] != true {
		t.Fatalf("free pseudo: status = %d, body = %v", resp.StatusCode, body)
	}

	rm, _ := env.rooms.Get(id)
	rm.Connect("alice")

	resp, body = env.get(t, "/rooms/"+id+"/check_pseudo?player_name=alice")
	if resp.StatusCode != http.StatusConflict || body["available"] != false {
		t.Errorf("taken pseudo: status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestCheckRoom(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic", "mode": "race"})
	id := created["room_id"].(string)

	resp, body := env.get(t, "/rooms/"+id+"/check")
	if resp.StatusCode != http.StatusOK || body["exists"] != true || body["mode"] != "race" {
		t.Errorf("status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = env.get(t, "/rooms/missing1/check")
	if resp.StatusCode != http.StatusNotFound || body["exists"] != false {
		t.Errorf("missing: status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestResetVoteOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	rm, _ := env.rooms.Get(id)
	rm.AddPlayer("alice")
	rm.AddPlayer("bob")

	resp, body := env.post(t, "/rooms/"+id+"/reset", map[string]any{"player_name": "alice"})
	if resp.StatusCode != http.StatusOK || body["status"] != "waiting" {
		t.Fatalf("first vote: status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = env.post(t, "/rooms/"+id+"/reset", map[string]any{"player_name": "bob"})
	if resp.StatusCode != http.StatusOK || body["status"] != "reset_done" {
		t.Fatalf("final vote: status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestSurrenderCooldownOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	rm, _ := env.rooms.Get(id)
	rm.Connect("alice")
	rm.Connect("bob")

	resp, body := env.post(t, "/rooms/"+id+"/surrender", map[string]any{
		"player_name": "alice", "vote": true,
	})
	if resp.StatusCode != http.StatusOK || body["status"] != "vote_pending" {
		t.Fatalf("first vote: status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = env.post(t, "/rooms/"+id+"/surrender", map[string]any{
		"player_name": "bob", "vote": false,
	})
	if resp.StatusCode != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("refusal: status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = env.post(t, "/rooms/"+id+"/surrender", map[string]any{
		"player_name": "alice", "vote": true,
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("cooldown: status = %d, body = %v", resp.StatusCode, body)
	}
	retry, _ := body["retry_after"].(float64)
	if retry <= 0 || retry > 30 {
		t.Errorf("retry_after = %v, want within (0,30]", body["retry_after"])
	}
}

func TestJoinRandomDuelOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp, first := env.post(t, "/rooms/join_random", map[string]any{"player_name": "alice"})
	if resp.StatusCode != http.StatusOK || first["is_new"] != true {
		t.Fatalf("first join: status = %d, body = %v", resp.StatusCode, first)
	}

	resp, second := env.post(t, "/rooms/join_random", map[string]any{"player_name": "bob"})
	if resp.StatusCode != http.StatusOK || second["is_new"] != false {
		t.Fatalf("second join: status = %d, body = %v", resp.StatusCode, second)
	}
	if first["room_id"] != second["room_id"] {
		t.Errorf("players were not paired: %v vs %v", first["room_id"], second["room_id"])
	}
	if second["mode"] != "duel" || second["game_type"] != "semantic" {
		t.Errorf("body = %v", second)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if body["error"] != "not_found" {
		t.Errorf("body = %v", body)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)
	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/rooms", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Allow-Origin missing")
	}
}

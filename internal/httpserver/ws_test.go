package httpserver

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, env *testEnv, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return msg
}

// readUntil skips messages until one with the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readWS(t, conn)
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("no %q message within 10 reads", msgType)
	return nil
}

func TestWSRequiresPlayerName(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	conn := dialWS(t, env, "/rooms/"+id+"/ws")
	msg := readWS(t, conn)
	if msg["error"] != "missing_player_name" {
		t.Errorf("msg = %v", msg)
	}
}

func TestWSUnknownRoom(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env, "/rooms/nope1234/ws?player_name=alice")
	msg := readWS(t, conn)
	if msg["error"] != "room_not_found" {
		t.Errorf("msg = %v", msg)
	}
}

func TestWSStateSyncOnConnect(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic", "mode": "coop"})
	id := created["room_id"].(string)

	conn := dialWS(t, env, "/rooms/"+id+"/ws?player_name=alice")
	sync := readWS(t, conn)
	if sync["type"] != "state_sync" {
		t.Fatalf("first message type = %v, want state_sync", sync["type"])
	}
	if sync["mode"] != "coop" || sync["game_type"] != "semantic" || sync["locked"] != false {
		t.Errorf("state_sync = %v", sync)
	}
}

func TestWSChatRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	alice := dialWS(t, env, "/rooms/"+id+"/ws?player_name=alice")
	readUntil(t, alice, "scoreboard_update")
	bob := dialWS(t, env, "/rooms/"+id+"/ws?player_name=bob")
	readUntil(t, bob, "scoreboard_update")

	if err := alice.WriteJSON(map[string]string{"type": "chat", "content": "hello"}); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	msg := readUntil(t, bob, "chat_message")
	if msg["player_name"] != "alice" || msg["content"] != "hello" {
		t.Errorf("chat = %v", msg)
	}
}

func TestWSRejectsNonChatPayloads(t *testing.T) {
	env := newTestEnv(t)
	_, created := env.post(t, "/rooms", map[string]any{"game_type": "semantic"})
	id := created["room_id"].(string)

	conn := dialWS(t, env, "/rooms/"+id+"/ws?player_name=alice")
	readUntil(t, conn, "scoreboard_update")

	if err := conn.WriteJSON(map[string]string{"type": "guess", "word": "apple"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readWS(t, conn)
	if msg["error"] != "invalid_payload" {
		t.Errorf("msg = %v", msg)
	}
}

func TestWSDuelFullAndGameStart(t *testing.T) {
	env := newTestEnv(t)
	_, joined := env.post(t, "/rooms/join_random", map[string]any{"player_name": "alice"})
	id := joined["room_id"].(string)

	alice := dialWS(t, env, "/rooms/"+id+"/ws?player_name=alice")
	readUntil(t, alice, "scoreboard_update")

	bob := dialWS(t, env, "/rooms/"+id+"/ws?player_name=bob")
	start := readUntil(t, bob, "game_start")
	if end, _ := start["end_time"].(float64); end <= 0 {
		t.Errorf("game_start end_time = %v", start["end_time"])
	}

	// A third connection with a fresh name bounces off the full duel.
	carol := dialWS(t, env, "/rooms/"+id+"/ws?player_name=carol")
	msg := readWS(t, carol)
	if msg["error"] != "room_full" {
		t.Errorf("msg = %v", msg)
	}
}

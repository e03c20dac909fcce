// internal/httpserver/ws.go
//
// WebSocket endpoint for room viewers.
// Responsibilities:
//   - Upgrade, validate preconditions (player name, room existence, duel
//     capacity), and register the connection with the broadcast hub.
//   - Push a full state_sync to the newcomer, then a scoreboard_update to
//     the whole room.
//   - Accept chat messages from the socket; everything else is rejected.
//   - On disconnect, unwind presence and tear down abandoned duel rooms.
//
// Writes go through a per-connection buffered channel drained by a single
// writer goroutine, so broadcasts never block on a slow client. A client
// whose buffer fills is treated as dead and dropped by the hub.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mbriand/lexica/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin browsers are expected; CORS policy lives on the REST side.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const clientSendBuffer = 64

var errClientGone = errors.New("client send buffer full")

// wsClient adapts one websocket connection to the hub's Sender contract.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{conn: conn, send: make(chan []byte, clientSendBuffer)}
}

// Send queues a message for the writer goroutine. It never blocks: a full
// buffer means the reader on the other end stopped keeping up.
func (c *wsClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientGone
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errClientGone
	}
}

// close stops accepting messages and releases the writer goroutine.
func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket. One per connection.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// sendJSON marshals and queues v for this client only.
func (c *wsClient) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Send(data)
}

// inboundMsg is the only client-to-server message shape accepted.
type inboundMsg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// handleWS owns a viewer connection for its whole lifetime.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	playerName := strings.TrimSpace(r.URL.Query().Get("player_name"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("ws upgrade")
		return
	}

	// Precondition failures are reported over the socket, then it closes;
	// by upgrade time the HTTP status line is already gone.
	reject := func(code, message string) {
		payload, _ := json.Marshal(room.Error{Code: code, Message: message})
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		_ = conn.Close()
	}

	if playerName == "" {
		reject(room.CodeMissingPlayerName, "player_name query parameter is required")
		return
	}
	rm, ok := s.rooms.Get(roomID)
	if !ok {
		reject(room.CodeRoomNotFound, "unknown room")
		return
	}
	if rm.Mode == room.ModeDuel && rm.ActiveCount() >= 2 && !rm.IsActive(playerName) {
		reject(room.CodeRoomFull, "this duel already has two players")
		return
	}

	client := newWSClient(conn)
	go client.writePump()

	s.hub.Connect(roomID, client)
	justStarted := rm.Connect(playerName)

	// Full picture for the newcomer, then presence for everyone.
	client.sendJSON(rm.StateSync())
	s.hub.Broadcast(roomID, map[string]any{
		"type":        "scoreboard_update",
		"scoreboard":  rm.Scoreboard(),
		"mode":        string(rm.Mode),
		"locked":      rm.Locked(),
		"player_name": playerName,
	})
	if justStarted {
		// Second duelist arrived; the countdown starts now.
		s.hub.Broadcast(roomID, map[string]any{
			"type":     "game_start",
			"end_time": rm.EndTime(),
			"message":  "both players connected, the duel begins",
		})
		s.rooms.Persist(rm)
	}

	log.Info().Str("room", roomID).Str("player", playerName).Msg("ws connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg inboundMsg
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "chat" || strings.TrimSpace(msg.Content) == "" {
			client.sendJSON(room.Error{
				Code:    room.CodeInvalidPayload,
				Message: "only chat messages are accepted on this socket",
			})
			continue
		}
		rm.AddChat(playerName, msg.Content)
		s.hub.Broadcast(roomID, map[string]any{
			"type":        "chat_message",
			"player_name": playerName,
			"content":     msg.Content,
		})
	}

	s.hub.Disconnect(roomID, client)
	client.close()
	remaining := rm.Disconnect(playerName)
	log.Info().Str("room", roomID).Str("player", playerName).Int("remaining", remaining).Msg("ws disconnected")

	if rm.Mode == room.ModeDuel {
		// A duel does not survive its host leaving, and an empty waiting
		// room must free the matchmaking slot.
		if playerName == rm.HostName() {
			s.hub.Broadcast(roomID, map[string]any{
				"type":    "room_destroyed",
				"message": "the host left the duel",
			})
			s.rooms.Delete(roomID)
			return
		}
		if remaining == 0 && s.rooms.WaitingDuelID() == roomID {
			s.rooms.ClearWaitingDuel(roomID)
		}
	}
}

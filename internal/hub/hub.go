// internal/hub/hub.go
//
// Broadcast hub: maps room ids to their live outbound connections and fans
// messages out to them.
//
// Delivery contract:
//   - Broadcast iterates a snapshot of the connection set, never the live
//     set, so removing a dead connection mid-iteration cannot corrupt the
//     loop or double-deliver.
//   - Any send failure removes the connection, never retries, and is never
//     surfaced to the caller: outbound delivery failure must not roll back
//     already-committed room state.
//   - Within one room, messages reach each connection in Broadcast call
//     order, serialized by the caller.

package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender is one outbound connection. Send must not block indefinitely;
// a full buffer should be reported as an error so the hub can drop the
// connection.
type Sender interface {
	Send(data []byte) error
}

// Hub is the per-room connection registry.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Sender]struct{}
}

// New constructs an empty Hub.
func New() *Hub {
	return &Hub{rooms: make(map[string]map[Sender]struct{})}
}

// Connect registers a connection under a room id.
func (h *Hub) Connect(roomID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[roomID]
	if !ok {
		set = make(map[Sender]struct{})
		h.rooms[roomID] = set
	}
	set[s] = struct{}{}
}

// Disconnect removes a connection; the room entry disappears with its
// last connection.
func (h *Hub) Disconnect(roomID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.rooms[roomID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Count returns the number of live connections for a room.
func (h *Hub) Count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// Broadcast marshals v once and delivers it to every connection currently
// subscribed to the room. Failed connections are dropped.
func (h *Hub) Broadcast(roomID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("roomId", roomID).Msg("marshal broadcast")
		return
	}

	h.mu.Lock()
	set := h.rooms[roomID]
	conns := make([]Sender, 0, len(set))
	for s := range set {
		conns = append(conns, s)
	}
	h.mu.Unlock()

	for _, s := range conns {
		if err := s.Send(data); err != nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("dropping dead connection")
			h.Disconnect(roomID, s)
		}
	}
}

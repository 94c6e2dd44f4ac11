package http

import (
	"log"
	"sync"

	"github.com/HAN2S/Houps/internal/domain"
)

// Hub fans session snapshots out to websocket clients subscribed to a
// session id. It implements app.Notifier: delivery is best-effort and a
// slow client only ever costs itself stale updates, never blocks the
// mutating operation.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*roomClient]struct{}
}

type roomClient struct {
	send chan outboundMessage[any]
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*roomClient]struct{})}
}

// Publish broadcasts the session state to every subscriber of sessionID.
func (h *Hub) Publish(sessionID string, session domain.GameSession) {
	msg := outboundMessage[any]{Type: "room", Payload: session}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[sessionID] {
		select {
		case client.send <- msg:
		default:
			// Drop the oldest queued update so the freshest state wins.
			select {
			case <-client.send:
			default:
			}
			select {
			case client.send <- msg:
			default:
				log.Printf("dropping room update for session %s: subscriber not draining", sessionID)
			}
		}
	}
}

// subscribe registers a client for sessionID and returns it with its
// cancel func. Cancel is safe to call more than once.
func (h *Hub) subscribe(sessionID string) (*roomClient, func()) {
	client := &roomClient{send: make(chan outboundMessage[any], 16)}

	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*roomClient]struct{})
		h.rooms[sessionID] = room
	}
	room[client] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		room, ok := h.rooms[sessionID]
		if !ok {
			return
		}
		if _, subscribed := room[client]; !subscribed {
			return
		}
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
		close(client.send)
	}
	return client, cancel
}

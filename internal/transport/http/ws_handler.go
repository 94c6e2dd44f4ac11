package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/HAN2S/Houps/internal/app"
	"github.com/HAN2S/Houps/internal/domain"
)

// WSHandler wires websocket rooms onto the game service. Clients connect
// with a session id (and either an existing player id or a name to join
// with) and exchange typed messages; every successful mutation comes back
// as a "room" broadcast through the hub.
type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type categoryPayload struct {
	CategoryID int64 `json:"categoryId"`
}

type difficultyPayload struct {
	Difficulty int `json:"difficulty"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

// ServeWS upgrades the request and runs the room protocol for one client.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	playerID := r.URL.Query().Get("playerId")
	name := r.URL.Query().Get("name")
	avatar := r.URL.Query().Get("avatar")
	if sessionID == "" || (playerID == "" && name == "") {
		http.Error(w, "missing sessionId and playerId or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if playerID == "" {
		player, err := h.service.AddPlayer(r.Context(), sessionID, name, avatar)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errPayload(err)})
			return
		}
		playerID = player.ID
		_ = conn.WriteJSON(outboundMessage[domain.Player]{Type: "joined", Payload: player})
	}

	client, cancel := h.hub.subscribe(sessionID)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Initial snapshot so late subscribers see the room immediately.
	if session, err := h.service.Session(r.Context(), sessionID); err == nil {
		client.send <- outboundMessage[any]{Type: "room", Payload: session}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if leave := h.dispatch(r, conn, client, sessionID, playerID, inbound); leave {
			break
		}
	}

	cancel()
	<-writerDone
}

// dispatch handles one inbound message; it reports true when the client
// asked to leave the room.
func (h *WSHandler) dispatch(r *http.Request, conn *websocket.Conn, client *roomClient, sessionID, playerID string, inbound inboundMessage) bool {
	ctx := r.Context()
	var err error

	switch inbound.Type {
	case "ready":
		_, err = h.service.ToggleReady(ctx, sessionID, playerID)
	case "start":
		err = h.service.Start(ctx, sessionID)
	case "selectCategory":
		var payload categoryPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err == nil {
			_, err = h.service.SelectCategory(ctx, sessionID, playerID, payload.CategoryID)
		}
	case "selectDifficulty":
		var payload difficultyPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err == nil {
			_, err = h.service.SelectDifficulty(ctx, sessionID, playerID, payload.Difficulty)
		}
	case "wrongAnswer":
		var payload answerPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err == nil {
			err = h.service.SubmitWrongAnswer(ctx, sessionID, playerID, payload.Answer)
		}
	case "finalAnswer":
		var payload answerPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err == nil {
			err = h.service.SubmitFinalAnswer(ctx, sessionID, playerID, payload.Answer)
		}
	case "wrongAnswerTimeout":
		err = h.service.HandleDecoyTimeout(ctx, sessionID)
	case "answerTimeout":
		err = h.service.HandleAnswerTimeout(ctx, sessionID)
	case "next":
		err = h.service.AdvanceRound(ctx, sessionID)
	case "reset":
		err = h.service.Reset(ctx, sessionID)
	case "leaderboard":
		var players []domain.Player
		if players, err = h.service.Leaderboard(ctx, sessionID); err == nil {
			client.send <- outboundMessage[any]{Type: "leaderboard", Payload: players}
		}
	case "leave":
		if err := h.service.RemovePlayer(ctx, sessionID, playerID); err != nil {
			log.Printf("leave failed for player %s in session %s: %v", playerID, sessionID, err)
		}
		return true
	default:
		err = errors.New("unsupported message type " + inbound.Type)
	}

	if err != nil {
		client.send <- outboundMessage[any]{Type: "error", Payload: errPayload(err)}
	}
	return false
}

// errPayload classifies an error for clients so they can tell bad input
// from a wrong-moment operation.
func errPayload(err error) errorPayload {
	kind := "internal"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		kind = "notFound"
	case errors.Is(err, domain.ErrInvalidArgument):
		kind = "invalidArgument"
	case errors.Is(err, domain.ErrInvalidState):
		kind = "invalidState"
	}
	return errorPayload{Message: err.Error(), Kind: kind}
}

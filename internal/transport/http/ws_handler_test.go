package http

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HAN2S/Houps/internal/app"
	"github.com/HAN2S/Houps/internal/domain"
	"github.com/HAN2S/Houps/internal/infra/memory"
)

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newWSTestServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()

	categories := []domain.Category{{ID: 1, Name: "Geography"}}
	questions := []domain.Question{
		{
			ID: 10, CategoryID: 1, Difficulty: 1,
			Text: "Capital of France?", CorrectAnswer: "Paris", TrapAnswer: "Lyon",
			FallbackOptions: []string{"Berlin", "Rome", "Madrid", "Lisbon"},
		},
	}
	bank := memory.NewQuestionBankWithRand(categories, questions, rand.New(rand.NewSource(1)))
	store := memory.NewSessionStore(time.Hour)
	hub := NewHub()
	service := app.NewGameService(store, bank, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service, hub).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service
}

func dialWS(t *testing.T, server *httptest.Server, query url.Values) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

// readUntil skips broadcasts of other types; rooms are chatty by design.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) wsEnvelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		env := readEnvelope(t, conn)
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("no %q message within 10 reads", msgType)
	return wsEnvelope{}
}

func TestServeWSRequiresIdentity(t *testing.T) {
	server, _ := newWSTestServer(t)

	resp, err := http.Get(server.URL + "/ws?sessionId=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServeWSSendsRoomSnapshotOnConnect(t *testing.T) {
	server, service := newWSTestServer(t)

	session, err := service.CreateSession(context.Background(), "alice", "",
		domain.GameSettings{MaxPlayers: 4, TotalRounds: 2, TimePerQuestion: 30, Language: "en"}, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	conn := dialWS(t, server, url.Values{
		"sessionId": {session.ID},
		"playerId":  {session.Players[0].ID},
	})

	env := readUntil(t, conn, "room")
	var got domain.GameSession
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal room payload: %v", err)
	}
	if got.ID != session.ID || len(got.Players) != 1 || got.Players[0].Username != "alice" {
		t.Fatalf("room snapshot = %+v", got)
	}
}

func TestServeWSJoinByName(t *testing.T) {
	server, service := newWSTestServer(t)

	session, err := service.CreateSession(context.Background(), "alice", "",
		domain.GameSettings{MaxPlayers: 4, TotalRounds: 2, TimePerQuestion: 30, Language: "en"}, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	host := dialWS(t, server, url.Values{
		"sessionId": {session.ID},
		"playerId":  {session.Players[0].ID},
	})
	readUntil(t, host, "room")

	guest := dialWS(t, server, url.Values{
		"sessionId": {session.ID},
		"name":      {"bob"},
	})

	joined := readEnvelope(t, guest)
	if joined.Type != "joined" {
		t.Fatalf("first guest message type = %q, want joined", joined.Type)
	}
	var player domain.Player
	if err := json.Unmarshal(joined.Payload, &player); err != nil {
		t.Fatalf("unmarshal joined payload: %v", err)
	}
	if player.Username != "bob" || player.ID == "" || player.Host {
		t.Fatalf("joined payload = %+v", player)
	}

	// The host hears about the join through the room broadcast.
	env := readUntil(t, host, "room")
	var got domain.GameSession
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal room payload: %v", err)
	}
	if len(got.Players) != 2 {
		t.Fatalf("host saw %d players after join, want 2", len(got.Players))
	}
}

func TestServeWSReadyBroadcast(t *testing.T) {
	server, service := newWSTestServer(t)

	session, err := service.CreateSession(context.Background(), "alice", "",
		domain.GameSettings{MaxPlayers: 4, TotalRounds: 2, TimePerQuestion: 30, Language: "en"}, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	hostID := session.Players[0].ID

	conn := dialWS(t, server, url.Values{"sessionId": {session.ID}, "playerId": {hostID}})
	readUntil(t, conn, "room")

	if err := conn.WriteJSON(map[string]any{"type": "ready"}); err != nil {
		t.Fatalf("write ready: %v", err)
	}

	env := readUntil(t, conn, "room")
	var got domain.GameSession
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("unmarshal room payload: %v", err)
	}
	if !got.Players[0].Ready {
		t.Fatalf("host not marked ready in broadcast: %+v", got.Players[0])
	}
}

func TestServeWSClassifiesErrors(t *testing.T) {
	server, service := newWSTestServer(t)

	session, err := service.CreateSession(context.Background(), "alice", "",
		domain.GameSettings{MaxPlayers: 4, TotalRounds: 2, TimePerQuestion: 30, Language: "en"}, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	conn := dialWS(t, server, url.Values{"sessionId": {session.ID}, "playerId": {session.Players[0].ID}})
	readUntil(t, conn, "room")

	// Selecting a category in the lobby is out of phase.
	if err := conn.WriteJSON(map[string]any{
		"type":    "selectCategory",
		"payload": map[string]any{"categoryId": 1},
	}); err != nil {
		t.Fatalf("write selectCategory: %v", err)
	}

	env := readUntil(t, conn, "error")
	var payload struct {
		Message string `json:"message"`
		Kind    string `json:"kind"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Kind != "invalidState" {
		t.Fatalf("error kind = %q (%s), want invalidState", payload.Kind, payload.Message)
	}
}

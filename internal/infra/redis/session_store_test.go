package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/HAN2S/Houps/internal/domain"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	store := NewSessionStore(client, time.Hour)

	session := domain.GameSession{
		ID:     "s1",
		Status: domain.StatusInProgress,
		Players: []domain.Player{
			{ID: "p1", Username: "alice", Host: true, Score: 3},
			{ID: "p2", Username: "bob"},
		},
		CurrentRound: 2,
		CurrentPhase: domain.PhaseMCQAnswering,
		FinalOptions: []string{"Paris", "London", "Lyon"},
	}
	if err := store.Put(ctx, session.ID, session); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.CurrentRound != 2 {
		t.Fatalf("Get returned %+v", got)
	}
	if len(got.Players) != 2 || got.Players[0].Score != 3 {
		t.Fatalf("players did not survive the roundtrip: %+v", got.Players)
	}
	if len(got.FinalOptions) != 3 {
		t.Fatalf("final options did not survive the roundtrip: %v", got.FinalOptions)
	}
}

func TestSessionStoreMissingSession(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Get(ctx, "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStorePutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := testRedis(t)
	store := NewSessionStore(client, time.Hour)

	if err := store.Put(ctx, "s1", domain.GameSession{ID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := "game:session:s1"
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("TTL after first Put = %v, want %v", ttl, time.Hour)
	}

	mr.FastForward(30 * time.Minute)
	if err := store.Put(ctx, "s1", domain.GameSession{ID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("TTL after refresh = %v, want %v", ttl, time.Hour)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := testRedis(t)
	store := NewSessionStore(client, time.Minute)

	if err := store.Put(ctx, "s1", domain.GameSession{ID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Get after expiry: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	ctx := context.Background()
	_, client := testRedis(t)
	store := NewSessionStore(client, time.Hour)

	if err := store.Put(ctx, "s1", domain.GameSession{ID: "s1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrSessionNotFound", err)
	}
}

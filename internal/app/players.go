package app

import (
	"sort"

	"github.com/google/uuid"

	"github.com/HAN2S/Houps/internal/domain"
)

// newHostPlayer creates the room host. Hosts start not-ready like everyone
// else; Start marks them ready automatically.
func newHostPlayer(username, avatarURL string) domain.Player {
	return domain.Player{
		ID:        uuid.NewString(),
		Username:  username,
		AvatarURL: avatarURL,
		Host:      true,
	}
}

func newPlayer(username, avatarURL string) domain.Player {
	return domain.Player{
		ID:        uuid.NewString(),
		Username:  username,
		AvatarURL: avatarURL,
	}
}

// findPlayer returns the index of the player with the given id, or -1.
func findPlayer(players []domain.Player, playerID string) int {
	for i := range players {
		if players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// removePlayer drops the player if present, preserving the order of the
// remaining players. Removal is a no-op for unknown ids.
func removePlayer(players []domain.Player, playerID string) []domain.Player {
	i := findPlayer(players, playerID)
	if i < 0 {
		return players
	}
	return append(players[:i], players[i+1:]...)
}

// turnPlayer returns the player entitled to pick category and difficulty
// for the current round: players[(round-1) mod playerCount], evaluated
// against the player list as it stands right now. A mid-game leave shifts
// rotation for subsequent rounds.
func turnPlayer(s *domain.GameSession) *domain.Player {
	if len(s.Players) == 0 {
		return nil
	}
	round := s.CurrentRound
	if round < 1 {
		round = 1
	}
	return &s.Players[(round-1)%len(s.Players)]
}

func resetPlayersForRound(s *domain.GameSession) {
	for i := range s.Players {
		s.Players[i].ResetForRound()
	}
}

// clearAnsweredFlags resets only the has-answered flag, keeping the decoy
// and final answers recorded so far. Used between collection phases.
func clearAnsweredFlags(s *domain.GameSession) {
	for i := range s.Players {
		s.Players[i].HasAnswered = false
	}
}

func allAnswered(players []domain.Player) bool {
	for i := range players {
		if !players[i].HasAnswered {
			return false
		}
	}
	return len(players) > 0
}

// leaderboard returns a copy of the players sorted by descending score.
// The sort is stable: ties keep the original join order.
func leaderboard(players []domain.Player) []domain.Player {
	out := append([]domain.Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func allReady(players []domain.Player) bool {
	for i := range players {
		if !players[i].Ready {
			return false
		}
	}
	return true
}

package app

import (
	"log"

	"github.com/HAN2S/Houps/internal/domain"
)

// applyScores resolves the just-completed round. It is deterministic given
// the recorded submissions and runs exactly once per round, when MCQ
// answering completes (all answered or timeout).
//
// Rules:
//  1. A final answer equal to the question's correct answer awards the
//     player points equal to the question's difficulty tier.
//  2. Otherwise, if the final answer matches a decoy submitted by one or
//     more other players, every original submitter of that exact text
//     gains 1 bonus point. A player never earns a bonus from their own
//     decoy.
//  3. Players without a recorded final answer score nothing.
//
// A single chosen answer is never counted under both rules.
func applyScores(s *domain.GameSession) {
	q := s.CurrentQuestion
	if q == nil {
		log.Printf("scoring skipped: no active question for session %s", s.ID)
		return
	}

	// Decoy text -> indices of the players who submitted it.
	submitters := make(map[string][]int)
	for i := range s.Players {
		if decoy := s.Players[i].WrongAnswerSubmitted; decoy != "" {
			submitters[decoy] = append(submitters[decoy], i)
		}
	}

	for i := range s.Players {
		p := &s.Players[i]
		if p.CurrentAnswer == "" {
			continue
		}
		if q.IsCorrect(p.CurrentAnswer) {
			p.AddScore(q.Difficulty)
			log.Printf("player %s answered correctly, +%d points (score %d)", p.Username, q.Difficulty, p.Score)
			continue
		}
		for _, j := range submitters[p.CurrentAnswer] {
			if s.Players[j].ID == p.ID {
				continue
			}
			s.Players[j].AddScore(1)
			log.Printf("player %s fell for %s's decoy %q, +1 bonus (score %d)",
				p.Username, s.Players[j].Username, p.CurrentAnswer, s.Players[j].Score)
		}
	}
}

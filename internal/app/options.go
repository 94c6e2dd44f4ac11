package app

import (
	"github.com/HAN2S/Houps/internal/domain"
)

// shuffler abstracts rand.Shuffle so option ordering can be pinned in tests.
type shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// buildFinalOptions materializes the multiple-choice list for the round:
// the correct answer, the distinct player decoys, the question's trap
// answer, and enough shuffled fallback options to reach playerCount+2
// entries. The result is shuffled so the correct answer's position carries
// no signal. Decoys identical to the correct answer are dropped (choosing
// one still scores as correct).
func buildFinalOptions(q *domain.Question, players []domain.Player, rnd shuffler) []string {
	options := []string{q.CorrectAnswer}
	seen := map[string]bool{q.CorrectAnswer: true}

	for i := range players {
		decoy := players[i].WrongAnswerSubmitted
		if decoy == "" || seen[decoy] {
			continue
		}
		options = append(options, decoy)
		seen[decoy] = true
	}

	if q.TrapAnswer != "" && !seen[q.TrapAnswer] {
		options = append(options, q.TrapAnswer)
		seen[q.TrapAnswer] = true
	}

	target := len(players) + 2
	if len(options) < target && len(q.FallbackOptions) > 0 {
		fallbacks := append([]string(nil), q.FallbackOptions...)
		rnd.Shuffle(len(fallbacks), func(i, j int) {
			fallbacks[i], fallbacks[j] = fallbacks[j], fallbacks[i]
		})
		for _, fb := range fallbacks {
			if len(options) >= target {
				break
			}
			if fb == "" || seen[fb] {
				continue
			}
			options = append(options, fb)
			seen[fb] = true
		}
	}

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

package app

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/HAN2S/Houps/internal/domain"
)

func optionsQuestion() *domain.Question {
	return &domain.Question{
		ID:              7,
		CategoryID:      1,
		Text:            "Capital of France?",
		CorrectAnswer:   "Paris",
		TrapAnswer:      "Lyon",
		FallbackOptions: []string{"Berlin", "Rome", "Madrid", "Lisbon", "Vienna"},
		Difficulty:      2,
	}
}

func playersWithDecoys(decoys ...string) []domain.Player {
	players := make([]domain.Player, len(decoys))
	for i, d := range decoys {
		players[i] = domain.Player{ID: string(rune('a' + i)), Username: "p", WrongAnswerSubmitted: d}
	}
	return players
}

func TestBuildFinalOptionsPadsToPlayerCountPlusTwo(t *testing.T) {
	q := optionsQuestion()
	players := playersWithDecoys("London", "", "")

	options := buildFinalOptions(q, players, rand.New(rand.NewSource(1)))

	if got, want := len(options), len(players)+2; got != want {
		t.Fatalf("len(options) = %d, want %d: %v", got, want, options)
	}
	for _, required := range []string{"Paris", "London", "Lyon"} {
		if !containsOption(options, required) {
			t.Errorf("options %v missing %q", options, required)
		}
	}
}

func TestBuildFinalOptionsDeduplicates(t *testing.T) {
	q := optionsQuestion()
	// Two players submit the same decoy, one submits the trap answer and one
	// submits the correct answer itself.
	players := playersWithDecoys("London", "London", "Lyon", "Paris")

	options := buildFinalOptions(q, players, rand.New(rand.NewSource(1)))

	counts := map[string]int{}
	for _, o := range options {
		counts[o]++
	}
	for text, n := range counts {
		if n > 1 {
			t.Errorf("option %q appears %d times in %v", text, n, options)
		}
	}
	if got, want := len(options), len(players)+2; got != want {
		t.Fatalf("len(options) = %d, want %d: %v", got, want, options)
	}
	if counts["Paris"] != 1 {
		t.Errorf("correct answer should appear exactly once, got %v", options)
	}
}

func TestBuildFinalOptionsWithoutFallbacksStopsShort(t *testing.T) {
	q := optionsQuestion()
	q.FallbackOptions = nil
	players := playersWithDecoys("London", "", "", "")

	options := buildFinalOptions(q, players, rand.New(rand.NewSource(1)))

	// Correct + one decoy + trap is all the material there is.
	want := []string{"London", "Lyon", "Paris"}
	got := append([]string(nil), options...)
	sort.Strings(got)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("options = %v, want a permutation of %v", options, want)
	}
}

func TestBuildFinalOptionsIsDeterministicForSeed(t *testing.T) {
	q := optionsQuestion()
	players := playersWithDecoys("London", "Oslo")

	first := buildFinalOptions(q, players, rand.New(rand.NewSource(42)))
	second := buildFinalOptions(q, players, rand.New(rand.NewSource(42)))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced %v and %v", first, second)
	}
}

func containsOption(options []string, text string) bool {
	for _, o := range options {
		if o == text {
			return true
		}
	}
	return false
}

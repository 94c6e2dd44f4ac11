package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/HAN2S/Houps/internal/domain"
)

// QuestionBank is a static, pre-resolved question catalog (useful for
// tests/demos). It serves both as an app.QuestionSource and as the loader
// behind the Redis question cache.
type QuestionBank struct {
	categories []domain.Category
	questions  []domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(categories []domain.Category, questions []domain.Question) *QuestionBank {
	return NewQuestionBankWithRand(categories, questions, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionBankWithRand pins random picks in tests.
func NewQuestionBankWithRand(categories []domain.Category, questions []domain.Question, rnd *rand.Rand) *QuestionBank {
	return &QuestionBank{categories: categories, questions: questions, rnd: rnd}
}

func (b *QuestionBank) RandomQuestion(ctx context.Context, categoryID int64, difficulty int, lang string) (domain.Question, error) {
	pool, err := b.QuestionsByCategoryAndDifficulty(ctx, categoryID, difficulty, lang)
	if err != nil {
		return domain.Question{}, err
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	b.mu.Lock()
	i := b.rnd.Intn(len(pool))
	b.mu.Unlock()
	return pool[i], nil
}

// QuestionsByCategoryAndDifficulty lists the matching pool. The bank's data
// is already language-resolved, so lang is accepted for interface parity
// and ignored.
func (b *QuestionBank) QuestionsByCategoryAndDifficulty(_ context.Context, categoryID int64, difficulty int, _ string) ([]domain.Question, error) {
	var pool []domain.Question
	for _, q := range b.questions {
		if q.CategoryID == categoryID && q.Difficulty == difficulty {
			pool = append(pool, q)
		}
	}
	return pool, nil
}

func (b *QuestionBank) Categories(_ context.Context, _ string) ([]domain.Category, error) {
	return append([]domain.Category(nil), b.categories...), nil
}

package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/HAN2S/Houps/internal/domain"
)

// poolSize bounds how many candidate questions one pick fetches.
const poolSize = 10

// QuestionSource loads questions and categories from Postgres. Text columns
// exist per language (fr/en/ar); rows are resolved to the requested
// language before leaving this package, with French as the default.
type QuestionSource struct {
	pool *pgxpool.Pool

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionSource(pool *pgxpool.Pool) *QuestionSource {
	return &QuestionSource{
		pool: pool,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *QuestionSource) RandomQuestion(ctx context.Context, categoryID int64, difficulty int, lang string) (domain.Question, error) {
	pool, err := s.QuestionsByCategoryAndDifficulty(ctx, categoryID, difficulty, lang)
	if err != nil {
		return domain.Question{}, err
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	s.mu.Lock()
	i := s.rnd.Intn(len(pool))
	s.mu.Unlock()
	return pool[i], nil
}

// QuestionsByCategoryAndDifficulty fetches a sampled pool of matching
// questions with their fallback options, resolved to lang.
func (s *QuestionSource) QuestionsByCategoryAndDifficulty(ctx context.Context, categoryID int64, difficulty int, lang string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, difficulty, COALESCE(image_url, ''),
		       question_text_fr, COALESCE(question_text_en, ''), COALESCE(question_text_ar, ''),
		       correct_answer_fr, COALESCE(correct_answer_en, ''), COALESCE(correct_answer_ar, ''),
		       COALESCE(trap_answer_fr, ''), COALESCE(trap_answer_en, ''), COALESCE(trap_answer_ar, '')
		FROM questions
		WHERE category_id = $1 AND difficulty = $2
		ORDER BY random()
		LIMIT $3`, categoryID, difficulty, poolSize)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	var ids []int64
	for rows.Next() {
		var (
			q                      domain.Question
			textFr, textEn, textAr string
			ansFr, ansEn, ansAr    string
			trapFr, trapEn, trapAr string
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Difficulty, &q.ImageURL,
			&textFr, &textEn, &textAr,
			&ansFr, &ansEn, &ansAr,
			&trapFr, &trapEn, &trapAr); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Text = resolve(lang, textFr, textEn, textAr)
		q.CorrectAnswer = resolve(lang, ansFr, ansEn, ansAr)
		q.TrapAnswer = resolve(lang, trapFr, trapEn, trapAr)
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	fallbacks, err := s.fallbackOptions(ctx, ids, lang)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].FallbackOptions = fallbacks[questions[i].ID]
	}
	return questions, nil
}

func (s *QuestionSource) Categories(ctx context.Context, lang string) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name_fr, COALESCE(name_en, ''), COALESCE(name_ar, '')
		FROM categories
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var (
			c                      domain.Category
			nameFr, nameEn, nameAr string
		)
		if err := rows.Scan(&c.ID, &nameFr, &nameEn, &nameAr); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Name = resolve(lang, nameFr, nameEn, nameAr)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (s *QuestionSource) fallbackOptions(ctx context.Context, questionIDs []int64, lang string) (map[int64][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id, fallback_fr, COALESCE(fallback_en, ''), COALESCE(fallback_ar, '')
		FROM question_fallback_options
		WHERE question_id = ANY($1)`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("query fallback options: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var (
			questionID int64
			fr, en, ar string
		)
		if err := rows.Scan(&questionID, &fr, &en, &ar); err != nil {
			return nil, fmt.Errorf("scan fallback option: %w", err)
		}
		if v := resolve(lang, fr, en, ar); v != "" {
			out[questionID] = append(out[questionID], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fallback options: %w", err)
	}
	return out, nil
}

// resolve picks the text variant for lang; French is the catalog's primary
// language and the fallback.
func resolve(lang, fr, en, ar string) string {
	switch strings.ToLower(lang) {
	case "ar":
		if ar != "" {
			return ar
		}
	case "en":
		if en != "" {
			return en
		}
	}
	return fr
}

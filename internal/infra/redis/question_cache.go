package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/HAN2S/Houps/internal/domain"
)

// QuestionLoader fetches question pools from the backing store (Postgres in
// production).
type QuestionLoader interface {
	QuestionsByCategoryAndDifficulty(ctx context.Context, categoryID int64, difficulty int, lang string) ([]domain.Question, error)
	Categories(ctx context.Context, lang string) ([]domain.Category, error)
}

// QuestionCache is an app.QuestionSource that caches language-resolved
// question pools and the category catalog in Redis, falling back to a
// loader on cache miss. Pools are stored as:
//
//	SET questions:{categoryID}:{difficulty}:{lang} <json> EX ttl
//
// Fills are de-duplicated with singleflight and TTLs carry up to 10% jitter
// to spread expirations.
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) RandomQuestion(ctx context.Context, categoryID int64, difficulty int, lang string) (domain.Question, error) {
	pool, err := c.pool(ctx, categoryID, difficulty, lang)
	if err != nil {
		return domain.Question{}, err
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	c.mu.Lock()
	i := c.rnd.Intn(len(pool))
	c.mu.Unlock()
	return pool[i], nil
}

func (c *QuestionCache) Categories(ctx context.Context, lang string) ([]domain.Category, error) {
	key := "questions:categories:" + lang

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var categories []domain.Category
		if err := json.Unmarshal(raw, &categories); err == nil {
			return categories, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		categories, err := c.loader.Categories(ctx, lang)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(categories); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *QuestionCache) pool(ctx context.Context, categoryID int64, difficulty int, lang string) ([]domain.Question, error) {
	key := c.poolKey(categoryID, difficulty, lang)

	if pool, ok := c.cachedPool(ctx, key); ok {
		return pool, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pool, ok := c.cachedPool(ctx, key); ok {
			return pool, nil
		}
		pool, err := c.loader.QuestionsByCategoryAndDifficulty(ctx, categoryID, difficulty, lang)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(pool); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cachedPool(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil {
		return nil, false
	}
	return pool, true
}

func (c *QuestionCache) poolKey(categoryID int64, difficulty int, lang string) string {
	return fmt.Sprintf("questions:%d:%d:%s", categoryID, difficulty, lang)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

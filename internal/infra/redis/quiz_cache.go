package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches quiz documents in Redis and falls back to the backing store on a miss.
//
//	quiz:{quizID}       JSON document
//	quiz:{quizID}:gen   counter bumped by DeactivateQuiz
//
// A load only writes its document if the counter is unchanged since it started,
// so a read racing a soft delete cannot put the active copy back.
type QuizCache struct {
	app.QuizRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizCache(client *redis.Client, store app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: store,
		client:         client,
		ttl:            ttl,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if quiz, ok := c.cached(ctx, quizID); ok {
			return quiz, nil
		}

		gen, err := c.generation(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz, err := c.QuizRepository.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		// best-effort; a failed or skipped write only costs a later miss
		_ = c.store(ctx, quiz, gen)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// DeactivateQuiz soft-deletes in the backing store, then invalidates the cached copy.
func (c *QuizCache) DeactivateQuiz(ctx context.Context, quizID string) error {
	if err := c.QuizRepository.DeactivateQuiz(ctx, quizID); err != nil {
		return err
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(quizID))
		pipe.Del(ctx, c.key(quizID))
		return nil
	})
	return err
}

// Uncached exposes the backing store for reads that must not be served stale.
func (c *QuizCache) Uncached() app.QuizRepository {
	return c.QuizRepository
}

func (c *QuizCache) generation(ctx context.Context, quizID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(quizID)).Int64()
	if isNil(err) {
		return 0, nil
	}
	return gen, err
}

func (c *QuizCache) store(ctx context.Context, quiz domain.Quiz, gen int64) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	genKey := c.genKey(quiz.ID)
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !isNil(err) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(quiz.ID), data, c.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)
}

func (c *QuizCache) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	data, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) genKey(quizID string) string {
	return "quiz:" + quizID + ":gen"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

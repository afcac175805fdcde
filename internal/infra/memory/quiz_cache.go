package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizCache is a read-through TTL cache in front of an app.QuizRepository.
// Single-quiz lookups are cached; writes go to the backing store and evict.
type QuizCache struct {
	app.QuizRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
	// gen bumps on every eviction so an in-flight load cannot re-cache a stale quiz.
	gen uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(store app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: store,
		ttl:            ttl,
		clock:          time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:          make(map[string]cachedQuiz),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(quizID); ok {
		return cloneQuiz(quiz), nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := c.lookup(quizID); ok {
			return quiz, nil
		}

		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		quiz, err := c.QuizRepository.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.cache[quizID] = cachedQuiz{
				quiz:      quiz,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return cloneQuiz(result.(domain.Quiz)), nil
}

func (c *QuizCache) DeactivateQuiz(ctx context.Context, quizID string) error {
	err := c.QuizRepository.DeactivateQuiz(ctx, quizID)
	c.evict(quizID)
	return err
}

// Uncached exposes the backing store for reads that must not be served stale.
func (c *QuizCache) Uncached() app.QuizRepository {
	return c.QuizRepository
}

func (c *QuizCache) lookup(quizID string) (domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) evict(quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.gen++
	c.mu.Unlock()
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

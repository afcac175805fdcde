package cli

import (
	"testing"

	"brainbuzz/internal/config"
	"brainbuzz/internal/infra/memory"
	redisstore "brainbuzz/internal/infra/redis"
	"github.com/redis/go-redis/v9"
)

func TestWrapQuizCacheSelection(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	durable := func(local bool) config.Config {
		var cfg config.Config
		cfg.Storage.Quizzes = config.DriverPostgres
		cfg.Quiz.LocalCache = local
		return cfg
	}
	store := memory.NewQuizStore()

	if got := wrapQuizCache(durable(false), store, nil); got != store {
		t.Fatalf("expected no process-local cache by default, got %T", got)
	}
	if _, ok := wrapQuizCache(durable(true), store, nil).(*memory.QuizCache); !ok {
		t.Fatalf("expected process-local cache when enabled")
	}
	if _, ok := wrapQuizCache(durable(true), store, client).(*redisstore.QuizCache); !ok {
		t.Fatalf("expected redis cache to win over the local one")
	}

	var inMemory config.Config
	inMemory.Storage.Quizzes = config.DriverMemory
	inMemory.Quiz.LocalCache = true
	if got := wrapQuizCache(inMemory, store, nil); got != store {
		t.Fatalf("expected in-memory store to stay uncached, got %T", got)
	}
}

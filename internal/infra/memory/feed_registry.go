package memory

import (
	"sync"

	"brainbuzz/internal/app"
)

// FeedRegistry is an in-memory implementation of app.FeedRegistry.
type FeedRegistry struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{
		feeds: make(map[string]*app.Feed),
	}
}

func (r *FeedRegistry) GetOrCreate(quizID string) *app.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feed, ok := r.feeds[quizID]; ok {
		return feed
	}
	feed := app.NewFeed(quizID)
	r.feeds[quizID] = feed
	return feed
}

func (r *FeedRegistry) Get(quizID string) (*app.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[quizID]
	return feed, ok
}

func (r *FeedRegistry) DeleteIfEmpty(quizID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[quizID]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(r.feeds, quizID)
	}
}

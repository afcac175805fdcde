package app

import (
	"sync"

	"brainbuzz/internal/domain"
)

// FeedRegistry abstracts where live results feeds are kept (in-memory, per instance).
type FeedRegistry interface {
	GetOrCreate(quizID string) *Feed
	Get(quizID string) (*Feed, bool)
	DeleteIfEmpty(quizID string)
}

// Feed fans out refreshed statistics for one quiz to its subscribers.
type Feed struct {
	quizID      string
	mu          sync.Mutex
	subscribers map[chan domain.Statistics]struct{}
	// last is the newest snapshot handed out; submittedCount never decreases.
	last *domain.Statistics
}

// NewFeed is exported for infrastructure layers that keep feeds.
func NewFeed(quizID string) *Feed {
	return &Feed{
		quizID:      quizID,
		subscribers: make(map[chan domain.Statistics]struct{}),
	}
}

// QuizID returns the quiz this feed belongs to.
func (f *Feed) QuizID() string { return f.quizID }

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

func (f *Feed) subscribe() (chan domain.Statistics, func()) {
	ch := make(chan domain.Statistics, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			close(ch)
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

// prime sends the initial snapshot to one subscriber, or the feed's newer
// snapshot if a publish already overtook it.
func (f *Feed) prime(ch chan domain.Statistics, snapshot domain.Statistics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[ch]; !ok {
		return
	}
	if f.last != nil && f.last.SubmittedCount > snapshot.SubmittedCount {
		snapshot = *f.last
	} else {
		f.last = &snapshot
	}
	send(ch, snapshot)
}

// publish fans stats out to every subscriber unless a newer snapshot was already sent.
func (f *Feed) publish(stats domain.Statistics) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last != nil && stats.SubmittedCount < f.last.SubmittedCount {
		return
	}
	f.last = &stats
	for ch := range f.subscribers {
		send(ch, stats)
	}
}

func send(ch chan domain.Statistics, stats domain.Statistics) {
	select {
	case ch <- stats:
	default:
		// Slow subscriber: drop the oldest pending update so publishing never blocks.
		select {
		case <-ch:
		default:
		}
		ch <- stats
	}
}

package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	store := NewQuizStore()
	_ = store.CreateQuiz(context.Background(), sampleQuiz())
	counting := &countingStore{QuizRepository: store}
	cache := NewQuizCache(counting, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("expected store once, got %d", counting.calls)
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("expected cache hit, store calls %d", counting.calls)
	}
}

func TestQuizCacheEvictsOnDeactivate(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	_ = store.CreateQuiz(ctx, sampleQuiz())
	cache := NewQuizCache(store, time.Minute)

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if err := cache.DeactivateQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz after deactivate: %v", err)
	}
	if quiz.IsActive {
		t.Fatalf("expected cached copy to be evicted")
	}
}

func TestQuizCacheDoesNotCacheMisses(t *testing.T) {
	counting := &countingStore{QuizRepository: NewQuizStore()}
	cache := NewQuizCache(counting, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if counting.calls != 2 {
		t.Fatalf("expected misses to reach the store, got %d calls", counting.calls)
	}
}

type countingStore struct {
	app.QuizRepository
	calls int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.calls++
	return s.QuizRepository.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Arithmetic",
		TimeLimit: 10,
		Questions: []domain.Question{
			{
				QuestionText:  "What is 2 + 2?",
				Options:       []string{"3", "4"},
				CorrectAnswer: 1,
			},
		},
		TotalPoints:  1,
		InstructorID: "instructor-1",
		IsActive:     true,
		CreatedAt:    time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC),
	}
}

func TestQuizCacheLoadRacingDeactivateIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	_ = store.CreateQuiz(ctx, sampleQuiz())
	slow := &heldStore{QuizRepository: store, loaded: make(chan struct{}), release: make(chan struct{})}
	cache := NewQuizCache(slow, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.GetQuiz(ctx, "quiz-1")
	}()

	<-slow.loaded
	if err := cache.DeactivateQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	close(slow.release)
	<-done

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.IsActive {
		t.Fatalf("soft-deleted quiz served as active from cache")
	}
}

// heldStore returns the first quiz it reads only once release is closed.
type heldStore struct {
	app.QuizRepository
	calls   int32
	loaded  chan struct{}
	release chan struct{}
}

func (s *heldStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.QuizRepository.GetQuiz(ctx, quizID)
	if atomic.AddInt32(&s.calls, 1) == 1 {
		close(s.loaded)
		<-s.release
	}
	return quiz, err
}

package memory

import (
	"context"
	"sort"
	"sync"

	"brainbuzz/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrNotFound
	}
	return cloneQuiz(quiz), nil
}

func (s *QuizStore) ListActiveQuizzes(_ context.Context) ([]domain.Quiz, error) {
	return s.filter(func(q domain.Quiz) bool { return q.IsActive }), nil
}

func (s *QuizStore) ListInstructorQuizzes(_ context.Context, instructorID string) ([]domain.Quiz, error) {
	return s.filter(func(q domain.Quiz) bool {
		return q.IsActive && q.InstructorID == instructorID
	}), nil
}

func (s *QuizStore) DeactivateQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrNotFound
	}
	quiz.IsActive = false
	s.quizzes[quizID] = quiz
	return nil
}

func (s *QuizStore) filter(keep func(domain.Quiz) bool) []domain.Quiz {
	s.mu.RLock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if keep(q) {
			out = append(out, cloneQuiz(q))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		if question.Points != nil {
			p := *question.Points
			question.Points = &p
		}
		questions[i] = question
	}
	q.Questions = questions
	return q
}

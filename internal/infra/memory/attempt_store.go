package memory

import (
	"context"
	"sort"
	"sync"

	"brainbuzz/internal/domain"
)

type attemptKey struct {
	studentID string
	quizID    string
}

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// The (student, quiz) uniqueness check and the insert share one lock.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
	byPair   map[attemptKey]string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
		byPair:   make(map[attemptKey]string),
	}
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	key := attemptKey{studentID: attempt.StudentID, quizID: attempt.QuizID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPair[key]; ok {
		return domain.ErrDuplicateAttempt
	}
	s.byPair[key] = attempt.ID
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) HasAttempt(_ context.Context, studentID, quizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPair[attemptKey{studentID: studentID, quizID: quizID}]
	return ok, nil
}

func (s *AttemptStore) ListQuizAttempts(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.filter(func(a domain.Attempt) bool { return a.QuizID == quizID }), nil
}

func (s *AttemptStore) ListStudentAttempts(_ context.Context, studentID string) ([]domain.Attempt, error) {
	return s.filter(func(a domain.Attempt) bool { return a.StudentID == studentID }), nil
}

func (s *AttemptStore) AttemptedQuizIDs(_ context.Context, studentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for key := range s.byPair {
		if key.studentID == studentID {
			ids = append(ids, key.quizID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *AttemptStore) filter(keep func(domain.Attempt) bool) []domain.Attempt {
	s.mu.RLock()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, cloneAttempt(a))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	answers := make([]domain.AnswerDetail, len(a.Answers))
	for i, ans := range a.Answers {
		if ans.SelectedAnswer != nil {
			v := *ans.SelectedAnswer
			ans.SelectedAnswer = &v
		}
		answers[i] = ans
	}
	a.Answers = answers
	return a
}

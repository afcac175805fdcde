package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"brainbuzz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps attempts in Redis.
//
//	attempt:{attemptID}             JSON document
//	quiz:{quizID}:attempts          HASH studentID -> attemptID
//	student:{studentID}:attempts    HASH quizID -> attemptID
//
// HSETNX on the quiz hash claims the (student, quiz) pair atomically, so two
// racing submissions cannot both be stored.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	claimed, err := s.client.HSetNX(ctx, s.quizKey(attempt.QuizID), attempt.StudentID, attempt.ID).Result()
	if err != nil {
		return fmt.Errorf("claim attempt: %w", err)
	}
	if !claimed {
		return domain.ErrDuplicateAttempt
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.attemptKey(attempt.ID), data, 0)
		pipe.HSet(ctx, s.studentKey(attempt.StudentID), attempt.QuizID, attempt.ID)
		return nil
	})
	if err != nil {
		// release the claim so the student is not locked out by a failed write
		_ = s.client.HDel(ctx, s.quizKey(attempt.QuizID), attempt.StudentID).Err()
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	data, err := s.client.Get(ctx, s.attemptKey(attemptID)).Bytes()
	if isNil(err) {
		return domain.Attempt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) HasAttempt(ctx context.Context, studentID, quizID string) (bool, error) {
	return s.client.HExists(ctx, s.quizKey(quizID), studentID).Result()
}

func (s *AttemptStore) ListQuizAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	ids, err := s.client.HVals(ctx, s.quizKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *AttemptStore) ListStudentAttempts(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	ids, err := s.client.HVals(ctx, s.studentKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list student attempts: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *AttemptStore) AttemptedQuizIDs(ctx context.Context, studentID string) ([]string, error) {
	ids, err := s.client.HKeys(ctx, s.studentKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("attempted quiz ids: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// load fetches attempt documents; ids whose document is not written yet are skipped.
func (s *AttemptStore) load(ctx context.Context, ids []string) ([]domain.Attempt, error) {
	out := make([]domain.Attempt, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var attempt domain.Attempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AttemptStore) attemptKey(attemptID string) string {
	return "attempt:" + attemptID
}

func (s *AttemptStore) quizKey(quizID string) string {
	return "quiz:" + quizID + ":attempts"
}

func (s *AttemptStore) studentKey(studentID string) string {
	return "student:" + studentID + ":attempts"
}

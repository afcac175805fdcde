package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brainbuzz/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// pgUniqueViolation is the SQLSTATE raised by uq_quiz_attempts_student_quiz.
const pgUniqueViolation = "23505"

type attemptRow struct {
	bun.BaseModel `bun:"table:quiz_attempts"`

	ID          string                `bun:"id,pk"`
	StudentID   string                `bun:"student_id,notnull"`
	QuizID      string                `bun:"quiz_id,notnull"`
	Answers     []domain.AnswerDetail `bun:"answers,type:jsonb,notnull"`
	Score       int                   `bun:"score,notnull"`
	TotalPoints int                   `bun:"total_points,notnull"`
	Percentage  float64               `bun:"percentage,notnull"`
	Grade       string                `bun:"grade,notnull"`
	TimeTaken   int                   `bun:"time_taken,notnull"`
	SubmittedAt time.Time             `bun:"submitted_at,notnull"`
}

func toRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:          a.ID,
		StudentID:   a.StudentID,
		QuizID:      a.QuizID,
		Answers:     a.Answers,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  a.Percentage,
		Grade:       string(a.Grade),
		TimeTaken:   a.TimeTaken,
		SubmittedAt: a.SubmittedAt,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	answers := r.Answers
	if answers == nil {
		answers = []domain.AnswerDetail{}
	}
	return domain.Attempt{
		ID:          r.ID,
		StudentID:   r.StudentID,
		QuizID:      r.QuizID,
		Answers:     answers,
		Score:       r.Score,
		TotalPoints: r.TotalPoints,
		Percentage:  r.Percentage,
		Grade:       domain.Grade(r.Grade),
		TimeTaken:   r.TimeTaken,
		SubmittedAt: r.SubmittedAt,
	}
}

// AttemptStore keeps attempts in Postgres through bun. The (student_id, quiz_id)
// unique constraint rejects a concurrent second submission.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	_, err := s.db.NewInsert().Model(toRow(attempt)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateAttempt
	}
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) HasAttempt(ctx context.Context, studentID, quizID string) (bool, error) {
	return s.db.NewSelect().Model((*attemptRow)(nil)).
		Where("student_id = ?", studentID).
		Where("quiz_id = ?", quizID).
		Exists(ctx)
}

func (s *AttemptStore) ListQuizAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.list(ctx, "quiz_id = ?", quizID)
}

func (s *AttemptStore) ListStudentAttempts(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	return s.list(ctx, "student_id = ?", studentID)
}

func (s *AttemptStore) AttemptedQuizIDs(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().Model((*attemptRow)(nil)).
		Column("quiz_id").
		Where("student_id = ?", studentID).
		Order("quiz_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("attempted quiz ids: %w", err)
	}
	return ids, nil
}

func (s *AttemptStore) list(ctx context.Context, where string, arg string) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().Model(&rows).
		Where(where, arg).
		OrderExpr("submitted_at DESC, id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == pgUniqueViolation
}

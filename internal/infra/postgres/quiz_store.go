package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"brainbuzz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps quizzes in Postgres with the question list as JSONB.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

const quizColumns = `id, title, time_limit, questions, total_points, instructor_id, is_active, created_at`

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		quiz.ID, quiz.Title, quiz.TimeLimit, questions, quiz.TotalPoints,
		quiz.InstructorID, quiz.IsActive, quiz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, quizID)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListActiveQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.list(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE is_active ORDER BY created_at DESC, id`)
}

func (s *QuizStore) ListInstructorQuizzes(ctx context.Context, instructorID string) ([]domain.Quiz, error) {
	return s.list(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE is_active AND instructor_id=$1 ORDER BY created_at DESC, id`,
		instructorID)
}

func (s *QuizStore) DeactivateQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET is_active=FALSE WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("deactivate quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *QuizStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.TimeLimit, &raw, &quiz.TotalPoints,
		&quiz.InstructorID, &quiz.IsActive, &quiz.CreatedAt)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brainbuzz/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// QuizRepository stores quiz definitions.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	// GetQuiz returns domain.ErrNotFound when no quiz has the id, active or not.
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ListActiveQuizzes returns active quizzes, newest first.
	ListActiveQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// ListInstructorQuizzes returns the instructor's active quizzes, newest first.
	ListInstructorQuizzes(ctx context.Context, instructorID string) ([]domain.Quiz, error)
	// DeactivateQuiz soft-deletes a quiz.
	DeactivateQuiz(ctx context.Context, quizID string) error
}

// uncachedSource is implemented by quiz caches that can hand out their backing store.
type uncachedSource interface {
	Uncached() QuizRepository
}

// AttemptRepository stores scored attempts.
type AttemptRepository interface {
	// CreateAttempt must reject a second attempt for the same (student, quiz)
	// pair atomically with domain.ErrDuplicateAttempt.
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	HasAttempt(ctx context.Context, studentID, quizID string) (bool, error)
	// ListQuizAttempts returns every attempt for a quiz, newest first.
	ListQuizAttempts(ctx context.Context, quizID string) ([]domain.Attempt, error)
	// ListStudentAttempts returns every attempt by a student, newest first.
	ListStudentAttempts(ctx context.Context, studentID string) ([]domain.Attempt, error)
	AttemptedQuizIDs(ctx context.Context, studentID string) ([]string, error)
}

// QuizService contains the quiz use cases.
type QuizService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	feeds    FeedRegistry
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
}

// Option customises a QuizService.
type Option func(*QuizService)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithIDGenerator overrides uuid-based identifiers.
func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(quizzes QuizRepository, attempts AttemptRepository, feeds FeedRegistry, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes:  quizzes,
		attempts: attempts,
		feeds:    feeds,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateQuiz validates the input and stores a new active quiz owned by actor.
func (s *QuizService) CreateQuiz(ctx context.Context, actor domain.Actor, in QuizInput) (domain.Quiz, error) {
	if err := CanCreateQuiz(actor); err != nil {
		return domain.Quiz{}, err
	}
	if violations := ValidateQuiz(in); len(violations) > 0 {
		return domain.Quiz{}, domain.NewValidationError(violations)
	}

	quiz := NewQuiz(in)
	quiz.ID = s.newID()
	quiz.InstructorID = actor.UserID
	quiz.CreatedAt = s.now().UTC()

	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.log.Info().Str("quiz_id", quiz.ID).Str("instructor_id", actor.UserID).
		Int("questions", len(quiz.Questions)).Msg("quiz created")
	return quiz, nil
}

// GetQuiz returns a quiz the actor is allowed to see.
func (s *QuizService) GetQuiz(ctx context.Context, actor domain.Actor, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := CanViewQuiz(actor, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// DeleteQuiz soft-deletes a quiz owned by actor. Attempts are left untouched.
func (s *QuizService) DeleteQuiz(ctx context.Context, actor domain.Actor, quizID string) error {
	if err := CanCreateQuiz(actor); err != nil {
		return err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := CanDeleteQuiz(actor, quiz); err != nil {
		return err
	}
	if err := s.quizzes.DeactivateQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("deactivate quiz: %w", err)
	}
	s.log.Info().Str("quiz_id", quizID).Msg("quiz soft-deleted")
	return nil
}

// ListAvailableQuizzes returns active quizzes; students do not see quizzes they already took.
func (s *QuizService) ListAvailableQuizzes(ctx context.Context, actor domain.Actor) ([]domain.Quiz, error) {
	if !actor.IsStudent() {
		return s.quizzes.ListActiveQuizzes(ctx)
	}

	var (
		active    []domain.Quiz
		attempted []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.quizzes.ListActiveQuizzes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		attempted, err = s.attempts.AttemptedQuizIDs(gctx, actor.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ExcludeAttempted(active, attempted), nil
}

// ListMyQuizzes returns the instructor's own active quizzes.
func (s *QuizService) ListMyQuizzes(ctx context.Context, actor domain.Actor) ([]domain.Quiz, error) {
	if err := CanCreateQuiz(actor); err != nil {
		return nil, err
	}
	return s.quizzes.ListInstructorQuizzes(ctx, actor.UserID)
}

// SubmitAttempt scores and stores the actor's single attempt for a quiz.
func (s *QuizService) SubmitAttempt(ctx context.Context, actor domain.Actor, quizID string, answers []*int, timeTaken int) (domain.Attempt, error) {
	// isActive must come from the store itself, never from a cache that may lag a soft delete.
	source := s.quizzes
	if c, ok := source.(uncachedSource); ok {
		source = c.Uncached()
	}
	quiz, err := source.GetQuiz(ctx, quizID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Attempt{}, domain.ErrQuizUnavailable
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := CanSubmitAttempt(actor, quiz); err != nil {
		return domain.Attempt{}, err
	}

	// Fast path only; the store's uniqueness constraint is what closes the race.
	exists, err := s.attempts.HasAttempt(ctx, actor.UserID, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if exists {
		return domain.Attempt{}, domain.ErrDuplicateAttempt
	}

	if err := ValidateAnswers(quiz, answers); err != nil {
		return domain.Attempt{}, err
	}

	attempt := ScoreAttempt(quiz, answers, timeTaken)
	attempt.ID = s.newID()
	attempt.StudentID = actor.UserID
	attempt.SubmittedAt = s.now().UTC()

	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			return domain.Attempt{}, err
		}
		return domain.Attempt{}, fmt.Errorf("store attempt: %w", err)
	}
	s.log.Info().Str("quiz_id", quizID).Str("student_id", actor.UserID).
		Int("score", attempt.Score).Int("total_points", attempt.TotalPoints).
		Str("grade", string(attempt.Grade)).Msg("attempt submitted")

	s.refreshFeed(ctx, quizID)
	return attempt, nil
}

// GetAttempt returns an attempt visible to actor together with the quiz it was
// taken against. The quiz is included even after a soft delete so the attempt
// can still be reviewed question by question.
func (s *QuizService) GetAttempt(ctx context.Context, actor domain.Actor, attemptID string) (domain.AttemptDetail, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.AttemptDetail{}, err
	}
	if err := CanViewAttempt(actor, attempt); err != nil {
		return domain.AttemptDetail{}, err
	}

	detail := domain.AttemptDetail{Attempt: attempt}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	switch {
	case err == nil:
		detail.Quiz = &quiz
	case !errors.Is(err, domain.ErrNotFound):
		return domain.AttemptDetail{}, err
	}
	return detail, nil
}

// ListMyAttempts returns the actor's own attempts, newest first, each with a
// summary of its quiz.
func (s *QuizService) ListMyAttempts(ctx context.Context, actor domain.Actor) ([]domain.AttemptSummary, error) {
	attempts, err := s.attempts.ListStudentAttempts(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]*domain.QuizSummary)
	out := make([]domain.AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		summary, seen := summaries[a.QuizID]
		if !seen {
			quiz, err := s.quizzes.GetQuiz(ctx, a.QuizID)
			switch {
			case err == nil:
				summary = domain.SummarizeQuiz(quiz)
			case !errors.Is(err, domain.ErrNotFound):
				return nil, err
			}
			summaries[a.QuizID] = summary
		}
		out = append(out, domain.AttemptSummary{Attempt: a, Quiz: summary})
	}
	return out, nil
}

// QuizResults returns the quiz, its attempts and their statistics to the owning instructor.
func (s *QuizService) QuizResults(ctx context.Context, actor domain.Actor, quizID string) (domain.QuizResults, error) {
	var (
		quiz     domain.Quiz
		attempts []domain.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.quizzes.GetQuiz(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		attempts, err = s.attempts.ListQuizAttempts(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QuizResults{}, err
	}
	if err := CanViewResults(actor, quiz); err != nil {
		return domain.QuizResults{}, err
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	return domain.QuizResults{
		Quiz:       quiz,
		Attempts:   attempts,
		Statistics: ComputeStatistics(attempts),
	}, nil
}

// WatchResults subscribes the owning instructor to live statistics for a quiz.
// The first value is the current snapshot. The caller must invoke cancel.
func (s *QuizService) WatchResults(ctx context.Context, actor domain.Actor, quizID string) (<-chan domain.Statistics, func(), error) {
	feed := s.feeds.GetOrCreate(quizID)
	ch, unsubscribe := feed.subscribe()
	cancel := func() {
		unsubscribe()
		s.feeds.DeleteIfEmpty(quizID)
	}

	// Subscribed before the snapshot is read, so a submission landing in
	// between is either in the snapshot or published to ch afterwards.
	results, err := s.QuizResults(ctx, actor, quizID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	feed.prime(ch, results.Statistics)
	return ch, cancel, nil
}

func (s *QuizService) refreshFeed(ctx context.Context, quizID string) {
	feed, ok := s.feeds.Get(quizID)
	if !ok || feed.IsEmpty() {
		return
	}
	attempts, err := s.attempts.ListQuizAttempts(ctx, quizID)
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID).Msg("results feed refresh failed")
		return
	}
	feed.publish(ComputeStatistics(attempts))
}

package domain

import "time"

// Role distinguishes the two kinds of authenticated users.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsInstructor() bool { return a.Role == RoleInstructor }
func (a Actor) IsStudent() bool    { return a.Role == RoleStudent }

// Question models an MCQ question with exactly one correct option.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        *int     `json:"points,omitempty"` // nil means 1
}

// Quiz is an instructor-owned collection of questions.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	TimeLimit    int        `json:"timeLimit"` // minutes
	Questions    []Question `json:"questions"`
	TotalPoints  int        `json:"totalPoints"`
	InstructorID string     `json:"instructorId"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Grade is the letter derived from an attempt percentage.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeP Grade = "P"
	GradeF Grade = "F"
)

// AnswerDetail is the per-question outcome of an attempt.
// SelectedAnswer is nil when the question was left unanswered.
type AnswerDetail struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer *int `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
}

// Attempt is a student's single scored submission for a quiz.
type Attempt struct {
	ID          string         `json:"id"`
	StudentID   string         `json:"studentId"`
	QuizID      string         `json:"quizId"`
	Answers     []AnswerDetail `json:"answers"`
	Score       int            `json:"score"`
	TotalPoints int            `json:"totalPoints"`
	Percentage  float64        `json:"percentage"`
	Grade       Grade          `json:"grade"`
	TimeTaken   int            `json:"timeTaken"` // minutes
	SubmittedAt time.Time      `json:"submittedAt"`
}

// Statistics aggregates all attempts of one quiz.
type Statistics struct {
	SubmittedCount int            `json:"submittedCount"`
	AverageScore   float64        `json:"averageScore"`
	ScoreBuckets   map[string]int `json:"scoreBuckets"`
}

// QuizResults is the instructor's view of a quiz and everything submitted for it.
type QuizResults struct {
	Quiz       Quiz       `json:"quiz"`
	Attempts   []Attempt  `json:"attempts"`
	Statistics Statistics `json:"statistics"`
}

// QuizSummary is the part of a quiz shown next to an attempt in a listing.
type QuizSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	TimeLimit   int    `json:"timeLimit"`
	TotalPoints int    `json:"totalPoints"`
	IsActive    bool   `json:"isActive"`
}

func SummarizeQuiz(q Quiz) *QuizSummary {
	return &QuizSummary{
		ID:          q.ID,
		Title:       q.Title,
		TimeLimit:   q.TimeLimit,
		TotalPoints: q.TotalPoints,
		IsActive:    q.IsActive,
	}
}

// AttemptDetail is an attempt with the full quiz it was taken against, for review.
// Quiz is nil only if the quiz record no longer exists at all.
type AttemptDetail struct {
	Attempt
	Quiz *Quiz `json:"quiz,omitempty"`
}

// AttemptSummary is an attempt with a summary of its quiz.
type AttemptSummary struct {
	Attempt
	Quiz *QuizSummary `json:"quiz,omitempty"`
}

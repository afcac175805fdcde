package app

import (
	"fmt"

	"brainbuzz/internal/domain"
)

// gradeThresholds is evaluated top-down; the first floor the percentage reaches wins.
var gradeThresholds = []struct {
	floor float64
	grade domain.Grade
}{
	{90, domain.GradeS},
	{80, domain.GradeA},
	{70, domain.GradeB},
	{60, domain.GradeC},
	{50, domain.GradeD},
	{40, domain.GradeE},
	{35, domain.GradeP},
}

// ResolvePoints returns the weight of a question; unset points count as 1.
func ResolvePoints(q domain.Question) int {
	if q.Points == nil {
		return 1
	}
	return *q.Points
}

// TotalPoints sums the resolved points of every question.
func TotalPoints(questions []domain.Question) int {
	total := 0
	for _, q := range questions {
		total += ResolvePoints(q)
	}
	return total
}

// Percentage is score/total*100, or 0 when there is nothing to score.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// GradeFor maps a percentage onto the letter scale S, A, B, C, D, E, P, F.
func GradeFor(percentage float64) domain.Grade {
	for _, t := range gradeThresholds {
		if percentage >= t.floor {
			return t.grade
		}
	}
	return domain.GradeF
}

// ValidateAnswers rejects selected indexes that point outside a question's options.
// Answers beyond the last question are ignored by scoring and not checked here.
func ValidateAnswers(quiz domain.Quiz, answers []*int) error {
	var violations []domain.Violation
	for i, q := range quiz.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if sel := *answers[i]; sel < 0 || sel >= len(q.Options) {
			idx := i
			violations = append(violations, domain.Violation{
				Field:         fmt.Sprintf("answers[%d]", i),
				QuestionIndex: &idx,
				Message:       fmt.Sprintf("selected answer %d is not a valid option", sel),
			})
		}
	}
	if len(violations) > 0 {
		return domain.NewValidationError(violations)
	}
	return nil
}

// ScoreAttempt grades answers against quiz. Missing answers count as unanswered.
// The returned attempt has no ID, student or submission time; callers fill those in.
func ScoreAttempt(quiz domain.Quiz, answers []*int, timeTaken int) domain.Attempt {
	score, total := 0, 0
	details := make([]domain.AnswerDetail, 0, len(quiz.Questions))

	for i, q := range quiz.Questions {
		points := ResolvePoints(q)
		total += points

		var selected *int
		if i < len(answers) && answers[i] != nil {
			v := *answers[i]
			selected = &v
		}
		correct := selected != nil && *selected == q.CorrectAnswer
		if correct {
			score += points
		}
		details = append(details, domain.AnswerDetail{
			QuestionIndex:  i,
			SelectedAnswer: selected,
			IsCorrect:      correct,
		})
	}

	if timeTaken < 0 {
		timeTaken = 0
	}
	percentage := Percentage(score, total)
	return domain.Attempt{
		QuizID:      quiz.ID,
		Answers:     details,
		Score:       score,
		TotalPoints: total,
		Percentage:  percentage,
		Grade:       GradeFor(percentage),
		TimeTaken:   timeTaken,
	}
}

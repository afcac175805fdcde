package app

import (
	"fmt"
	"reflect"
	"strings"

	"brainbuzz/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// QuizInput is the instructor-supplied payload for a new quiz.
type QuizInput struct {
	Title     string          `json:"title" validate:"notblank"`
	TimeLimit int             `json:"timeLimit" validate:"gt=0"`
	Questions []QuestionInput `json:"questions" validate:"min=1"`
}

// QuestionInput is one question of a QuizInput.
type QuestionInput struct {
	QuestionText  string   `json:"questionText" validate:"notblank"`
	Options       []string `json:"options" validate:"min=2,max=6,dive,notblank"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required"`
	Points        *int     `json:"points,omitempty" validate:"omitempty,gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateQuiz checks a quiz payload and returns every violation found.
// An empty result means the input is acceptable.
func ValidateQuiz(in QuizInput) []domain.Violation {
	var out []domain.Violation
	out = append(out, violationsOf(validate.Struct(in), nil)...)

	for i := range in.Questions {
		idx := i
		q := in.Questions[i]
		found := violationsOf(validate.Struct(q), &idx)
		if q.CorrectAnswer != nil && len(q.Options) > 0 {
			if ca := *q.CorrectAnswer; ca < 0 || ca >= len(q.Options) {
				found = append(found, domain.Violation{
					Field:         "correctAnswer",
					QuestionIndex: &idx,
					Message:       "has invalid correct answer index",
				})
			}
		}
		for j := range found {
			found[j].Field = fmt.Sprintf("questions[%d].%s", i, found[j].Field)
		}
		out = append(out, found...)
	}
	return out
}

func violationsOf(err error, questionIndex *int) []domain.Violation {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []domain.Violation{{Field: "input", QuestionIndex: questionIndex, Message: err.Error()}}
	}

	out := make([]domain.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.Violation{
			Field:         fe.Field(),
			QuestionIndex: questionIndex,
			Message:       messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "questions":
		return "no questions have been added"
	case "options":
		return "must have between 2 and 6 options"
	case "timeLimit":
		return "must be greater than zero"
	case "correctAnswer":
		return "is missing correct answer"
	}
	switch fe.Tag() {
	case "notblank", "required":
		if strings.HasPrefix(fe.Field(), "options[") {
			return "must not be empty"
		}
		return "is required"
	case "gte":
		return "must not be negative"
	}
	return "is invalid"
}

// NewQuiz builds a quiz from validated input with totalPoints derived.
func NewQuiz(in QuizInput) domain.Quiz {
	questions := make([]domain.Question, 0, len(in.Questions))
	for _, q := range in.Questions {
		options := make([]string, len(q.Options))
		for i, o := range q.Options {
			options[i] = strings.TrimSpace(o)
		}
		var points *int
		if q.Points != nil {
			p := *q.Points
			points = &p
		}
		questions = append(questions, domain.Question{
			QuestionText:  strings.TrimSpace(q.QuestionText),
			Options:       options,
			CorrectAnswer: *q.CorrectAnswer,
			Points:        points,
		})
	}
	return domain.Quiz{
		Title:       strings.TrimSpace(in.Title),
		TimeLimit:   in.TimeLimit,
		Questions:   questions,
		TotalPoints: TotalPoints(questions),
		IsActive:    true,
	}
}

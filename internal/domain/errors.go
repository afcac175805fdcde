package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation is wrapped by *ValidationError for errors.Is checks.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both missing entities and ones the caller may not know exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateAttempt is returned when a student already holds an attempt for the quiz.
	ErrDuplicateAttempt = errors.New("quiz already attempted; each quiz can only be taken once")
	// ErrQuizUnavailable indicates the quiz is missing or soft-deleted at submission time.
	ErrQuizUnavailable = errors.New("quiz no longer exists")
	// ErrUnauthenticated is returned when no valid identity accompanies a request.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Violation describes one offending input field.
type Violation struct {
	Field         string `json:"field"`
	QuestionIndex *int   `json:"questionIndex,omitempty"`
	Message       string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// ValidationError carries every violation found in a caller's input.
type ValidationError struct {
	Violations []Violation
}

func NewValidationError(violations []Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

package app

import "brainbuzz/internal/domain"

// CanCreateQuiz allows instructors only.
func CanCreateQuiz(actor domain.Actor) error {
	if !actor.IsInstructor() {
		return domain.ErrForbidden
	}
	return nil
}

// CanDeleteQuiz allows the owning instructor only.
func CanDeleteQuiz(actor domain.Actor, quiz domain.Quiz) error {
	if !actor.IsInstructor() || quiz.InstructorID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// CanViewQuiz lets the owner see a quiz regardless of isActive. Everyone else
// gets ErrNotFound for an inactive quiz so its existence is not leaked.
func CanViewQuiz(actor domain.Actor, quiz domain.Quiz) error {
	if actor.IsInstructor() && quiz.InstructorID == actor.UserID {
		return nil
	}
	if !quiz.IsActive {
		return domain.ErrNotFound
	}
	return nil
}

// CanSubmitAttempt requires a student and an active quiz.
func CanSubmitAttempt(actor domain.Actor, quiz domain.Quiz) error {
	if !actor.IsStudent() {
		return domain.ErrForbidden
	}
	if !quiz.IsActive {
		return domain.ErrQuizUnavailable
	}
	return nil
}

// CanViewAttempt allows the attempt's own student or any instructor.
func CanViewAttempt(actor domain.Actor, attempt domain.Attempt) error {
	if attempt.StudentID == actor.UserID || actor.IsInstructor() {
		return nil
	}
	return domain.ErrForbidden
}

// CanViewResults allows only the quiz's owning instructor.
func CanViewResults(actor domain.Actor, quiz domain.Quiz) error {
	if !actor.IsInstructor() || quiz.InstructorID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}

// ExcludeAttempted drops quizzes whose id is in attempted, preserving order.
func ExcludeAttempted(quizzes []domain.Quiz, attempted []string) []domain.Quiz {
	if len(attempted) == 0 {
		return quizzes
	}
	seen := make(map[string]struct{}, len(attempted))
	for _, id := range attempted {
		seen[id] = struct{}{}
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		out = append(out, q)
	}
	return out
}

package domain

import "errors"

var (
	// ErrNoContentAvailable is returned when no resources match a subject and
	// difficulty ceiling; quiz generation cannot proceed without grounding content.
	ErrNoContentAvailable = errors.New("no content available for subject")
	// ErrGenerationFailed indicates the text-generation capability errored or
	// produced fewer usable questions than requested.
	ErrGenerationFailed = errors.New("quiz generation failed")
	// ErrInvalidQuestionSchema indicates the generated payload did not satisfy
	// the question schema after the single repair attempt.
	ErrInvalidQuestionSchema = errors.New("generated questions failed schema validation")
	// ErrEvaluationFailed indicates the judgment capability was unreachable or
	// returned an unparseable verdict.
	ErrEvaluationFailed = errors.New("answer evaluation failed")
	// ErrPersistenceFailed indicates a durable write was lost; in-memory results
	// remain presentable to the learner.
	ErrPersistenceFailed = errors.New("failed to persist quiz results")

	// ErrQuizCompleted is returned for operations on a quiz already in its terminal state.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrQuestionAnswered is returned when re-submitting an already answered question.
	ErrQuestionAnswered = errors.New("question already answered")
	// ErrQuestionUnanswered is returned when advancing past an unanswered question.
	ErrQuestionUnanswered = errors.New("current question not answered yet")
	// ErrSessionNotFound is returned when a learner has no active quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
)

package app

import (
	"context"
	"sync"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/evaluator"
)

// FeedbackTimeExpired is written into every question left unanswered when the
// time budget runs out.
const FeedbackTimeExpired = "Time expired before this question was answered."

// Session owns one learner's in-progress quiz attempt. All mutation goes
// through the session mutex; the mutex is held for the duration of an
// open-answer evaluation call, so a timeout expiry firing mid-evaluation
// waits and then observes the already-answered question. The completed flag
// guarantees at most one terminal transition.
type Session struct {
	learnerID      string
	educationLevel string
	quiz           *domain.Quiz
	eval           *evaluator.Evaluator
	clock          func() time.Time
	deadline       time.Time

	mu        sync.Mutex
	finalized bool
}

// NewSession opens a session over a freshly generated quiz.
func NewSession(learnerID, educationLevel string, quiz *domain.Quiz, eval *evaluator.Evaluator, clock func() time.Time, timeLimit time.Duration) *Session {
	return &Session{
		learnerID:      learnerID,
		educationLevel: educationLevel,
		quiz:           quiz,
		eval:           eval,
		clock:          clock,
		deadline:       quiz.StartedAt.Add(timeLimit),
	}
}

// LearnerID returns the owning learner.
func (s *Session) LearnerID() string { return s.learnerID }

// Deadline returns the instant at which the quiz expires.
func (s *Session) Deadline() time.Time { return s.deadline }

// Quiz returns a snapshot copy of the quiz, safe to read concurrently.
func (s *Session) Quiz() domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Quiz {
	q := *s.quiz
	q.Questions = make([]domain.Question, len(s.quiz.Questions))
	copy(q.Questions, s.quiz.Questions)
	return q
}

// Current returns a copy of the active question and its index.
func (s *Session) Current() (domain.Question, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz.Questions[s.quiz.CurrentIndex], s.quiz.CurrentIndex
}

// Completed reports whether the quiz reached its terminal state.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz.Completed
}

// SubmitAnswer grades the response and writes response, correctness, score
// and feedback to the current question in one step. Answered questions are
// immutable: re-submission returns ErrQuestionAnswered.
func (s *Session) SubmitAnswer(ctx context.Context, response string) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz.Completed {
		return domain.Question{}, domain.ErrQuizCompleted
	}
	q := &s.quiz.Questions[s.quiz.CurrentIndex]
	if q.Answered() {
		return domain.Question{}, domain.ErrQuestionAnswered
	}

	switch q.Type {
	case domain.OpenEnded:
		verdict, err := s.eval.EvaluateOpen(ctx, q.Prompt, q.Answer, response)
		if err != nil {
			return domain.Question{}, err
		}
		score := verdict.Score
		q.Response = &response
		q.Correct = &verdict.Correct
		q.Score = &score
		q.Feedback = verdict.Feedback
	default:
		verdict := evaluator.EvaluateClosed(*q, response)
		q.Response = &response
		q.Correct = &verdict.Correct
		q.Feedback = verdict.Feedback
	}

	return *q, nil
}

// Advance moves to the next question, or completes the quiz when the current
// question is the last. It requires the current question to be answered.
// The returned flag is true when this call performed the terminal transition.
func (s *Session) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz.Completed {
		return false, domain.ErrQuizCompleted
	}
	if !s.quiz.Questions[s.quiz.CurrentIndex].Answered() {
		return false, domain.ErrQuestionUnanswered
	}
	if s.quiz.CurrentIndex == len(s.quiz.Questions)-1 {
		s.completeLocked()
		return true, nil
	}
	s.quiz.CurrentIndex++
	return false, nil
}

// Retreat moves back one question. It never alters question state; prior
// feedback stays intact for re-display. A retreat at index 0 is a no-op.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz.Completed || s.quiz.CurrentIndex == 0 {
		return
	}
	s.quiz.CurrentIndex--
}

// ExpireByTimeout marks every still-unanswered question as answered with an
// empty response and fixed feedback, then completes the quiz. Calling it on
// an already-completed quiz has no effect; the return value is true only for
// the call that performed the terminal transition.
func (s *Session) ExpireByTimeout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiz.Completed {
		return false
	}
	for i := range s.quiz.Questions {
		q := &s.quiz.Questions[i]
		if q.Answered() {
			continue
		}
		empty := ""
		incorrect := false
		q.Response = &empty
		q.Correct = &incorrect
		q.Feedback = FeedbackTimeExpired
	}
	s.completeLocked()
	return true
}

func (s *Session) completeLocked() {
	score := s.quiz.AggregateScore()
	now := s.clock()
	s.quiz.Score = &score
	s.quiz.Completed = true
	s.quiz.FinishedAt = &now
}

// finalizeOnce reports true exactly once after completion, gating the
// progression engine handoff.
func (s *Session) finalizeOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.quiz.Completed || s.finalized {
		return false
	}
	s.finalized = true
	return true
}

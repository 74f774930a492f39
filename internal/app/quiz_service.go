// Package app contains the core quiz use cases: starting an attempt,
// driving the question loop, and handing completed quizzes to the
// progression engine.
package app

import (
	"context"
	"fmt"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/evaluator"
	"adaptive-quiz-service/internal/generator"
	"adaptive-quiz-service/internal/progression"
)

// SessionRepository tracks each learner's single active session. Putting a
// new session for a learner discards the previous one.
type SessionRepository interface {
	Put(learnerID string, session *Session)
	Get(learnerID string) (*Session, bool)
	Delete(learnerID string)
}

// Settings carries the quiz-flow tunables.
type Settings struct {
	QuestionsPerQuiz int
	TimeLimit        time.Duration
	Language         string
}

func (s Settings) withDefaults() Settings {
	if s.QuestionsPerQuiz <= 0 {
		s.QuestionsPerQuiz = 10
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = 30 * time.Minute
	}
	return s
}

// QuizService wires the selector, generator, evaluator and progression
// engine into the learner-facing quiz flow.
type QuizService struct {
	sessions  SessionRepository
	selector  *generator.Selector
	generator *generator.Generator
	evaluator *evaluator.Evaluator
	engine    *progression.Engine
	settings  Settings
	clock     func() time.Time
}

// NewQuizService creates the quiz service.
func NewQuizService(sessions SessionRepository, sel *generator.Selector, gen *generator.Generator, eval *evaluator.Evaluator, engine *progression.Engine, settings Settings) *QuizService {
	return &QuizService{
		sessions:  sessions,
		selector:  sel,
		generator: gen,
		evaluator: eval,
		engine:    engine,
		settings:  settings.withDefaults(),
		clock:     time.Now,
	}
}

// StartQuiz generates a quiz and opens a session for the learner, discarding
// any prior in-memory session. A difficulty of 0 means "suggest one":
// the learner's unlocked level for the subject. Requests above the unlocked
// level are clamped down to it.
func (s *QuizService) StartQuiz(ctx context.Context, learnerID, educationLevel, subject string, difficulty int) (*Session, error) {
	unlocked := s.engine.SuggestedDifficulty(ctx, learnerID, subject)
	if difficulty <= 0 || difficulty > unlocked {
		difficulty = unlocked
	}

	resources, err := s.selector.Select(ctx, subject, difficulty)
	if err != nil {
		return nil, err
	}

	quiz, err := s.generator.Generate(ctx, generator.Request{
		Subject:       subject,
		Difficulty:    difficulty,
		Resources:     resources,
		QuestionCount: s.settings.QuestionsPerQuiz,
		Language:      s.settings.Language,
	})
	if err != nil {
		return nil, err
	}

	session := NewSession(learnerID, educationLevel, quiz, s.evaluator, s.clock, s.settings.TimeLimit)
	s.sessions.Put(learnerID, session)
	return session, nil
}

// Session returns the learner's active session.
func (s *QuizService) Session(learnerID string) (*Session, error) {
	session, ok := s.sessions.Get(learnerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// CompleteQuiz hands a completed session to the progression engine exactly
// once and drops the session. The record and progression snapshot are valid
// even when err wraps ErrPersistenceFailed; callers surface that as a
// non-blocking warning.
func (s *QuizService) CompleteQuiz(ctx context.Context, session *Session) (domain.PerformanceRecord, domain.SubjectProgress, error) {
	if !session.finalizeOnce() {
		return domain.PerformanceRecord{}, domain.SubjectProgress{}, fmt.Errorf("quiz for learner %s is not ready to finalize", session.LearnerID())
	}
	defer s.sessions.Delete(session.LearnerID())

	return s.engine.Complete(ctx, session.LearnerID(), session.educationLevel, session.Quiz())
}

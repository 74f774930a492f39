// Package progression turns completed quizzes into durable performance
// records and per-subject unlock state.
package progression

import (
	"context"
	"fmt"
	"math"

	"adaptive-quiz-service/internal/domain"
)

// Store persists performance records and learner progression state.
// UpdateProgression must run its callback under atomic read-modify-write
// semantics: the history passed in reflects all of the learner's records for
// the subject at update time, and the mutated progress is written back in
// the same critical section or transaction.
type Store interface {
	AppendPerformanceRecord(ctx context.Context, rec domain.PerformanceRecord) error
	ReadProgression(ctx context.Context, learnerID, subject string) (domain.SubjectProgress, bool, error)
	UpdateProgression(ctx context.Context, learnerID, subject string, fn func(p *domain.SubjectProgress, history []domain.PerformanceRecord) error) (domain.SubjectProgress, error)
}

// Config carries the engine's tunables.
type Config struct {
	PassThreshold      int  // percent, attempts at or above it pass
	MaxDifficulty      int  // unlock ceiling
	EnableGamification bool // when false, unlock levels never change
}

// Engine computes quiz outcomes and applies the gamification rules.
type Engine struct {
	store Store
	cfg   Config
}

// NewEngine creates a progression engine.
func NewEngine(store Store, cfg Config) *Engine {
	if cfg.PassThreshold <= 0 {
		cfg.PassThreshold = 70
	}
	if cfg.MaxDifficulty <= 0 {
		cfg.MaxDifficulty = domain.MaxDifficulty
	}
	return &Engine{store: store, cfg: cfg}
}

// Complete records the outcome of a completed quiz and updates the learner's
// per-subject progression. It is invoked exactly once per completed quiz.
// A failed durable write is reported as ErrPersistenceFailed, but the record
// and a best-effort progression snapshot are still returned so the learner's
// result stays presentable.
func (e *Engine) Complete(ctx context.Context, learnerID, educationLevel string, quiz domain.Quiz) (domain.PerformanceRecord, domain.SubjectProgress, error) {
	if !quiz.Completed || quiz.Score == nil || quiz.FinishedAt == nil {
		return domain.PerformanceRecord{}, domain.SubjectProgress{}, fmt.Errorf("quiz %s is not completed", quiz.ID)
	}

	rec := domain.PerformanceRecord{
		LearnerID:      learnerID,
		Subject:        quiz.Subject,
		Difficulty:     quiz.Difficulty,
		EducationLevel: educationLevel,
		Score:          *quiz.Score,
		Passed:         *quiz.Score >= e.cfg.PassThreshold,
		TotalQuestions: quiz.TotalQuestions,
		CorrectCount:   quiz.CorrectCount(),
		StartedAt:      quiz.StartedAt,
		FinishedAt:     *quiz.FinishedAt,
	}

	var persistErr error
	if err := e.store.AppendPerformanceRecord(ctx, rec); err != nil {
		persistErr = fmt.Errorf("%w: append record: %v", domain.ErrPersistenceFailed, err)
	}

	progress, err := e.store.UpdateProgression(ctx, learnerID, quiz.Subject, func(p *domain.SubjectProgress, history []domain.PerformanceRecord) error {
		e.apply(p, rec, history)
		return nil
	})
	if err != nil {
		if persistErr == nil {
			persistErr = fmt.Errorf("%w: update progression: %v", domain.ErrPersistenceFailed, err)
		}
		// Best-effort snapshot so the learner still sees where they stand.
		progress, _, _ = e.store.ReadProgression(ctx, learnerID, quiz.Subject)
		if progress.UnlockedLevel == 0 {
			progress = domain.NewSubjectProgress()
		}
		e.apply(&progress, rec, nil)
	}

	return rec, progress, persistErr
}

// SuggestedDifficulty returns the learner's unlocked level for the subject,
// defaulting to 1 when no progression state exists yet.
func (e *Engine) SuggestedDifficulty(ctx context.Context, learnerID, subject string) int {
	progress, ok, err := e.store.ReadProgression(ctx, learnerID, subject)
	if err != nil || !ok {
		return domain.MinDifficulty
	}
	return progress.UnlockedLevel
}

// apply mutates p with the outcome of rec. The unlocked level advances by
// exactly one when the attempt was at the current unlock, passed, and the
// ceiling is not yet reached; it never decreases and never skips.
func (e *Engine) apply(p *domain.SubjectProgress, rec domain.PerformanceRecord, history []domain.PerformanceRecord) {
	if e.cfg.EnableGamification &&
		rec.Passed &&
		rec.Difficulty == p.UnlockedLevel &&
		p.UnlockedLevel < e.cfg.MaxDifficulty {
		p.UnlockedLevel++
	}

	p.AverageScore = rollingAverage(rec, history)
	p.LastScore = rec.Score
	p.LastAttemptAt = rec.FinishedAt
}

// rollingAverage is the mean of all of the learner's records for the
// subject, rounded to the nearest integer. When the history is unavailable
// (durable write lost) the new record stands alone.
func rollingAverage(rec domain.PerformanceRecord, history []domain.PerformanceRecord) int {
	if len(history) == 0 {
		return rec.Score
	}
	total := 0
	for _, h := range history {
		total += h.Score
	}
	return int(math.Round(float64(total) / float64(len(history))))
}

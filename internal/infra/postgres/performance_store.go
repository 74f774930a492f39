package postgres

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PerformanceStore persists performance records and per-subject progression.
// UpdateProgression runs its callback inside a transaction holding a row lock
// on the progression row, so concurrent completions for the same learner and
// subject serialize.
type PerformanceStore struct {
	pool *pgxpool.Pool
}

func NewPerformanceStore(pool *pgxpool.Pool) *PerformanceStore {
	return &PerformanceStore{pool: pool}
}

func (s *PerformanceStore) AppendPerformanceRecord(ctx context.Context, rec domain.PerformanceRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO performance_records
		 (learner_id, subject, difficulty, education_level, score, passed, total_questions, correct_count, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.LearnerID, rec.Subject, rec.Difficulty, rec.EducationLevel,
		rec.Score, rec.Passed, rec.TotalQuestions, rec.CorrectCount,
		rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert performance record: %w", err)
	}
	return nil
}

func (s *PerformanceStore) ReadProgression(ctx context.Context, learnerID, subject string) (domain.SubjectProgress, bool, error) {
	var p domain.SubjectProgress
	err := s.pool.QueryRow(ctx,
		`SELECT unlocked_level, average_score, last_score, COALESCE(last_attempt_at, 'epoch'::timestamptz)
		 FROM learner_progression
		 WHERE learner_id = $1 AND subject = $2`,
		learnerID, subject).Scan(&p.UnlockedLevel, &p.AverageScore, &p.LastScore, &p.LastAttemptAt)
	if err == pgx.ErrNoRows {
		return domain.SubjectProgress{}, false, nil
	}
	if err != nil {
		return domain.SubjectProgress{}, false, fmt.Errorf("read progression: %w", err)
	}
	return p, true, nil
}

func (s *PerformanceStore) UpdateProgression(ctx context.Context, learnerID, subject string, fn func(p *domain.SubjectProgress, history []domain.PerformanceRecord) error) (domain.SubjectProgress, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.SubjectProgress{}, fmt.Errorf("begin progression update: %w", err)
	}
	defer tx.Rollback(ctx)

	// Establish the row first so FOR UPDATE has something to lock.
	if _, err := tx.Exec(ctx,
		`INSERT INTO learner_progression (learner_id, subject)
		 VALUES ($1, $2)
		 ON CONFLICT (learner_id, subject) DO NOTHING`,
		learnerID, subject); err != nil {
		return domain.SubjectProgress{}, fmt.Errorf("init progression row: %w", err)
	}

	var p domain.SubjectProgress
	if err := tx.QueryRow(ctx,
		`SELECT unlocked_level, average_score, last_score, COALESCE(last_attempt_at, 'epoch'::timestamptz)
		 FROM learner_progression
		 WHERE learner_id = $1 AND subject = $2
		 FOR UPDATE`,
		learnerID, subject).Scan(&p.UnlockedLevel, &p.AverageScore, &p.LastScore, &p.LastAttemptAt); err != nil {
		return domain.SubjectProgress{}, fmt.Errorf("lock progression row: %w", err)
	}

	history, err := readHistory(ctx, tx, learnerID, subject)
	if err != nil {
		return domain.SubjectProgress{}, err
	}

	if err := fn(&p, history); err != nil {
		return domain.SubjectProgress{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE learner_progression
		 SET unlocked_level = $3, average_score = $4, last_score = $5, last_attempt_at = $6
		 WHERE learner_id = $1 AND subject = $2`,
		learnerID, subject, p.UnlockedLevel, p.AverageScore, p.LastScore, p.LastAttemptAt); err != nil {
		return domain.SubjectProgress{}, fmt.Errorf("write progression: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SubjectProgress{}, fmt.Errorf("commit progression update: %w", err)
	}
	return p, nil
}

func readHistory(ctx context.Context, tx pgx.Tx, learnerID, subject string) ([]domain.PerformanceRecord, error) {
	rows, err := tx.Query(ctx,
		`SELECT learner_id, subject, difficulty, education_level, score, passed, total_questions, correct_count, started_at, finished_at
		 FROM performance_records
		 WHERE learner_id = $1 AND subject = $2
		 ORDER BY finished_at ASC`,
		learnerID, subject)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.PerformanceRecord
	for rows.Next() {
		var rec domain.PerformanceRecord
		if err := rows.Scan(&rec.LearnerID, &rec.Subject, &rec.Difficulty, &rec.EducationLevel,
			&rec.Score, &rec.Passed, &rec.TotalQuestions, &rec.CorrectCount,
			&rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// PerformanceStore is an in-memory implementation of progression.Store.
// UpdateProgression runs its callback under the store mutex, giving the
// atomic read-modify-write the progression engine requires.
type PerformanceStore struct {
	mu          sync.Mutex
	records     []domain.PerformanceRecord
	progression map[string]map[string]domain.SubjectProgress // learnerID -> subject -> progress
}

func NewPerformanceStore() *PerformanceStore {
	return &PerformanceStore{
		progression: make(map[string]map[string]domain.SubjectProgress),
	}
}

func (s *PerformanceStore) AppendPerformanceRecord(_ context.Context, rec domain.PerformanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *PerformanceStore) ReadProgression(_ context.Context, learnerID, subject string) (domain.SubjectProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progression[learnerID][subject]
	return p, ok, nil
}

func (s *PerformanceStore) UpdateProgression(_ context.Context, learnerID, subject string, fn func(p *domain.SubjectProgress, history []domain.PerformanceRecord) error) (domain.SubjectProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progression[learnerID][subject]
	if !ok {
		p = domain.NewSubjectProgress()
	}

	history := make([]domain.PerformanceRecord, 0)
	for _, rec := range s.records {
		if rec.LearnerID == learnerID && rec.Subject == subject {
			history = append(history, rec)
		}
	}

	if err := fn(&p, history); err != nil {
		return domain.SubjectProgress{}, err
	}

	if s.progression[learnerID] == nil {
		s.progression[learnerID] = make(map[string]domain.SubjectProgress)
	}
	s.progression[learnerID][subject] = p
	return p, nil
}

// Records returns a copy of all stored performance records.
func (s *PerformanceStore) Records() []domain.PerformanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PerformanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

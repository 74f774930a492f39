// Package postgres holds the durable stores backing resource selection and
// learner progression.
package postgres

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResourceStore reads curated content resources from Postgres.
type ResourceStore struct {
	pool *pgxpool.Pool
}

func NewResourceStore(pool *pgxpool.Pool) *ResourceStore {
	return &ResourceStore{pool: pool}
}

// FetchResources returns up to limit resources for the subject at or below
// maxDifficulty, hardest first with ties broken by id.
func (s *ResourceStore) FetchResources(ctx context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, subject, difficulty, locator, language
		 FROM resources
		 WHERE subject = $1 AND difficulty <= $2
		 ORDER BY difficulty DESC, id ASC
		 LIMIT $3`,
		subject, maxDifficulty, limit)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		var r domain.Resource
		if err := rows.Scan(&r.ID, &r.Subject, &r.Difficulty, &r.Locator, &r.Language); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}

package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// PatternStore persists anonymized causal patterns, keyed by their pattern
// string.
type PatternStore struct {
	db *DB
}

// NewPatternStore creates a new pattern store
func NewPatternStore(db *DB) *PatternStore {
	return &PatternStore{db: db}
}

// Upsert inserts a pattern or folds a new observation into an existing row.
func (s *PatternStore) Upsert(ctx context.Context, p *core.CausalPattern) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.ObservationCount < 1 {
		p.ObservationCount = 1
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO causal_patterns (pattern, strength, observation_count, demographic_bucket, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern) DO UPDATE SET
		    strength = excluded.strength,
		    observation_count = excluded.observation_count,
		    demographic_bucket = excluded.demographic_bucket,
		    updated_at = excluded.updated_at
	`, p.Pattern, p.Strength, p.ObservationCount, p.DemographicBucket, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}

	return s.db.conn.QueryRowContext(ctx,
		"SELECT id FROM causal_patterns WHERE pattern = ?", p.Pattern).Scan(&p.ID)
}

// GetByPattern returns a pattern by its key, or core.ErrRecordNotFound.
func (s *PatternStore) GetByPattern(ctx context.Context, pattern string) (*core.CausalPattern, error) {
	p := &core.CausalPattern{}
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, pattern, strength, observation_count, demographic_bucket, created_at, updated_at
		FROM causal_patterns WHERE pattern = ?
	`, pattern).Scan(&p.ID, &p.Pattern, &p.Strength, &p.ObservationCount,
		&p.DemographicBucket, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// All returns every pattern, in insertion order.
func (s *PatternStore) All(ctx context.Context) ([]core.CausalPattern, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, pattern, strength, observation_count, demographic_bucket, created_at, updated_at
		FROM causal_patterns
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []core.CausalPattern
	for rows.Next() {
		var p core.CausalPattern
		if err := rows.Scan(&p.ID, &p.Pattern, &p.Strength, &p.ObservationCount,
			&p.DemographicBucket, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// SampleStore persists physiological samples
type SampleStore struct {
	db *DB
}

// NewSampleStore creates a new sample store
func NewSampleStore(db *DB) *SampleStore {
	return &SampleStore{db: db}
}

// Insert persists a sample within the given transaction and assigns its ID.
func (s *SampleStore) Insert(tx *sql.Tx, sample *core.PhysiologicalSample) error {
	metadata := ""
	if len(sample.Metadata) > 0 {
		data, _ := json.Marshal(sample.Metadata)
		metadata = string(data)
	}

	res, err := tx.Exec(`
		INSERT INTO samples (metric_type, value, unit, timestamp, source, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sample.MetricType, sample.Value, sample.Unit, sample.Timestamp.UTC(), sample.Source, metadata)
	if err != nil {
		return err
	}

	sample.ID, err = res.LastInsertId()
	return err
}

// QueryRange returns samples of a metric type in [from, to], ascending by
// timestamp.
func (s *SampleStore) QueryRange(ctx context.Context, metric core.MetricType, from, to time.Time) ([]core.PhysiologicalSample, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, metric_type, value, unit, timestamp, source, metadata
		FROM samples
		WHERE metric_type = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, metric, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []core.PhysiologicalSample
	for rows.Next() {
		var sample core.PhysiologicalSample
		var metadata string
		if err := rows.Scan(&sample.ID, &sample.MetricType, &sample.Value, &sample.Unit,
			&sample.Timestamp, &sample.Source, &metadata); err != nil {
			return nil, err
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &sample.Metadata); err != nil {
				return nil, fmt.Errorf("sample %d metadata: %w", sample.ID, err)
			}
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// Count returns the total sample count
func (s *SampleStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&count)
	return count, err
}

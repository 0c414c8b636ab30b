package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// SyncStore persists per-stream incremental fetch state, one row per metric
// key, overwritten on each successful fetch.
type SyncStore struct {
	db *DB
}

// NewSyncStore creates a new sync state store
func NewSyncStore(db *DB) *SyncStore {
	return &SyncStore{db: db}
}

// Put upserts the sync state for a metric key.
func (s *SyncStore) Put(ctx context.Context, state *core.SyncState) error {
	if state.LastSyncDate.IsZero() {
		state.LastSyncDate = time.Now().UTC()
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO sync_state (metric_type, anchor_data, last_sync_date)
		VALUES (?, ?, ?)
		ON CONFLICT(metric_type) DO UPDATE SET
		    anchor_data = excluded.anchor_data,
		    last_sync_date = excluded.last_sync_date
	`, state.MetricType, state.AnchorData, state.LastSyncDate.UTC())

	return err
}

// Get returns the sync state for a metric key, or core.ErrRecordNotFound.
func (s *SyncStore) Get(ctx context.Context, metricType string) (*core.SyncState, error) {
	state := &core.SyncState{}
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT metric_type, anchor_data, last_sync_date
		FROM sync_state WHERE metric_type = ?
	`, metricType).Scan(&state.MetricType, &state.AnchorData, &state.LastSyncDate)
	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

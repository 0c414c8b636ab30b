package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// BehaviorStore persists behavioral events
type BehaviorStore struct {
	db *DB
}

// NewBehaviorStore creates a new behavior store
func NewBehaviorStore(db *DB) *BehaviorStore {
	return &BehaviorStore{db: db}
}

// Insert persists an event within the given transaction and assigns its ID.
func (s *BehaviorStore) Insert(tx *sql.Tx, e *core.BehavioralEvent) error {
	metadata := ""
	if len(e.Metadata) > 0 {
		data, _ := json.Marshal(e.Metadata)
		metadata = string(data)
	}

	var dopamine sql.NullFloat64
	if e.DopamineDebtScore != nil {
		dopamine = sql.NullFloat64{Float64: *e.DopamineDebtScore, Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO behavioral_events (timestamp, duration_seconds, category, app_name, dopamine_debt_score, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UTC(), e.DurationSeconds, e.Category, e.AppName, dopamine, metadata)
	if err != nil {
		return err
	}

	e.ID, err = res.LastInsertId()
	return err
}

// QueryRange returns events in [from, to], ascending by timestamp.
func (s *BehaviorStore) QueryRange(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, timestamp, duration_seconds, category, app_name, dopamine_debt_score, metadata
		FROM behavioral_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []core.BehavioralEvent
	for rows.Next() {
		var e core.BehavioralEvent
		var dopamine sql.NullFloat64
		var metadata string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.DurationSeconds, &e.Category,
			&e.AppName, &dopamine, &metadata); err != nil {
			return nil, err
		}
		if dopamine.Valid {
			score := dopamine.Float64
			e.DopamineDebtScore = &score
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("behavioral event %d metadata: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

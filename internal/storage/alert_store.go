package storage

import (
	"context"
	"time"
)

// AlertRecord is a persisted escalation alert.
type AlertRecord struct {
	ID             string    `json:"id"`
	Symptom        string    `json:"symptom"`
	Conclusion     string    `json:"conclusion"`
	CompositeScore float64   `json:"composite_score"`
	Narrative      string    `json:"narrative"`
	CreatedAt      time.Time `json:"created_at"`
}

// AlertStore persists escalation alerts
type AlertStore struct {
	db *DB
}

// NewAlertStore creates a new alert store
func NewAlertStore(db *DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert persists an alert.
func (s *AlertStore) Insert(ctx context.Context, a *AlertRecord) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO alerts (id, symptom, conclusion, composite_score, narrative, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Symptom, a.Conclusion, a.CompositeScore, a.Narrative, a.CreatedAt.UTC())
	return err
}

// Recent returns the newest alerts, newest first.
func (s *AlertStore) Recent(ctx context.Context, limit int) ([]AlertRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, symptom, conclusion, composite_score, narrative, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var a AlertRecord
		if err := rows.Scan(&a.ID, &a.Symptom, &a.Conclusion, &a.CompositeScore,
			&a.Narrative, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

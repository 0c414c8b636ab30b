package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// GlucoseStore persists classified CGM readings
type GlucoseStore struct {
	db *DB
}

// NewGlucoseStore creates a new glucose store
func NewGlucoseStore(db *DB) *GlucoseStore {
	return &GlucoseStore{db: db}
}

// Insert persists a reading within the given transaction and assigns its ID.
func (s *GlucoseStore) Insert(tx *sql.Tx, r *core.GlucoseReading) error {
	var mealID sql.NullInt64
	if r.MealID != nil {
		mealID = sql.NullInt64{Int64: *r.MealID, Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO glucose_readings (glucose_mg_dl, timestamp, trend, energy_state, source, meal_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.GlucoseMgDL, r.Timestamp.UTC(), r.Trend, r.EnergyState, r.Source, mealID)
	if err != nil {
		return err
	}

	r.ID, err = res.LastInsertId()
	return err
}

// QueryRange returns readings in [from, to], ascending by timestamp.
// Callers rely on the ordering for windowed rate-of-change math.
func (s *GlucoseStore) QueryRange(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, glucose_mg_dl, timestamp, trend, energy_state, source, meal_id
		FROM glucose_readings
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []core.GlucoseReading
	for rows.Next() {
		var r core.GlucoseReading
		var mealID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.GlucoseMgDL, &r.Timestamp, &r.Trend,
			&r.EnergyState, &r.Source, &mealID); err != nil {
			return nil, err
		}
		if mealID.Valid {
			id := mealID.Int64
			r.MealID = &id
		}
		readings = append(readings, r)
	}

	return readings, rows.Err()
}

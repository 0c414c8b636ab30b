package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// MealStore persists meal events
type MealStore struct {
	db *DB
}

// NewMealStore creates a new meal store
func NewMealStore(db *DB) *MealStore {
	return &MealStore{db: db}
}

// Insert persists a meal within the given transaction and assigns its ID.
// Ingredients serialize as a JSON array in a TEXT column.
func (s *MealStore) Insert(tx *sql.Tx, m *core.MealEvent) error {
	ingredients, _ := json.Marshal(m.Ingredients)

	var estimatedGL, bioModifier sql.NullFloat64
	if m.EstimatedGlycemicLoad != nil {
		estimatedGL = sql.NullFloat64{Float64: *m.EstimatedGlycemicLoad, Valid: true}
	}
	if m.BioavailabilityModifier != nil {
		bioModifier = sql.NullFloat64{Float64: *m.BioavailabilityModifier, Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO meal_events (timestamp, source, event_type, ingredients, cooking_method,
		    estimated_glycemic_load, bioavailability_modifier, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Timestamp.UTC(), m.Source, m.EventType, string(ingredients), m.CookingMethod,
		estimatedGL, bioModifier, m.Confidence)
	if err != nil {
		return err
	}

	m.ID, err = res.LastInsertId()
	return err
}

// QueryRange returns meals in [from, to], ascending by timestamp.
func (s *MealStore) QueryRange(ctx context.Context, from, to time.Time) ([]core.MealEvent, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, timestamp, source, event_type, ingredients, cooking_method,
		       estimated_glycemic_load, bioavailability_modifier, confidence
		FROM meal_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []core.MealEvent
	for rows.Next() {
		var m core.MealEvent
		var ingredients string
		var estimatedGL, bioModifier sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Source, &m.EventType, &ingredients,
			&m.CookingMethod, &estimatedGL, &bioModifier, &m.Confidence); err != nil {
			return nil, err
		}
		if estimatedGL.Valid {
			gl := estimatedGL.Float64
			m.EstimatedGlycemicLoad = &gl
		}
		if bioModifier.Valid {
			bio := bioModifier.Float64
			m.BioavailabilityModifier = &bio
		}
		if ingredients != "" {
			if err := json.Unmarshal([]byte(ingredients), &m.Ingredients); err != nil {
				return nil, fmt.Errorf("meal %d ingredients: %w", m.ID, err)
			}
		}
		meals = append(meals, m)
	}

	return meals, rows.Err()
}

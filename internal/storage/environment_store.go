package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// EnvironmentStore persists environmental condition snapshots
type EnvironmentStore struct {
	db *DB
}

// NewEnvironmentStore creates a new environment store
func NewEnvironmentStore(db *DB) *EnvironmentStore {
	return &EnvironmentStore{db: db}
}

// Insert persists a condition within the given transaction and assigns its
// ID.
func (s *EnvironmentStore) Insert(tx *sql.Tx, c *core.EnvironmentalCondition) error {
	res, err := tx.Exec(`
		INSERT INTO environmental_conditions (timestamp, temperature_celsius, humidity, aqi_us, uv_index, pollen_index, condition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.Timestamp.UTC(), c.TemperatureCelsius, c.Humidity, c.AQIUS, c.UVIndex, c.PollenIndex, c.Condition)
	if err != nil {
		return err
	}

	c.ID, err = res.LastInsertId()
	return err
}

// QueryRange returns conditions in [from, to], ascending by timestamp.
func (s *EnvironmentStore) QueryRange(ctx context.Context, from, to time.Time) ([]core.EnvironmentalCondition, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, timestamp, temperature_celsius, humidity, aqi_us, uv_index, pollen_index, condition
		FROM environmental_conditions
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conditions []core.EnvironmentalCondition
	for rows.Next() {
		var c core.EnvironmentalCondition
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.TemperatureCelsius, &c.Humidity,
			&c.AQIUS, &c.UVIndex, &c.PollenIndex, &c.Condition); err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}

	return conditions, rows.Err()
}

// Package graph implements the causal graph store: the single source of
// truth for all persisted entities. Ingestion runs feature classification
// before persistence; every mutation is a self-contained transaction.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/classify"
	"github.com/vitalgraph/vitalgraph/internal/core"
	"github.com/vitalgraph/vitalgraph/internal/storage"
)

// Store is the graph store facade. Writers are serialized against each
// other; range queries may interleave and observe a consistent snapshot of
// committed data.
type Store struct {
	db *storage.DB

	samples     *storage.SampleStore
	glucose     *storage.GlucoseStore
	behaviors   *storage.BehaviorStore
	meals       *storage.MealStore
	environment *storage.EnvironmentStore
	edges       *storage.EdgeStore
	patterns    *storage.PatternStore
	syncState   *storage.SyncStore

	writeMu sync.Mutex
}

// New creates a graph store over an opened, migrated database.
func New(db *storage.DB) *Store {
	return &Store{
		db:          db,
		samples:     storage.NewSampleStore(db),
		glucose:     storage.NewGlucoseStore(db),
		behaviors:   storage.NewBehaviorStore(db),
		meals:       storage.NewMealStore(db),
		environment: storage.NewEnvironmentStore(db),
		edges:       storage.NewEdgeStore(db),
		patterns:    storage.NewPatternStore(db),
		syncState:   storage.NewSyncStore(db),
	}
}

// -----------------------------------------------------------------------------
// Ingestion - classify, then persist, all-or-nothing
// -----------------------------------------------------------------------------

// IngestSample persists a physiological sample and returns it with its
// assigned ID.
func (s *Store) IngestSample(ctx context.Context, sample core.PhysiologicalSample) (core.PhysiologicalSample, error) {
	if sample.Timestamp.IsZero() {
		return sample, fmt.Errorf("%w: sample timestamp", core.ErrMissingRequired)
	}
	if sample.MetricType == "" {
		return sample, fmt.Errorf("%w: sample metric type", core.ErrMissingRequired)
	}

	err := s.write(func(tx *sql.Tx) error {
		return s.samples.Insert(tx, &sample)
	})
	if err != nil {
		return sample, fmt.Errorf("%w: ingest sample: %v", core.ErrPersistence, err)
	}
	return sample, nil
}

// IngestGlucoseBatch classifies a batch of raw glucose points (trend and
// energy state, single forward pass) and persists them in one transaction.
// Batches of fewer than two readings persist unclassified; that is not an
// error. Readings missing timestamps reject the whole batch before any row
// is written.
func (s *Store) IngestGlucoseBatch(ctx context.Context, readings []core.GlucoseReading) ([]core.GlucoseReading, error) {
	for i := range readings {
		if readings[i].Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: glucose reading %d missing timestamp", core.ErrMalformedInput, i)
		}
	}

	readings = classify.Readings(readings)

	err := s.write(func(tx *sql.Tx) error {
		for i := range readings {
			if err := s.glucose.Insert(tx, &readings[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ingest glucose batch: %v", core.ErrPersistence, err)
	}
	return readings, nil
}

// IngestBehavior classifies the event's category from its app name (unless
// the producer already set one) and persists it.
func (s *Store) IngestBehavior(ctx context.Context, event core.BehavioralEvent) (core.BehavioralEvent, error) {
	if event.Timestamp.IsZero() {
		return event, fmt.Errorf("%w: behavioral event timestamp", core.ErrMissingRequired)
	}
	if event.DurationSeconds < 0 {
		return event, fmt.Errorf("%w: negative duration", core.ErrMalformedInput)
	}

	if event.Category == "" {
		event.Category = classify.Behavior(event.AppName, time.Duration(event.DurationSeconds)*time.Second)
	}

	err := s.write(func(tx *sql.Tx) error {
		return s.behaviors.Insert(tx, &event)
	})
	if err != nil {
		return event, fmt.Errorf("%w: ingest behavior: %v", core.ErrPersistence, err)
	}
	return event, nil
}

// IngestMeal fills the estimated glycemic load from the ingredient list when
// the producer did not supply one, then persists the meal.
func (s *Store) IngestMeal(ctx context.Context, meal core.MealEvent) (core.MealEvent, error) {
	if meal.Timestamp.IsZero() {
		return meal, fmt.Errorf("%w: meal timestamp", core.ErrMissingRequired)
	}

	if meal.EstimatedGlycemicLoad == nil {
		if gl := meal.ComputedGlycemicLoad(); gl > 0 {
			meal.EstimatedGlycemicLoad = &gl
		}
	}

	err := s.write(func(tx *sql.Tx) error {
		return s.meals.Insert(tx, &meal)
	})
	if err != nil {
		return meal, fmt.Errorf("%w: ingest meal: %v", core.ErrPersistence, err)
	}
	return meal, nil
}

// IngestEnvironment persists an environmental condition snapshot.
func (s *Store) IngestEnvironment(ctx context.Context, cond core.EnvironmentalCondition) (core.EnvironmentalCondition, error) {
	if cond.Timestamp.IsZero() {
		return cond, fmt.Errorf("%w: condition timestamp", core.ErrMissingRequired)
	}

	err := s.write(func(tx *sql.Tx) error {
		return s.environment.Insert(tx, &cond)
	})
	if err != nil {
		return cond, fmt.Errorf("%w: ingest environment: %v", core.ErrPersistence, err)
	}
	return cond, nil
}

// AddEdge persists a causal edge. Node IDs are not validated against
// existing rows: edges are soft references, and node creation order is not
// guaranteed at edge-creation time.
func (s *Store) AddEdge(ctx context.Context, edge core.CausalEdge) (core.CausalEdge, error) {
	if edge.SourceNodeID == "" || edge.TargetNodeID == "" {
		return edge, fmt.Errorf("%w: edge node ids", core.ErrMissingRequired)
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	err := s.write(func(tx *sql.Tx) error {
		return s.edges.Insert(tx, &edge)
	})
	if err != nil {
		return edge, fmt.Errorf("%w: add edge: %v", core.ErrPersistence, err)
	}
	return edge, nil
}

// UpsertPattern inserts or updates an anonymized causal pattern by its
// pattern key.
func (s *Store) UpsertPattern(ctx context.Context, pattern core.CausalPattern) (core.CausalPattern, error) {
	if pattern.Pattern == "" {
		return pattern, fmt.Errorf("%w: pattern key", core.ErrMissingRequired)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.patterns.Upsert(ctx, &pattern); err != nil {
		return pattern, fmt.Errorf("%w: upsert pattern: %v", core.ErrPersistence, err)
	}
	return pattern, nil
}

// PutSyncState overwrites the incremental-fetch state for a stream key.
func (s *Store) PutSyncState(ctx context.Context, state core.SyncState) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.syncState.Put(ctx, &state); err != nil {
		return fmt.Errorf("%w: put sync state: %v", core.ErrPersistence, err)
	}
	return nil
}

// GetSyncState returns the stored fetch state for a stream key, or
// core.ErrRecordNotFound.
func (s *Store) GetSyncState(ctx context.Context, metricType string) (*core.SyncState, error) {
	return s.syncState.Get(ctx, metricType)
}

// write serializes a mutation and runs it inside one transaction.
func (s *Store) write(fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Transaction(fn)
}

// -----------------------------------------------------------------------------
// Queries - inclusive range, ascending by timestamp, empty range = empty
// slice
// -----------------------------------------------------------------------------

// QuerySamples returns samples of one metric type within [from, to].
func (s *Store) QuerySamples(ctx context.Context, metric core.MetricType, from, to time.Time) ([]core.PhysiologicalSample, error) {
	return s.samples.QueryRange(ctx, metric, from, to)
}

// QueryGlucose returns glucose readings within [from, to].
func (s *Store) QueryGlucose(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error) {
	return s.glucose.QueryRange(ctx, from, to)
}

// QueryMeals returns meal events within [from, to].
func (s *Store) QueryMeals(ctx context.Context, from, to time.Time) ([]core.MealEvent, error) {
	return s.meals.QueryRange(ctx, from, to)
}

// QueryBehaviors returns behavioral events within [from, to].
func (s *Store) QueryBehaviors(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error) {
	return s.behaviors.QueryRange(ctx, from, to)
}

// QueryEnvironment returns environmental conditions within [from, to].
func (s *Store) QueryEnvironment(ctx context.Context, from, to time.Time) ([]core.EnvironmentalCondition, error) {
	return s.environment.QueryRange(ctx, from, to)
}

// QueryEdges returns the outgoing edges of a node. A node with no edges
// yields an empty slice, never an error.
func (s *Store) QueryEdges(ctx context.Context, sourceNodeID string) ([]core.CausalEdge, error) {
	return s.edges.QueryBySource(ctx, sourceNodeID)
}

// QueryAllEdges returns every persisted edge, in insertion order. Callers
// rebuilding the in-memory causal graph read the full edge set.
func (s *Store) QueryAllEdges(ctx context.Context) ([]core.CausalEdge, error) {
	return s.edges.QueryAll(ctx)
}

// QueryPatterns returns all stored causal patterns.
func (s *Store) QueryPatterns(ctx context.Context) ([]core.CausalPattern, error) {
	return s.patterns.All(ctx)
}

// CloudEligiblePatterns returns only the patterns allowed past the
// off-device boundary. This filter is the privacy boundary; nothing below
// the thresholds ever leaves local storage.
func (s *Store) CloudEligiblePatterns(ctx context.Context) ([]core.CausalPattern, error) {
	patterns, err := s.patterns.All(ctx)
	if err != nil {
		return nil, err
	}

	eligible := patterns[:0]
	for _, p := range patterns {
		if p.IsCloudSyncEligible() {
			eligible = append(eligible, p)
		}
	}

	// Oldest first for deterministic export order.
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	return eligible, nil
}

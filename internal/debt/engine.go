package debt

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// Score is a windowed debt score. Computed is false when the engine has not
// actually run the scorers (the pending variant), so consumers can show
// "not yet computed" without branching on engine type.
type Score struct {
	Type     core.DebtType `json:"type"`
	Value    float64       `json:"value"` // 0-100
	Computed bool          `json:"computed"`
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
}

// Engine produces windowed debt scores. Two implementations exist: the
// store-backed engine and a pending engine used before first ingestion
// completes. Callers never branch on which one they hold.
type Engine interface {
	MetabolicDebt(ctx context.Context, from, to time.Time) (Score, error)
	DigitalDebt(ctx context.Context, from, to time.Time) (Score, error)
	SomaticStress(ctx context.Context, from, to time.Time) (Score, error)
}

// Store is the slice of the graph store the engine reads from.
type Store interface {
	QuerySamples(ctx context.Context, metric core.MetricType, from, to time.Time) ([]core.PhysiologicalSample, error)
	QueryGlucose(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error)
	QueryMeals(ctx context.Context, from, to time.Time) ([]core.MealEvent, error)
	QueryBehaviors(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error)
	QueryEnvironment(ctx context.Context, from, to time.Time) ([]core.EnvironmentalCondition, error)
}

// GraphEngine computes real scores from the graph store.
type GraphEngine struct {
	store Store
}

// NewEngine creates a store-backed debt engine.
func NewEngine(store Store) *GraphEngine {
	return &GraphEngine{store: store}
}

// MetabolicDebt scores the meals in the window against the post-meal glucose
// and HRV response.
func (e *GraphEngine) MetabolicDebt(ctx context.Context, from, to time.Time) (Score, error) {
	meals, err := e.store.QueryMeals(ctx, from, to)
	if err != nil {
		return Score{}, fmt.Errorf("query meals: %w", err)
	}

	// Glucose must cover the post-meal spike horizon; HRV the 7-day baseline.
	glucose, err := e.store.QueryGlucose(ctx, from, to.Add(spikeWindow))
	if err != nil {
		return Score{}, fmt.Errorf("query glucose: %w", err)
	}
	hrv, err := e.store.QuerySamples(ctx, core.MetricHRV, from.Add(-7*24*time.Hour), to.Add(hrvWindowEnd))
	if err != nil {
		return Score{}, fmt.Errorf("query hrv: %w", err)
	}

	return Score{
		Type:     core.DebtMetabolic,
		Value:    Metabolic(meals, glucose, hrv),
		Computed: true,
		From:     from,
		To:       to,
	}, nil
}

// DigitalDebt scores passive screen time in the window, excluding reactive
// scrolling that followed a glucose crash.
func (e *GraphEngine) DigitalDebt(ctx context.Context, from, to time.Time) (Score, error) {
	events, err := e.store.QueryBehaviors(ctx, from, to)
	if err != nil {
		return Score{}, fmt.Errorf("query behaviors: %w", err)
	}

	// Look back one reactive window so a crash just before the window still
	// excuses scrolling just inside it.
	glucose, err := e.store.QueryGlucose(ctx, from.Add(-ReactiveWindow), to)
	if err != nil {
		return Score{}, fmt.Errorf("query glucose: %w", err)
	}

	return Score{
		Type:     core.DebtDigital,
		Value:    Digital(events, CrashReadings(glucose)),
		Computed: true,
		From:     from,
		To:       to,
	}, nil
}

// SomaticStress scores environmental load, sleep deficit, and HRV
// suppression over the window.
func (e *GraphEngine) SomaticStress(ctx context.Context, from, to time.Time) (Score, error) {
	conditions, err := e.store.QueryEnvironment(ctx, from, to)
	if err != nil {
		return Score{}, fmt.Errorf("query environment: %w", err)
	}

	samples, err := e.store.QuerySamples(ctx, core.MetricSleep, from.Add(-SleepLookback), to)
	if err != nil {
		return Score{}, fmt.Errorf("query sleep: %w", err)
	}
	hrv, err := e.store.QuerySamples(ctx, core.MetricHRV, from, to)
	if err != nil {
		return Score{}, fmt.Errorf("query hrv: %w", err)
	}
	samples = append(samples, hrv...)

	return Score{
		Type:     core.DebtSomatic,
		Value:    Somatic(conditions, samples, from, to),
		Computed: true,
		From:     from,
		To:       to,
	}, nil
}

// PendingEngine is the not-yet-computed variant. It returns zero scores
// marked uncomputed and never touches storage.
type PendingEngine struct{}

// NewPendingEngine creates the pending engine.
func NewPendingEngine() *PendingEngine {
	return &PendingEngine{}
}

func (PendingEngine) MetabolicDebt(ctx context.Context, from, to time.Time) (Score, error) {
	return Score{Type: core.DebtMetabolic, From: from, To: to}, nil
}

func (PendingEngine) DigitalDebt(ctx context.Context, from, to time.Time) (Score, error) {
	return Score{Type: core.DebtDigital, From: from, To: to}, nil
}

func (PendingEngine) SomaticStress(ctx context.Context, from, to time.Time) (Score, error) {
	return Score{Type: core.DebtSomatic, From: from, To: to}, nil
}

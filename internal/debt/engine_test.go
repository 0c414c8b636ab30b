package debt

import (
	"context"
	"testing"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// fakeGraph records query windows so tests can verify the engine extends
// them correctly.
type fakeGraph struct {
	meals     []core.MealEvent
	glucose   []core.GlucoseReading
	behaviors []core.BehavioralEvent

	glucoseFrom, glucoseTo time.Time
	sampleFrom             map[core.MetricType]time.Time
}

func (f *fakeGraph) QuerySamples(ctx context.Context, metric core.MetricType, from, to time.Time) ([]core.PhysiologicalSample, error) {
	if f.sampleFrom == nil {
		f.sampleFrom = map[core.MetricType]time.Time{}
	}
	f.sampleFrom[metric] = from
	return nil, nil
}

func (f *fakeGraph) QueryGlucose(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error) {
	f.glucoseFrom, f.glucoseTo = from, to
	return f.glucose, nil
}

func (f *fakeGraph) QueryMeals(ctx context.Context, from, to time.Time) ([]core.MealEvent, error) {
	return f.meals, nil
}

func (f *fakeGraph) QueryBehaviors(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error) {
	return f.behaviors, nil
}

func (f *fakeGraph) QueryEnvironment(ctx context.Context, from, to time.Time) ([]core.EnvironmentalCondition, error) {
	return nil, nil
}

func TestGraphEngineEmptyWindowsScoreZero(t *testing.T) {
	engine := NewEngine(&fakeGraph{})
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	for name, fn := range map[string]func(context.Context, time.Time, time.Time) (Score, error){
		"metabolic": engine.MetabolicDebt,
		"digital":   engine.DigitalDebt,
		"somatic":   engine.SomaticStress,
	} {
		score, err := fn(ctx, from, to)
		if err != nil {
			t.Fatalf("%s error = %v", name, err)
		}
		if score.Value != 0 {
			t.Errorf("%s empty window = %v, want 0", name, score.Value)
		}
		if !score.Computed {
			t.Errorf("%s score not marked computed", name)
		}
	}
}

func TestGraphEngineExtendsQueryWindows(t *testing.T) {
	store := &fakeGraph{}
	engine := NewEngine(store)
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)

	if _, err := engine.MetabolicDebt(ctx, from, to); err != nil {
		t.Fatalf("MetabolicDebt() error = %v", err)
	}
	// Glucose must reach past the window for the post-meal spike horizon.
	if !store.glucoseTo.After(to) {
		t.Errorf("glucose query to = %v, want past window end %v", store.glucoseTo, to)
	}
	// HRV baseline needs the preceding week.
	if want := from.Add(-7 * 24 * time.Hour); !store.sampleFrom[core.MetricHRV].Equal(want) {
		t.Errorf("hrv query from = %v, want %v", store.sampleFrom[core.MetricHRV], want)
	}

	if _, err := engine.SomaticStress(ctx, from, to); err != nil {
		t.Fatalf("SomaticStress() error = %v", err)
	}
	// Sleep lookback extends 12 hours before the window.
	if want := from.Add(-SleepLookback); !store.sampleFrom[core.MetricSleep].Equal(want) {
		t.Errorf("sleep query from = %v, want %v", store.sampleFrom[core.MetricSleep], want)
	}

	if _, err := engine.DigitalDebt(ctx, from, to); err != nil {
		t.Fatalf("DigitalDebt() error = %v", err)
	}
	if want := from.Add(-ReactiveWindow); !store.glucoseFrom.Equal(want) {
		t.Errorf("digital glucose from = %v, want %v", store.glucoseFrom, want)
	}
}

func TestGraphEngineScoresData(t *testing.T) {
	mealTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gl := 50.0
	store := &fakeGraph{
		meals: []core.MealEvent{{Timestamp: mealTime, EstimatedGlycemicLoad: &gl}},
	}
	engine := NewEngine(store)

	score, err := engine.MetabolicDebt(context.Background(), mealTime.Add(-time.Hour), mealTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("MetabolicDebt() error = %v", err)
	}
	if score.Type != core.DebtMetabolic || score.Value <= 0 {
		t.Errorf("score = %+v, want positive metabolic value", score)
	}
}

func TestPendingEngineReturnsUncomputed(t *testing.T) {
	engine := NewPendingEngine()
	ctx := context.Background()
	from := time.Now().Add(-time.Hour)
	to := time.Now()

	score, err := engine.MetabolicDebt(ctx, from, to)
	if err != nil {
		t.Fatalf("MetabolicDebt() error = %v", err)
	}
	if score.Computed {
		t.Error("pending engine must not mark scores computed")
	}
	if score.Value != 0 {
		t.Errorf("pending score = %v, want 0", score.Value)
	}
	if score.Type != core.DebtMetabolic {
		t.Errorf("pending score type = %v", score.Type)
	}
}

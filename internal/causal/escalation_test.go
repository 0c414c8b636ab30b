package causal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

type fakeEvidenceStore struct {
	behaviors   []core.BehavioralEvent
	glucose     []core.GlucoseReading
	behaviorErr error
	glucoseErr  error
}

func (f *fakeEvidenceStore) QueryBehaviors(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error) {
	return f.behaviors, f.behaviorErr
}

func (f *fakeEvidenceStore) QueryGlucose(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error) {
	return f.glucose, f.glucoseErr
}

func window() (time.Time, time.Time) {
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return from, from.Add(2 * time.Hour)
}

func TestShouldEscalateAllSignalsAgree(t *testing.T) {
	from, to := window()
	store := &fakeEvidenceStore{
		behaviors: []core.BehavioralEvent{
			{Category: core.BehaviorStressSignal, Timestamp: from.Add(time.Hour)},
		},
		glucose: []core.GlucoseReading{
			{GlucoseMgDL: 160, Timestamp: from},
			{GlucoseMgDL: 130, Timestamp: from.Add(10 * time.Minute)}, // -3/min
		},
	}

	gate := NewGate(store)
	exp := Explanation{Symptom: "afternoon slump", Conclusion: core.DebtMetabolic, Confidence: 0.9}
	decision := gate.ShouldEscalate(context.Background(), exp, from, to)

	// 0.5*0.9 + 0.3*1.0 + 0.2*1.0 = 0.95
	if math.Abs(decision.CompositeScore-0.95) > 1e-9 {
		t.Errorf("composite = %v, want 0.95", decision.CompositeScore)
	}
	if !decision.Escalate {
		t.Error("expected escalation")
	}
}

func TestShouldEscalateConfidenceAloneInsufficient(t *testing.T) {
	from, to := window()
	gate := NewGate(&fakeEvidenceStore{})

	exp := Explanation{Symptom: "headache", Conclusion: core.DebtSomatic, Confidence: 1.0}
	decision := gate.ShouldEscalate(context.Background(), exp, from, to)

	// 0.5*1.0 with no corroboration stays below the threshold.
	if decision.Escalate {
		t.Errorf("escalated on confidence alone, composite %v", decision.CompositeScore)
	}
	if math.Abs(decision.CompositeScore-0.5) > 1e-9 {
		t.Errorf("composite = %v, want 0.5", decision.CompositeScore)
	}
}

func TestShouldEscalateThresholdBoundary(t *testing.T) {
	from, to := window()
	store := &fakeEvidenceStore{
		behaviors: []core.BehavioralEvent{
			{Category: core.BehaviorStressSignal, Timestamp: from},
		},
	}
	gate := NewGate(store)

	// 0.5*0.9 + 0.3*1.0 = 0.75 exactly: escalates.
	exp := Explanation{Conclusion: core.DebtDigital, Confidence: 0.9}
	decision := gate.ShouldEscalate(context.Background(), exp, from, to)
	if !decision.Escalate {
		t.Errorf("composite %v at threshold should escalate", decision.CompositeScore)
	}
}

func TestShouldEscalateQueryFailuresDegrade(t *testing.T) {
	from, to := window()
	store := &fakeEvidenceStore{
		behaviorErr: errors.New("db locked"),
		glucoseErr:  errors.New("db locked"),
	}
	gate := NewGate(store)

	exp := Explanation{Conclusion: core.DebtMetabolic, Confidence: 1.0}
	decision := gate.ShouldEscalate(context.Background(), exp, from, to)

	if decision.StressContext != 0 || decision.GlucoseDeltaRate != 0 {
		t.Errorf("failed queries should zero components, got stress=%v glucose=%v",
			decision.StressContext, decision.GlucoseDeltaRate)
	}
	if decision.Escalate {
		t.Error("degraded gate must not escalate")
	}
}

func TestShouldEscalateCapsTriggerConfidence(t *testing.T) {
	from, to := window()
	gate := NewGate(&fakeEvidenceStore{})

	exp := Explanation{Conclusion: core.DebtMetabolic, Confidence: 3.0}
	decision := gate.ShouldEscalate(context.Background(), exp, from, to)
	if decision.TriggerConfidence != 1.0 {
		t.Errorf("trigger confidence = %v, want capped 1.0", decision.TriggerConfidence)
	}
}

func TestGlucoseFallRateNormalization(t *testing.T) {
	from, to := window()
	store := &fakeEvidenceStore{
		glucose: []core.GlucoseReading{
			{GlucoseMgDL: 180, Timestamp: from},
			{GlucoseMgDL: 165, Timestamp: from.Add(10 * time.Minute)}, // -1.5/min
		},
	}
	gate := NewGate(store)

	decision := gate.ShouldEscalate(context.Background(), Explanation{}, from, to)
	if math.Abs(decision.GlucoseDeltaRate-0.5) > 1e-9 {
		t.Errorf("glucose rate = %v, want 0.5", decision.GlucoseDeltaRate)
	}

	// A fall faster than 3 mg/dL/min caps at 1.
	store.glucose = []core.GlucoseReading{
		{GlucoseMgDL: 200, Timestamp: from},
		{GlucoseMgDL: 100, Timestamp: from.Add(10 * time.Minute)},
	}
	decision = gate.ShouldEscalate(context.Background(), Explanation{}, from, to)
	if decision.GlucoseDeltaRate != 1.0 {
		t.Errorf("glucose rate = %v, want capped 1.0", decision.GlucoseDeltaRate)
	}

	// Rising glucose contributes nothing.
	store.glucose = []core.GlucoseReading{
		{GlucoseMgDL: 100, Timestamp: from},
		{GlucoseMgDL: 150, Timestamp: from.Add(10 * time.Minute)},
	}
	decision = gate.ShouldEscalate(context.Background(), Explanation{}, from, to)
	if decision.GlucoseDeltaRate != 0 {
		t.Errorf("glucose rate = %v, want 0 for rising stream", decision.GlucoseDeltaRate)
	}
}

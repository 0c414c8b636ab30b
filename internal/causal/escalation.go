package causal

import (
	"context"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// Escalation gate constants. A single strong signal must never be enough to
// interrupt; the composite requires agreement across signal families.
const (
	EscalationThreshold = 0.75

	triggerWeight = 0.5
	stressWeight  = 0.3
	glucoseWeight = 0.2

	// How far the stress-context search extends beyond the window on each
	// side.
	stressContextPad = 4 * time.Hour

	// A 3 mg/dL/min fall saturates the glucose-dynamics component.
	maxFallRate = 3.0
)

// Explanation is the causal conclusion a reasoning layer proposes for
// escalation.
type Explanation struct {
	Symptom    string        `json:"symptom"`
	Conclusion core.DebtType `json:"conclusion"`
	Confidence float64       `json:"confidence"` // 0-1
	Narrative  string        `json:"narrative,omitempty"`
}

// EvidenceStore is the slice of the graph store the gate queries for
// independent corroboration.
type EvidenceStore interface {
	QueryBehaviors(ctx context.Context, from, to time.Time) ([]core.BehavioralEvent, error)
	QueryGlucose(ctx context.Context, from, to time.Time) ([]core.GlucoseReading, error)
}

// EscalationDecision reports the gate's verdict and its components.
type EscalationDecision struct {
	Escalate          bool    `json:"escalate"`
	CompositeScore    float64 `json:"composite_score"`
	TriggerConfidence float64 `json:"trigger_confidence"`
	StressContext     float64 `json:"stress_context"`
	GlucoseDeltaRate  float64 `json:"glucose_delta_rate"`
}

// Gate decides whether a causal explanation justifies an interruptive alert.
type Gate struct {
	store EvidenceStore
}

// NewGate creates an escalation gate backed by the graph store.
func NewGate(store EvidenceStore) *Gate {
	return &Gate{store: store}
}

// ShouldEscalate combines the explanation's own confidence with
// independently queried stress and glucose-dynamics evidence:
//
//	score = 0.5*triggerConfidence + 0.3*stressContext + 0.2*glucoseDeltaRate
//
// and escalates iff score >= 0.75. Query failures degrade the affected
// component to zero rather than propagating: the gate errs toward silence,
// not noise.
func (g *Gate) ShouldEscalate(ctx context.Context, exp Explanation, from, to time.Time) EscalationDecision {
	trigger := exp.Confidence
	if trigger > 1.0 {
		trigger = 1.0
	}

	stress := g.stressContext(ctx, from.Add(-stressContextPad), to.Add(stressContextPad))
	glucoseRate := g.glucoseFallRate(ctx, from, to)

	score := triggerWeight*trigger + stressWeight*stress + glucoseWeight*glucoseRate

	return EscalationDecision{
		Escalate:          score >= EscalationThreshold,
		CompositeScore:    score,
		TriggerConfidence: trigger,
		StressContext:     stress,
		GlucoseDeltaRate:  glucoseRate,
	}
}

// stressContext is binary: 1.0 if any stress-signal behavioral event falls
// within the expanded window, else 0.0.
func (g *Gate) stressContext(ctx context.Context, from, to time.Time) float64 {
	events, err := g.store.QueryBehaviors(ctx, from, to)
	if err != nil {
		return 0
	}
	for _, e := range events {
		if e.Category == core.BehaviorStressSignal {
			return 1.0
		}
	}
	return 0
}

// glucoseFallRate is the maximum observed fall rate in mg/dL per minute,
// normalized by 3 and capped at 1.
func (g *Gate) glucoseFallRate(ctx context.Context, from, to time.Time) float64 {
	readings, err := g.store.QueryGlucose(ctx, from, to)
	if err != nil || len(readings) < 2 {
		return 0
	}

	maxFall := 0.0
	for i := 1; i < len(readings); i++ {
		minutes := readings[i].Timestamp.Sub(readings[i-1].Timestamp).Minutes()
		if minutes <= 0 {
			continue
		}
		fall := (readings[i-1].GlucoseMgDL - readings[i].GlucoseMgDL) / minutes
		if fall > maxFall {
			maxFall = fall
		}
	}

	rate := maxFall / maxFallRate
	if rate > 1.0 {
		rate = 1.0
	}
	return rate
}

// Package causal implements hypothesis fusion, the escalation gate, and the
// structural constraints of the health causal graph.
package causal

import (
	"sort"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// Hypothesis is a proposed root cause for a symptom.
type Hypothesis struct {
	Type             core.DebtType `json:"type"`
	Description      string        `json:"description"`
	PriorProbability float64       `json:"prior_probability"` // 0-1
	Confidence       float64       `json:"confidence"`        // 0-1
}

// Observation is one piece of tool-gathered evidence. Evidence maps debt
// types to how strongly this observation supports them.
type Observation struct {
	Source     string                    `json:"source"`
	Evidence   map[core.DebtType]float64 `json:"evidence"`
	Confidence float64                   `json:"confidence"` // 0-1
}

// RankedDebt is one entry of the classifier output, normalized across all
// categories.
type RankedDebt struct {
	Type            core.DebtType `json:"type"`
	NormalizedScore float64       `json:"normalized_score"`
	RawScore        float64       `json:"raw_score"`
}

// Fusion weights for the Bayesian-style accumulation.
const (
	priorWeight      = 0.2
	hypothesisWeight = 0.3
)

// ClassifyDebt fuses hypotheses and observations into ranked, normalized
// probabilities over the three debt categories. Scores start from a
// near-uniform prior; each hypothesis adds prior*0.2 + confidence*0.3 to its
// category, each observation adds evidence*confidence per category it
// carries. Accumulators clamp at zero. A zero total returns an empty list:
// no signal is not an error.
func ClassifyDebt(hypotheses []Hypothesis, observations []Observation) []RankedDebt {
	scores := map[core.DebtType]float64{
		core.DebtMetabolic: 0.33,
		core.DebtDigital:   0.33,
		core.DebtSomatic:   0.34,
	}

	// Unknown categories are ignored rather than accumulated: a stray key
	// must not leak into the normalization total.
	for _, h := range hypotheses {
		if _, ok := scores[h.Type]; ok {
			scores[h.Type] += h.PriorProbability*priorWeight + h.Confidence*hypothesisWeight
		}
	}

	for _, obs := range observations {
		for debtType, evidence := range obs.Evidence {
			if _, ok := scores[debtType]; ok {
				scores[debtType] += evidence * obs.Confidence
			}
		}
	}

	total := 0.0
	for debtType, s := range scores {
		if s < 0 {
			s = 0
			scores[debtType] = 0
		}
		total += s
	}
	if total == 0 {
		return nil
	}

	ranked := make([]RankedDebt, 0, len(scores))
	for _, debtType := range core.AllDebtTypes() {
		ranked = append(ranked, RankedDebt{
			Type:            debtType,
			NormalizedScore: scores[debtType] / total,
			RawScore:        scores[debtType],
		})
	}

	// Stable keeps canonical category order for ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NormalizedScore > ranked[j].NormalizedScore
	})

	return ranked
}

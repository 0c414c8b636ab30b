// Package debt implements the three deterministic debt scorers. Each scorer
// reduces a time window of graph data to a 0-100 scalar; an empty window
// scores 0 and is never an error.
package debt

import (
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

const (
	// Post-meal observation window for the glucose spike.
	spikeWindow = 150 * time.Minute

	// Post-meal HRV window, 60-180 minutes after eating.
	hrvWindowStart = 60 * time.Minute
	hrvWindowEnd   = 180 * time.Minute

	// Baseline HRV assumed when no 7-day history exists, in ms.
	defaultBaselineHRV = 50.0

	// Meals at or after this hour carry the late-eating penalty.
	lateMealHour = 20
)

// Metabolic scores metabolic debt for the meals in a window. For each meal:
//
//	mealDebt = (0.3*glFactor + 0.3*spikeMagnitude + 0.25*hrvDrop
//	            + 0.15*(cookingModifier-0.8)) * timingPenalty
//
// The final score is the mean per-meal debt times 100, clamped to [0,100].
// glucose should cover the window plus the post-meal spike horizon; hrv
// should cover the preceding 7 days for the baseline.
func Metabolic(meals []core.MealEvent, glucose []core.GlucoseReading, hrv []core.PhysiologicalSample) float64 {
	if len(meals) == 0 {
		return 0
	}

	total := 0.0
	for i := range meals {
		total += mealDebt(&meals[i], glucose, hrv)
	}

	score := total / float64(len(meals)) * 100.0
	return clampScore(score)
}

func mealDebt(meal *core.MealEvent, glucose []core.GlucoseReading, hrv []core.PhysiologicalSample) float64 {
	gl := meal.ComputedGlycemicLoad()
	if meal.EstimatedGlycemicLoad != nil && *meal.EstimatedGlycemicLoad > 0 {
		gl = *meal.EstimatedGlycemicLoad
	}
	glFactor := min1(gl / 50.0)

	spikeMagnitude := postMealSpike(meal.Timestamp, glucose)

	baseline := baselineHRV(meal.Timestamp, hrv)
	postMeal := postMealHRV(meal.Timestamp, hrv)
	hrvDrop := 0.0
	if baseline > 0 && postMeal > 0 {
		hrvDrop = (baseline - postMeal) / baseline
		if hrvDrop < 0 {
			hrvDrop = 0
		}
	}

	// Better bioavailability means lower debt.
	cookingModifier := 1.0
	if meal.BioavailabilityModifier != nil {
		if *meal.BioavailabilityModifier > 1.0 {
			cookingModifier = 0.8
		} else {
			cookingModifier = 1.2
		}
	}

	timingPenalty := 1.0
	if meal.Timestamp.Hour() >= lateMealHour {
		timingPenalty = 1.3
	}

	return (0.3*glFactor + 0.3*spikeMagnitude + 0.25*hrvDrop + 0.15*(cookingModifier-0.8)) * timingPenalty
}

// postMealSpike measures the peak-to-nadir swing in the 150 minutes after a
// meal, normalized by an 80 mg/dL excursion.
func postMealSpike(mealTime time.Time, glucose []core.GlucoseReading) float64 {
	end := mealTime.Add(spikeWindow)

	peak, nadir := 0.0, 0.0
	seen := false
	for _, r := range glucose {
		if r.Timestamp.Before(mealTime) || r.Timestamp.After(end) {
			continue
		}
		if !seen {
			peak, nadir = r.GlucoseMgDL, r.GlucoseMgDL
			seen = true
			continue
		}
		if r.GlucoseMgDL > peak {
			peak = r.GlucoseMgDL
		}
		if r.GlucoseMgDL < nadir {
			nadir = r.GlucoseMgDL
		}
	}
	if !seen || peak <= nadir {
		return 0
	}
	return min1((peak - nadir) / 80.0)
}

// baselineHRV is the mean HRV over the 7 days preceding the meal, or the
// default when no history exists.
func baselineHRV(mealTime time.Time, hrv []core.PhysiologicalSample) float64 {
	from := mealTime.Add(-7 * 24 * time.Hour)

	sum, n := 0.0, 0
	for _, s := range hrv {
		if s.MetricType != core.MetricHRV {
			continue
		}
		if s.Timestamp.Before(from) || s.Timestamp.After(mealTime) {
			continue
		}
		sum += s.Value
		n++
	}
	if n == 0 {
		return defaultBaselineHRV
	}
	return sum / float64(n)
}

// postMealHRV is the mean HRV 60-180 minutes after the meal.
func postMealHRV(mealTime time.Time, hrv []core.PhysiologicalSample) float64 {
	from := mealTime.Add(hrvWindowStart)
	to := mealTime.Add(hrvWindowEnd)

	sum, n := 0.0, 0
	for _, s := range hrv {
		if s.MetricType != core.MetricHRV {
			continue
		}
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		sum += s.Value
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

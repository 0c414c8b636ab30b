package debt

import (
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// SleepLookback extends the scoring window backward when totaling sleep, so
// last night's sleep counts toward an afternoon window.
const SleepLookback = 12 * time.Hour

// Somatic scores somatic stress as additive point bands: the worst
// environmental reading in the window, the sleep deficit over the window
// plus a 12-hour pre-extension, and HRV suppression over the window. The sum
// is clamped to [0,100]; no relevant data scores 0.
func Somatic(conditions []core.EnvironmentalCondition, samples []core.PhysiologicalSample, from, to time.Time) float64 {
	score := environmentPoints(conditions)
	score += sleepDeficitPoints(samples, from.Add(-SleepLookback), to)
	score += hrvSuppressionPoints(samples, from, to)
	return clampScore(score)
}

func environmentPoints(conditions []core.EnvironmentalCondition) float64 {
	if len(conditions) == 0 {
		return 0
	}

	worstAQI := 0
	worstPollen := 0
	maxTemp := conditions[0].TemperatureCelsius
	minTemp := conditions[0].TemperatureCelsius
	for _, c := range conditions {
		if c.AQIUS > worstAQI {
			worstAQI = c.AQIUS
		}
		if c.PollenIndex > worstPollen {
			worstPollen = c.PollenIndex
		}
		if c.TemperatureCelsius > maxTemp {
			maxTemp = c.TemperatureCelsius
		}
		if c.TemperatureCelsius < minTemp {
			minTemp = c.TemperatureCelsius
		}
	}

	points := 0.0
	switch {
	case worstAQI > 150:
		points += 30
	case worstAQI > 100:
		points += 20
	case worstAQI > 50:
		points += 10
	}

	switch {
	case worstPollen >= 10:
		points += 15
	case worstPollen >= 8:
		points += 10
	}

	switch {
	case maxTemp > 38:
		points += 15
	case maxTemp > 33:
		points += 10
	}
	// Cold is a separate stressor: a window can span both a heat peak and a
	// cold trough.
	if minTemp < 5 {
		points += 10
	}

	return points
}

func sleepDeficitPoints(samples []core.PhysiologicalSample, from, to time.Time) float64 {
	totalMinutes := 0.0
	seen := false
	for _, s := range samples {
		if s.MetricType != core.MetricSleep {
			continue
		}
		if s.Timestamp.Before(from) || s.Timestamp.After(to) {
			continue
		}
		totalMinutes += s.Value
		seen = true
	}
	if !seen {
		return 0
	}

	switch {
	case totalMinutes < 5*60:
		return 30
	case totalMinutes < 6*60:
		return 20
	case totalMinutes < 6.5*60:
		return 15
	case totalMinutes < 7*60:
		return 10
	default:
		return 0
	}
}

func hrvSuppressionPoints(samples []core.PhysiologicalSample, from, to time.Time) float64 {
	sum, n := 0.0, 0
	for _, s := range samples {
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

	mean := sum / float64(n)
	switch {
	case mean < 30:
		return 20
	case mean < 40:
		return 15
	case mean < 50:
		return 10
	default:
		return 0
	}
}

// Package classify implements the pure, stateless feature classification
// that runs at ingestion time: glucose dynamics, behavior categories, and
// dopamine debt.
package classify

import (
	"sort"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// DefaultBaselineMgDL is the fasting baseline assumed when no personal
// baseline is available.
const DefaultBaselineMgDL = 90.0

// crashDelta is the drop from peak that marks a crash, in mg/dL.
const crashDelta = -30.0

// ClassifyTrend maps a glucose rate of change (mg/dL per minute) to a trend
// band. Rate of exactly 3.0 is rapidlyRising, exactly 1.0 is rising,
// exactly -1.0 is falling.
func ClassifyTrend(ratePerMinute float64) core.GlucoseTrend {
	switch {
	case ratePerMinute >= 3.0:
		return core.TrendRapidlyRising
	case ratePerMinute >= 1.0:
		return core.TrendRising
	case ratePerMinute > -1.0:
		return core.TrendStable
	case ratePerMinute >= -3.0:
		return core.TrendFalling
	default:
		return core.TrendRapidlyFalling
	}
}

// ClassifyEnergyState derives the metabolic energy state from the current
// value and its distance below the running peak.
func ClassifyEnergyState(currentMgDL, deltaFromPeak, baselineMgDL float64) core.EnergyState {
	switch {
	case currentMgDL < baselineMgDL-10 && deltaFromPeak < crashDelta:
		return core.EnergyReactiveLow
	case deltaFromPeak < crashDelta:
		return core.EnergyCrashing
	case currentMgDL > 140 || deltaFromPeak > 20:
		return core.EnergyRising
	default:
		return core.EnergyStable
	}
}

// Readings tags a batch of raw glucose points with trend and energy state in
// a single forward pass. The batch is sorted ascending by timestamp first.
// Batches of fewer than two readings are returned unchanged: there is no
// rate to compute.
//
// A running peak tracks the highest value seen so far. Once a crash has
// fully recovered to a stable state, the peak resets to the current value so
// a later rise is measured from a fresh baseline rather than the stale
// earlier peak.
func Readings(readings []core.GlucoseReading) []core.GlucoseReading {
	if len(readings) < 2 {
		return readings
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	peak := readings[0].GlucoseMgDL
	for i := 1; i < len(readings); i++ {
		minutes := readings[i].Timestamp.Sub(readings[i-1].Timestamp).Minutes()
		if minutes <= 0 {
			// Duplicate or out-of-order timestamp; leave unclassified.
			continue
		}

		rate := (readings[i].GlucoseMgDL - readings[i-1].GlucoseMgDL) / minutes
		if readings[i].GlucoseMgDL > peak {
			peak = readings[i].GlucoseMgDL
		}
		deltaFromPeak := readings[i].GlucoseMgDL - peak

		readings[i].Trend = ClassifyTrend(rate)
		readings[i].EnergyState = ClassifyEnergyState(readings[i].GlucoseMgDL, deltaFromPeak, DefaultBaselineMgDL)

		// Full crash recovery: start tracking the next spike fresh.
		if readings[i].EnergyState == core.EnergyStable && deltaFromPeak < crashDelta {
			peak = readings[i].GlucoseMgDL
		}
	}

	return readings
}

package debt

import (
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// ReactiveWindow is how long after a glucose crash a screen-time spike is
// attributed to the crash rather than counted as genuine digital debt. This
// avoids penalizing one root cause twice.
const ReactiveWindow = 30 * time.Minute

// Digital scores digital debt from the passive behavioral events in a
// window:
//
//	score = min(screenTimeFactor + dopamineFactor, 100)
//	screenTimeFactor = min(genuineMinutes/60, 1) * 60
//	dopamineFactor   = maxDopamineDebt * 0.4
//
// crashes are the glucose readings whose energy state resolved to crashing
// or reactiveLow; passive events starting within 30 minutes after one are
// excluded from genuine minutes.
func Digital(events []core.BehavioralEvent, crashes []core.GlucoseReading) float64 {
	if len(events) == 0 {
		return 0
	}

	genuineMinutes := 0.0
	maxDopamine := 0.0
	for i := range events {
		e := &events[i]
		if !e.IsPassive() {
			continue
		}
		if !isReactive(e.Timestamp, crashes) {
			genuineMinutes += e.DurationSeconds / 60.0
		}
		if e.DopamineDebtScore != nil && *e.DopamineDebtScore > maxDopamine {
			maxDopamine = *e.DopamineDebtScore
		}
	}

	screenTimeFactor := min1(genuineMinutes/60.0) * 60.0
	dopamineFactor := maxDopamine * 0.4

	return clampScore(screenTimeFactor + dopamineFactor)
}

// CrashReadings filters a glucose window down to the crash/reactive-low
// points used for reactive-scrolling detection.
func CrashReadings(readings []core.GlucoseReading) []core.GlucoseReading {
	var crashes []core.GlucoseReading
	for _, r := range readings {
		if r.EnergyState == core.EnergyCrashing || r.EnergyState == core.EnergyReactiveLow {
			crashes = append(crashes, r)
		}
	}
	return crashes
}

func isReactive(start time.Time, crashes []core.GlucoseReading) bool {
	for _, c := range crashes {
		offset := start.Sub(c.Timestamp)
		if offset >= 0 && offset <= ReactiveWindow {
			return true
		}
	}
	return false
}

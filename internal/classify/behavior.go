package classify

import (
	"strings"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

// ZombieThreshold is how long a food/shopping app session can run before it
// escalates from passive consumption to zombie scrolling.
const ZombieThreshold = 10 * time.Minute

// Static app allow-lists. Deliberately conservative: anything unknown is
// treated as active work rather than guessed at.
var (
	socialApps = map[string]bool{
		"instagram": true,
		"tiktok":    true,
		"twitter":   true,
		"x":         true,
		"facebook":  true,
		"reddit":    true,
		"youtube":   true,
		"snapchat":  true,
	}

	foodShoppingApps = map[string]bool{
		"doordash":  true,
		"ubereats":  true,
		"grubhub":   true,
		"instacart": true,
		"amazon":    true,
		"postmates": true,
	}

	exerciseApps = map[string]bool{
		"strava":  true,
		"fitness": true,
		"peloton": true,
		"workout": true,
	}

	restApps = map[string]bool{
		"calm":       true,
		"headspace":  true,
		"sleep":      true,
		"meditation": true,
	}
)

// Behavior maps an app-usage event onto a behavior category. Social apps are
// always passive consumption; food and shopping apps escalate to zombie
// scrolling past the duration threshold; everything unrecognized defaults to
// active work.
func Behavior(appName string, duration time.Duration) core.BehaviorCategory {
	app := strings.ToLower(strings.TrimSpace(appName))

	switch {
	case socialApps[app]:
		return core.BehaviorPassiveConsumption
	case foodShoppingApps[app]:
		if duration > ZombieThreshold {
			return core.BehaviorZombieScrolling
		}
		return core.BehaviorPassiveConsumption
	case exerciseApps[app]:
		return core.BehaviorExercise
	case restApps[app]:
		return core.BehaviorRest
	default:
		return core.BehaviorActiveWork
	}
}

// DopamineDebt scores accumulated passive/compulsive screen engagement for
// one behavioral event:
//
//	(0.4*passiveNorm + 0.3*switchNorm + 0.2*focusDeficitNorm + 0.1*lateNorm) * 100
//
// focusDeficit is 1 minus the focus-mode ratio for the interval. Each input
// normalizes into [0,1]; the result is clamped to [0,100] and is
// monotonically non-decreasing in every input.
func DopamineDebt(passiveMinutesLast3h, appSwitchZScore, focusDeficit, lateNightPenalty float64) float64 {
	passiveNorm := clamp01(passiveMinutesLast3h / 60.0)
	switchNorm := clamp01(appSwitchZScore)
	deficitNorm := clamp01(focusDeficit)
	lateNorm := clamp01(lateNightPenalty)

	score := (0.4*passiveNorm + 0.3*switchNorm + 0.2*deficitNorm + 0.1*lateNorm) * 100.0

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

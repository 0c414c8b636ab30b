package debt

import (
	"math"
	"testing"
	"time"

	"github.com/vitalgraph/vitalgraph/internal/core"
)

func TestDigitalEmptyWindow(t *testing.T) {
	if got := Digital(nil, nil); got != 0 {
		t.Errorf("Digital(no events) = %v, want 0", got)
	}
}

func TestDigitalActiveWorkOnlyScoresZero(t *testing.T) {
	events := []core.BehavioralEvent{
		{Category: core.BehaviorActiveWork, DurationSeconds: 4 * 3600, Timestamp: time.Now()},
		{Category: core.BehaviorExercise, DurationSeconds: 1800, Timestamp: time.Now()},
	}
	if got := Digital(events, nil); got != 0 {
		t.Errorf("Digital(active only) = %v, want 0", got)
	}
}

func TestDigitalScreenTimeSaturation(t *testing.T) {
	base := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

	// 30 passive minutes: factor = 0.5 * 60 = 30.
	half := []core.BehavioralEvent{
		{Category: core.BehaviorPassiveConsumption, DurationSeconds: 1800, Timestamp: base},
	}
	if got := Digital(half, nil); math.Abs(got-30) > 1e-9 {
		t.Errorf("Digital(30 min passive) = %v, want 30", got)
	}

	// 3 passive hours saturate the screen-time factor at 60.
	long := []core.BehavioralEvent{
		{Category: core.BehaviorZombieScrolling, DurationSeconds: 3 * 3600, Timestamp: base},
	}
	if got := Digital(long, nil); math.Abs(got-60) > 1e-9 {
		t.Errorf("Digital(3h passive) = %v, want 60", got)
	}
}

func TestDigitalDopamineComponent(t *testing.T) {
	base := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	events := []core.BehavioralEvent{
		{Category: core.BehaviorPassiveConsumption, DurationSeconds: 3600, Timestamp: base, DopamineDebtScore: floatPtr(50)},
		{Category: core.BehaviorPassiveConsumption, DurationSeconds: 600, Timestamp: base.Add(2 * time.Hour), DopamineDebtScore: floatPtr(80)},
	}

	// Screen time saturates (70 min): 60. Max dopamine 80 * 0.4 = 32.
	// 92 total.
	if got := Digital(events, nil); math.Abs(got-92) > 1e-9 {
		t.Errorf("Digital() = %v, want 92", got)
	}
}

func TestDigitalExcludesReactiveScrolling(t *testing.T) {
	crashTime := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	crashes := []core.GlucoseReading{
		{GlucoseMgDL: 70, Timestamp: crashTime, EnergyState: core.EnergyCrashing},
	}

	reactive := core.BehavioralEvent{
		Category:        core.BehaviorPassiveConsumption,
		DurationSeconds: 1800,
		Timestamp:       crashTime.Add(10 * time.Minute),
	}
	genuine := core.BehavioralEvent{
		Category:        core.BehaviorPassiveConsumption,
		DurationSeconds: 1800,
		Timestamp:       crashTime.Add(2 * time.Hour),
	}

	// Only the genuine 30 minutes count: 0.5 * 60 = 30.
	got := Digital([]core.BehavioralEvent{reactive, genuine}, crashes)
	if math.Abs(got-30) > 1e-9 {
		t.Errorf("Digital() = %v, want 30", got)
	}

	// Without the crash both count and the factor saturates.
	got = Digital([]core.BehavioralEvent{reactive, genuine}, nil)
	if math.Abs(got-60) > 1e-9 {
		t.Errorf("Digital(no crashes) = %v, want 60", got)
	}
}

func TestDigitalReactiveWindowBoundary(t *testing.T) {
	crashTime := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	crashes := []core.GlucoseReading{
		{GlucoseMgDL: 68, Timestamp: crashTime, EnergyState: core.EnergyReactiveLow},
	}

	// Scrolling before the crash is genuine, not reactive.
	before := core.BehavioralEvent{
		Category:        core.BehaviorPassiveConsumption,
		DurationSeconds: 1800,
		Timestamp:       crashTime.Add(-10 * time.Minute),
	}
	if got := Digital([]core.BehavioralEvent{before}, crashes); math.Abs(got-30) > 1e-9 {
		t.Errorf("Digital(pre-crash scroll) = %v, want 30", got)
	}

	// Exactly at the window edge still counts as reactive.
	edge := core.BehavioralEvent{
		Category:        core.BehaviorPassiveConsumption,
		DurationSeconds: 1800,
		Timestamp:       crashTime.Add(ReactiveWindow),
	}
	if got := Digital([]core.BehavioralEvent{edge}, crashes); got != 0 {
		t.Errorf("Digital(edge-of-window scroll) = %v, want 0", got)
	}
}

func TestCrashReadings(t *testing.T) {
	readings := []core.GlucoseReading{
		{EnergyState: core.EnergyStable},
		{EnergyState: core.EnergyCrashing},
		{EnergyState: core.EnergyRising},
		{EnergyState: core.EnergyReactiveLow},
	}

	crashes := CrashReadings(readings)
	if len(crashes) != 2 {
		t.Fatalf("CrashReadings() returned %d, want 2", len(crashes))
	}
	if crashes[0].EnergyState != core.EnergyCrashing || crashes[1].EnergyState != core.EnergyReactiveLow {
		t.Errorf("CrashReadings() kept wrong states: %v", crashes)
	}
}

package synth

import (
	"math"
	"math/rand"
	"time"
)

// Pre-churn signal policies. These are the embedded business logic the
// downstream model is meant to learn. Both are plain tunable values, not
// hardcoded constants, so the generator's difficulty is configurable and
// each signal can be verified in isolation.

// SupportSpikePolicy boosts support-interaction density in the final
// WindowDays before a customer's churn date by Multiplier relative to the
// customer's base daily rate.
type SupportSpikePolicy struct {
	WindowDays int
	Multiplier float64
}

func (p SupportSpikePolicy) validate() error {
	if p.WindowDays < 0 {
		return &ConfigError{Field: "signals.support_spike.window_days", Reason: "must be >= 0"}
	}
	if p.Multiplier < 1 {
		return &ConfigError{Field: "signals.support_spike.multiplier", Reason: "must be >= 1"}
	}
	return nil
}

// ExtraInteractions returns additional interaction dates inside the
// pre-churn window. The extra expected count is baseDailyRate*(Multiplier-1)
// per day, so the combined density in the window is Multiplier times base.
// The window is clamped to the customer's active range.
func (p SupportSpikePolicy) ExtraInteractions(rng *rand.Rand, baseDailyRate float64, activeStart, churnDate time.Time) []time.Time {
	if p.WindowDays == 0 || p.Multiplier <= 1 || baseDailyRate <= 0 {
		return nil
	}
	windowStart := churnDate.AddDate(0, 0, -p.WindowDays)
	if windowStart.Before(activeStart) {
		windowStart = activeStart
	}
	days := daysBetween(windowStart, churnDate) + 1
	if days <= 0 {
		return nil
	}
	n := poisson(rng, baseDailyRate*(p.Multiplier-1)*float64(days))
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, uniformDate(rng, windowStart, churnDate))
	}
	return dates
}

// Usage decay curve shapes.
const (
	CurveLinear      = "linear"
	CurveExponential = "exponential"
)

// UsageDecayPolicy scales usage downward over the final WindowDays before
// churn. At the window start the factor is 1.0; at the churn date it is
// Floor. Outside the window (or for active customers) the factor is 1.0.
type UsageDecayPolicy struct {
	WindowDays int
	Curve      string
	Floor      float64
}

func (p UsageDecayPolicy) validate() error {
	if p.WindowDays < 0 {
		return &ConfigError{Field: "signals.usage_decay.window_days", Reason: "must be >= 0"}
	}
	if p.Curve != CurveLinear && p.Curve != CurveExponential {
		return &ConfigError{Field: "signals.usage_decay.curve", Reason: `must be "linear" or "exponential"`}
	}
	if p.Floor <= 0 || p.Floor > 1 {
		return &ConfigError{Field: "signals.usage_decay.floor", Reason: "must be in (0,1]"}
	}
	return nil
}

// Factor returns the usage multiplier for a record on date given the
// customer's churn date.
func (p UsageDecayPolicy) Factor(date, churnDate time.Time) float64 {
	if p.WindowDays == 0 {
		return 1.0
	}
	daysLeft := daysBetween(date, churnDate)
	if daysLeft >= p.WindowDays {
		return 1.0
	}
	if daysLeft < 0 {
		daysLeft = 0
	}
	progress := 1.0 - float64(daysLeft)/float64(p.WindowDays)
	switch p.Curve {
	case CurveExponential:
		return math.Pow(p.Floor, progress)
	default:
		return 1.0 - (1.0-p.Floor)*progress
	}
}

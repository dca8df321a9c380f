// Package orchestrator drives predictive dialing: it decides how many calls
// to place for the available operators, adjusts the pace from the observed
// abandon rate, and routes answered calls to operators.
package orchestrator

import (
	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

// Config holds the control parameters of the pacing algorithm.
type Config struct {
	// BaseDialRatio is the ratio used until enough answered calls exist to
	// measure the abandon rate.
	BaseDialRatio float64
	// MinDialRatio and MaxDialRatio clamp the adaptive ratio.
	MinDialRatio float64
	MaxDialRatio float64
	// TargetAbandonRate is the compliance ceiling the controller steers
	// toward, e.g. 0.03 for 3%.
	TargetAbandonRate float64
}

// DefaultConfig returns the stock pacing parameters.
func DefaultConfig() Config {
	return Config{
		BaseDialRatio:     3.0,
		MinDialRatio:      1.0,
		MaxDialRatio:      5.0,
		TargetAbandonRate: 0.03,
	}
}

// Controller tuning. The sample floor keeps the controller on the base ratio
// until the abandon rate is statistically meaningful; the sensitivity scales
// the proportional term.
const (
	minSampleSize   = 10
	sensitivity     = 10.0
	noAbandonFactor = 1.1
)

// DialRatio computes the adaptive dial ratio from campaign stats using
// proportional control on the abandon-rate error.
func (c Config) DialRatio(stats campaign.Stats) float64 {
	answered := stats.ConnectedLeads + stats.AbandonedLeads
	if answered < minSampleSize {
		return c.BaseDialRatio
	}

	current := stats.AbandonRate()
	var adjustment float64
	if current > 0 {
		adjustment = 1.0 + (c.TargetAbandonRate-current)*sensitivity
	} else {
		adjustment = noAbandonFactor
	}

	ratio := c.BaseDialRatio * adjustment
	if ratio < c.MinDialRatio {
		return c.MinDialRatio
	}
	if ratio > c.MaxDialRatio {
		return c.MaxDialRatio
	}
	return ratio
}

// CallsToMake returns how many new calls to launch given the operators
// waiting, the dial ratio, and the calls already in flight. Never negative;
// zero when no operator is available.
func CallsToMake(availableOperators int, dialRatio float64, pendingCalls int) int {
	if availableOperators <= 0 {
		return 0
	}
	target := int(float64(availableOperators) * dialRatio)
	if n := target - pendingCalls; n > 0 {
		return n
	}
	return 0
}

// ShouldPause reports whether dialing must stop because the abandon rate has
// exceeded twice the target.
func (c Config) ShouldPause(stats campaign.Stats) bool {
	return stats.AbandonRate() > c.TargetAbandonRate*2
}

// Health grades the dialing operation against the abandon-rate target.
type Health struct {
	Status               string  `json:"status"`
	CurrentAbandonRate   float64 `json:"current_abandon_rate"`
	TargetAbandonRate    float64 `json:"target_abandon_rate"`
	RecommendedDialRatio float64 `json:"recommended_dial_ratio"`
}

// DialingHealth returns the current health grade: healthy at or under target,
// warning up to 1.5x target, critical beyond.
func (c Config) DialingHealth(stats campaign.Stats) Health {
	rate := stats.AbandonRate()
	status := "healthy"
	switch {
	case rate <= c.TargetAbandonRate:
	case rate <= c.TargetAbandonRate*1.5:
		status = "warning"
	default:
		status = "critical"
	}
	return Health{
		Status:               status,
		CurrentAbandonRate:   rate,
		TargetAbandonRate:    c.TargetAbandonRate,
		RecommendedDialRatio: c.DialRatio(stats),
	}
}

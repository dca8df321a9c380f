package orchestrator

import (
	"math"
	"testing"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
)

func statsWith(connected, abandoned int) campaign.Stats {
	return campaign.Stats{ConnectedLeads: connected, AbandonedLeads: abandoned}
}

func TestDialRatioSampleFloor(t *testing.T) {
	cfg := DefaultConfig()

	// 9 answered calls: not enough data, base ratio applies even with a
	// terrible abandon rate.
	if got := cfg.DialRatio(statsWith(4, 5)); got != cfg.BaseDialRatio {
		t.Errorf("DialRatio(9 answered) = %v, want base %v", got, cfg.BaseDialRatio)
	}

	// 10 answered calls crosses the floor and the controller engages.
	if got := cfg.DialRatio(statsWith(5, 5)); got == cfg.BaseDialRatio {
		t.Errorf("DialRatio(10 answered, 50%% abandon) = base ratio, controller not engaged")
	}
}

func TestDialRatioProportional(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		connected int
		abandoned int
		want      float64
	}{
		// rate 0.01, error +0.02: 3.0 * 1.2 = 3.6
		{"under target", 99, 1, 3.6},
		// rate 0.03 exactly on target: 3.0 * 1.0
		{"on target", 97, 3, 3.0},
		// rate 0.10, error -0.07: 3.0 * 0.3 = 0.9 -> clamped to min
		{"over target clamps to min", 90, 10, 1.0},
		// no abandons: gentle 1.1x boost
		{"no abandons", 50, 0, 3.0 * 1.1},
		// all abandoned: huge negative error, clamped to min
		{"all abandoned", 0, 20, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.DialRatio(statsWith(tt.connected, tt.abandoned))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DialRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialRatioClampsToMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDialRatio = 4.8
	// No abandons: 4.8 * 1.1 = 5.28 -> clamped to 5.0.
	if got := cfg.DialRatio(statsWith(50, 0)); got != cfg.MaxDialRatio {
		t.Errorf("DialRatio() = %v, want max %v", got, cfg.MaxDialRatio)
	}
}

func TestCallsToMake(t *testing.T) {
	tests := []struct {
		name      string
		operators int
		ratio     float64
		pending   int
		want      int
	}{
		{"no operators", 0, 3.0, 0, 0},
		{"negative operators", -1, 3.0, 0, 0},
		{"simple", 4, 3.0, 0, 12},
		{"pending subtracted", 4, 3.0, 10, 2},
		{"pending exceeds target", 2, 2.0, 10, 0},
		{"fractional ratio truncates", 3, 1.5, 0, 4},
		{"one operator ratio one", 1, 1.0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CallsToMake(tt.operators, tt.ratio, tt.pending); got != tt.want {
				t.Errorf("CallsToMake(%d, %v, %d) = %d, want %d",
					tt.operators, tt.ratio, tt.pending, got, tt.want)
			}
		})
	}
}

func TestShouldPause(t *testing.T) {
	cfg := DefaultConfig() // target 3%, pause above 6%

	if cfg.ShouldPause(statsWith(94, 6)) {
		t.Error("ShouldPause at exactly 6% = true, want false")
	}
	if !cfg.ShouldPause(statsWith(90, 10)) {
		t.Error("ShouldPause at 10% = false, want true")
	}
	if cfg.ShouldPause(statsWith(0, 0)) {
		t.Error("ShouldPause with no answers = true, want false")
	}
}

func TestDialingHealth(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		connected int
		abandoned int
		want      string
	}{
		{"healthy at zero", 100, 0, "healthy"},
		{"healthy at target", 97, 3, "healthy"},
		{"warning above target", 96, 4, "warning"}, // 4% <= 4.5%
		{"critical past 1.5x", 95, 5, "critical"},  // 5% > 4.5%
		{"critical extreme", 50, 50, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := cfg.DialingHealth(statsWith(tt.connected, tt.abandoned))
			if h.Status != tt.want {
				t.Errorf("health = %s, want %s (rate %v)", h.Status, tt.want, h.CurrentAbandonRate)
			}
		})
	}

	h := cfg.DialingHealth(statsWith(97, 3))
	if h.TargetAbandonRate != 0.03 || h.RecommendedDialRatio == 0 {
		t.Errorf("health payload incomplete: %+v", h)
	}
}

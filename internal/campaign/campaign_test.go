package campaign

import (
	"errors"
	"math"
	"testing"
)

func TestNewCampaignValidation(t *testing.T) {
	tests := []struct {
		name      string
		campName  string
		dialRatio float64
		callerID  string
		wantErr   bool
	}{
		{"valid", "Spring Campaign", 3.0, "", false},
		{"valid with caller id", "C1", 1.5, "+818011112222", false},
		{"blank name", "   ", 3.0, "", true},
		{"empty name", "", 3.0, "", true},
		{"zero ratio", "C1", 0, "", true},
		{"negative ratio", "C1", -1, "", true},
		{"ratio above cap", "C1", 11, "", true},
		{"bad caller id", "C1", 3.0, "0312345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.campName, "", tt.dialRatio, tt.callerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCampaignLifecycle(t *testing.T) {
	c, err := New("C1", "", 3.0, "")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if c.Status != CampaignDraft {
		t.Fatalf("status = %s, want draft", c.Status)
	}

	// Starting with no leads is rejected.
	var stateErr *InvalidCampaignStateError
	if err := c.Start(0); !errors.As(err, &stateErr) {
		t.Fatalf("Start(0) error = %v, want InvalidCampaignStateError", err)
	}

	if err := c.Start(5); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if c.Status != CampaignRunning || c.StartedAt == nil {
		t.Fatalf("after start: status=%s started_at=%v", c.Status, c.StartedAt)
	}

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if c.Status != CampaignStopped {
		t.Errorf("status = %s, want stopped", c.Status)
	}

	// Stopped is terminal.
	if err := c.Resume(); err == nil {
		t.Error("Resume() on stopped = nil, want error")
	}
	if c.CanAcceptLeads() {
		t.Error("stopped campaign accepts leads")
	}
}

func TestCampaignInvalidTransitions(t *testing.T) {
	c, _ := New("C1", "", 3.0, "")

	if err := c.Pause(); err == nil {
		t.Error("Pause() on draft = nil, want error")
	}
	if err := c.Resume(); err == nil {
		t.Error("Resume() on draft = nil, want error")
	}
	if err := c.Stop(); err == nil {
		t.Error("Stop() on draft = nil, want error")
	}

	c.Start(1)
	if err := c.Resume(); err == nil {
		t.Error("Resume() on running = nil, want error")
	}
	if err := c.Start(1); err == nil {
		t.Error("Start() on running = nil, want error")
	}
}

func TestCheckCompletion(t *testing.T) {
	c, _ := New("C1", "", 3.0, "")
	c.Start(2)

	// Active leads remain: not complete.
	if c.CheckCompletion(map[LeadStatus]int{LeadCompleted: 1, LeadCalling: 1}) {
		t.Error("CheckCompletion = true with a calling lead")
	}

	counts := map[LeadStatus]int{LeadCompleted: 1, LeadFailed: 1}
	if !c.CheckCompletion(counts) {
		t.Fatal("CheckCompletion = false with all leads terminal")
	}
	if c.Status != CampaignCompleted || c.CompletedAt == nil {
		t.Fatalf("after completion: status=%s completed_at=%v", c.Status, c.CompletedAt)
	}

	// Idempotent: already completed returns false, state unchanged.
	if c.CheckCompletion(counts) {
		t.Error("second CheckCompletion = true, want false")
	}
}

func TestUpdateDialRatio(t *testing.T) {
	c, _ := New("C1", "", 3.0, "")
	if err := c.UpdateDialRatio(2.5); err != nil {
		t.Fatalf("UpdateDialRatio() error: %v", err)
	}
	if c.DialRatio != 2.5 {
		t.Errorf("dial_ratio = %v, want 2.5", c.DialRatio)
	}
	if err := c.UpdateDialRatio(-1); err == nil {
		t.Error("UpdateDialRatio(-1) = nil, want error")
	}
}

func TestStatsAbandonRate(t *testing.T) {
	tests := []struct {
		name      string
		connected int
		abandoned int
		want      float64
	}{
		{"no answers", 0, 0, 0},
		{"no abandons", 10, 0, 0},
		{"all abandoned", 0, 5, 1},
		{"mixed", 50, 10, 10.0 / 60.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{ConnectedLeads: tt.connected, AbandonedLeads: tt.abandoned}
			got := s.AbandonRate()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AbandonRate() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("AbandonRate() = %v out of [0,1]", got)
			}
		})
	}
}

func TestStatsFromCounts(t *testing.T) {
	counts := map[LeadStatus]int{
		LeadPending:   3,
		LeadCalling:   2,
		LeadConnected: 1,
		LeadCompleted: 4,
		LeadFailed:    2,
		LeadDNC:       1,
	}
	s := StatsFromCounts(counts, 5)
	if s.TotalLeads != 13 {
		t.Errorf("total = %d, want 13", s.TotalLeads)
	}
	if s.AbandonedLeads != 5 {
		t.Errorf("abandoned = %d, want 5", s.AbandonedLeads)
	}
	if s.PendingLeads != 3 || s.CompletedLeads != 4 {
		t.Errorf("counts mapped wrong: %+v", s)
	}
}

package campaign

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignRunning   CampaignStatus = "running"
	CampaignPaused    CampaignStatus = "paused"
	CampaignStopped   CampaignStatus = "stopped"   // terminal
	CampaignCompleted CampaignStatus = "completed" // terminal
)

// Dial ratio validation bounds. The ratio is a soft-capped positive real; the
// orchestrator clamps the effective ratio further at runtime.
const (
	MinDialRatio = 0.001
	MaxDialRatio = 10.0
)

// DefaultDialRatio is used when a campaign is created without one.
const DefaultDialRatio = 3.0

// MaxNameLen is the maximum campaign name length.
const MaxNameLen = 100

// Campaign is an owned batch of leads plus dialing configuration. Lead rows
// live in the repository; the struct carries only campaign-level state.
type Campaign struct {
	ID          string
	Name        string
	Description string

	Status CampaignStatus

	// DialRatio is the configured concurrent-calls-per-operator ceiling.
	DialRatio float64
	// CallerID is the optional E.164 originating number.
	CallerID string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// New creates a DRAFT campaign after validating the name and dial ratio.
func New(name, description string, dialRatio float64, callerID string) (*Campaign, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateDialRatio(dialRatio); err != nil {
		return nil, err
	}
	if callerID != "" {
		if err := ValidatePhoneNumber(callerID); err != nil {
			return nil, &ValidationError{Field: "caller_id", Message: "must be E.164 format"}
		}
	}
	now := time.Now().UTC()
	return &Campaign{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      CampaignDraft,
		DialRatio:   dialRatio,
		CallerID:    callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validateName(name string) error {
	trimmed := 0
	for _, r := range name {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			trimmed++
		}
	}
	if trimmed == 0 {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len([]rune(name)) > MaxNameLen {
		return &ValidationError{Field: "name", Message: "exceeds maximum length"}
	}
	return nil
}

// ValidateDialRatio checks that r is positive and within the soft cap.
func ValidateDialRatio(r float64) error {
	if r < MinDialRatio || r > MaxDialRatio {
		return &ValidationError{Field: "dial_ratio", Message: "must be positive and at most 10"}
	}
	return nil
}

func (c *Campaign) touch() {
	c.UpdatedAt = time.Now().UTC()
}

// CanAcceptLeads reports whether leads may be added in the current state.
// Allowed in DRAFT, RUNNING, and PAUSED.
func (c *Campaign) CanAcceptLeads() bool {
	switch c.Status {
	case CampaignDraft, CampaignRunning, CampaignPaused:
		return true
	}
	return false
}

// Start transitions DRAFT -> RUNNING. leadCount guards against starting an
// empty campaign; started_at is stamped on the first start only.
func (c *Campaign) Start(leadCount int) error {
	if c.Status != CampaignDraft {
		return &InvalidCampaignStateError{CurrentStatus: c.Status, Action: "start"}
	}
	if leadCount == 0 {
		return &InvalidCampaignStateError{CurrentStatus: c.Status, Action: "start", Reason: "no leads in campaign"}
	}
	now := time.Now().UTC()
	c.Status = CampaignRunning
	c.StartedAt = &now
	c.touch()
	return nil
}

// Pause transitions RUNNING -> PAUSED.
func (c *Campaign) Pause() error {
	if c.Status != CampaignRunning {
		return &InvalidCampaignStateError{CurrentStatus: c.Status, Action: "pause"}
	}
	c.Status = CampaignPaused
	c.touch()
	return nil
}

// Resume transitions PAUSED -> RUNNING.
func (c *Campaign) Resume() error {
	if c.Status != CampaignPaused {
		return &InvalidCampaignStateError{CurrentStatus: c.Status, Action: "resume"}
	}
	c.Status = CampaignRunning
	c.touch()
	return nil
}

// Stop transitions RUNNING or PAUSED -> STOPPED. Terminal.
func (c *Campaign) Stop() error {
	if c.Status != CampaignRunning && c.Status != CampaignPaused {
		return &InvalidCampaignStateError{CurrentStatus: c.Status, Action: "stop"}
	}
	c.Status = CampaignStopped
	c.touch()
	return nil
}

// CheckCompletion marks a RUNNING campaign COMPLETED when no lead remains in a
// non-terminal state. Idempotent: returns true only on the transition.
func (c *Campaign) CheckCompletion(counts map[LeadStatus]int) bool {
	if c.Status != CampaignRunning {
		return false
	}
	if counts[LeadPending] > 0 || counts[LeadCalling] > 0 || counts[LeadConnected] > 0 {
		return false
	}
	now := time.Now().UTC()
	c.Status = CampaignCompleted
	c.CompletedAt = &now
	c.touch()
	return true
}

// UpdateDialRatio replaces the configured dial ratio after validation.
func (c *Campaign) UpdateDialRatio(r float64) error {
	if err := ValidateDialRatio(r); err != nil {
		return err
	}
	c.DialRatio = r
	c.touch()
	return nil
}

// Stats holds the per-campaign lead counts plus the abandoned counter
// maintained by the orchestrator. Derived, never stored.
type Stats struct {
	TotalLeads     int `json:"total_leads"`
	PendingLeads   int `json:"pending_leads"`
	CallingLeads   int `json:"calling_leads"`
	ConnectedLeads int `json:"connected_leads"`
	CompletedLeads int `json:"completed_leads"`
	FailedLeads    int `json:"failed_leads"`
	DNCLeads       int `json:"dnc_leads"`
	AbandonedLeads int `json:"abandoned_leads"`
}

// StatsFromCounts builds Stats from a status->count map and the orchestrator's
// abandoned counter.
func StatsFromCounts(counts map[LeadStatus]int, abandoned int) Stats {
	s := Stats{
		PendingLeads:   counts[LeadPending],
		CallingLeads:   counts[LeadCalling],
		ConnectedLeads: counts[LeadConnected],
		CompletedLeads: counts[LeadCompleted],
		FailedLeads:    counts[LeadFailed],
		DNCLeads:       counts[LeadDNC],
		AbandonedLeads: abandoned,
	}
	for _, n := range counts {
		s.TotalLeads += n
	}
	return s
}

// AbandonRate is abandoned / (connected + abandoned), or 0 with no answers.
func (s Stats) AbandonRate() float64 {
	answered := s.ConnectedLeads + s.AbandonedLeads
	if answered == 0 {
		return 0
	}
	return float64(s.AbandonedLeads) / float64(answered)
}

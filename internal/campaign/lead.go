package campaign

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the state of a lead in the calling workflow.
type LeadStatus string

const (
	LeadPending   LeadStatus = "pending"   // not yet dialed
	LeadCalling   LeadStatus = "calling"   // outbound call in flight
	LeadConnected LeadStatus = "connected" // bridged to an operator
	LeadCompleted LeadStatus = "completed" // call finished with an outcome
	LeadFailed    LeadStatus = "failed"    // call failed (busy, no_answer, machine, ...)
	LeadDNC       LeadStatus = "dnc"       // do not call; terminal
)

// DefaultMaxRetries is the retry budget for new leads.
const DefaultMaxRetries = 3

// e164Re matches E.164 phone numbers: + followed by 2-15 digits, no leading zero.
var e164Re = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidatePhoneNumber checks that phone is in E.164 format.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return &ValidationError{Field: "phone_number", Message: "is required"}
	}
	if !e164Re.MatchString(phone) {
		return &ValidationError{
			Field:   "phone_number",
			Message: "invalid format " + phone + ", must be E.164 (e.g. +818011112222)",
		}
	}
	return nil
}

// CallAttempt is one entry in a lead's append-only call history.
type CallAttempt struct {
	Timestamp     time.Time `json:"timestamp"`
	AttemptNumber int       `json:"attempt_number"`
	Outcome       string    `json:"outcome,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Lead is one prospective callee in a campaign. All state transitions go
// through the mutator methods, which enforce the allowed predecessor set and
// leave the lead untouched on error.
type Lead struct {
	ID          string
	CampaignID  string
	PhoneNumber string
	Name        string
	Company     string
	Email       string
	Notes       string

	Status     LeadStatus
	Outcome    string
	FailReason string

	RetryCount int
	MaxRetries int

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastCalledAt *time.Time

	CallHistory []CallAttempt
}

// NewLead creates a PENDING lead with a validated E.164 phone number.
func NewLead(phoneNumber string) (*Lead, error) {
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Lead{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		Status:      LeadPending,
		MaxRetries:  DefaultMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Lead) touch() {
	l.UpdatedAt = time.Now().UTC()
}

func (l *Lead) requireStatus(action string, allowed ...LeadStatus) error {
	for _, s := range allowed {
		if l.Status == s {
			return nil
		}
	}
	return &InvalidLeadTransitionError{CurrentStatus: l.Status, Action: action}
}

// StartCalling transitions PENDING -> CALLING and stamps last_called_at.
func (l *Lead) StartCalling() error {
	if err := l.requireStatus("start_calling", LeadPending); err != nil {
		return err
	}
	now := time.Now().UTC()
	l.Status = LeadCalling
	l.LastCalledAt = &now
	l.touch()
	return nil
}

// Removable reports whether the lead may be deleted from its campaign. Only
// PENDING leads can go; anything with call activity stays for the record.
func (l *Lead) Removable() error {
	return l.requireStatus("remove", LeadPending)
}

// Connect transitions CALLING -> CONNECTED after AMD detects a human and an
// operator is bridged in.
func (l *Lead) Connect() error {
	if err := l.requireStatus("connect", LeadCalling); err != nil {
		return err
	}
	l.Status = LeadConnected
	l.touch()
	return nil
}

// Complete transitions CONNECTED -> COMPLETED with an outcome tag and records
// the attempt in the call history.
func (l *Lead) Complete(outcome string) error {
	if err := l.requireStatus("complete", LeadConnected); err != nil {
		return err
	}
	l.Status = LeadCompleted
	l.Outcome = outcome
	l.recordAttempt(outcome, "")
	l.touch()
	return nil
}

// Fail transitions CALLING -> FAILED with a reason tag and records the attempt
// in the call history.
func (l *Lead) Fail(reason string) error {
	if err := l.requireStatus("fail", LeadCalling); err != nil {
		return err
	}
	l.Status = LeadFailed
	l.FailReason = reason
	l.recordAttempt("", reason)
	l.touch()
	return nil
}

// Retry transitions FAILED -> PENDING, incrementing the retry counter.
// Fails with RetryLimitError once retry_count reaches max_retries.
func (l *Lead) Retry() error {
	if err := l.requireStatus("retry", LeadFailed); err != nil {
		return err
	}
	if l.RetryCount >= l.MaxRetries {
		return &RetryLimitError{RetryCount: l.RetryCount, MaxRetries: l.MaxRetries}
	}
	l.Status = LeadPending
	l.RetryCount++
	l.FailReason = ""
	l.touch()
	return nil
}

// MarkDNC moves the lead to the terminal DNC state. Idempotent: calling it on
// an already-DNC lead is a no-op.
func (l *Lead) MarkDNC() {
	if l.Status == LeadDNC {
		return
	}
	l.Status = LeadDNC
	l.touch()
}

// CanBeCalled reports whether the lead is eligible for dialing.
func (l *Lead) CanBeCalled() bool {
	return l.Status == LeadPending
}

func (l *Lead) recordAttempt(outcome, reason string) {
	l.CallHistory = append(l.CallHistory, CallAttempt{
		Timestamp:     time.Now().UTC(),
		AttemptNumber: len(l.CallHistory) + 1,
		Outcome:       outcome,
		Reason:        reason,
	})
}

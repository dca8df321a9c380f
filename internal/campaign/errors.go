package campaign

import "fmt"

// InvalidLeadTransitionError is returned when a lead mutator is called from a
// state that does not allow it. The lead is left unchanged.
type InvalidLeadTransitionError struct {
	CurrentStatus LeadStatus
	Action        string
}

func (e *InvalidLeadTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %s", e.Action, e.CurrentStatus)
}

// RetryLimitError is returned by Lead.Retry when the retry budget is exhausted.
type RetryLimitError struct {
	RetryCount int
	MaxRetries int
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("retry limit reached (%d of %d)", e.RetryCount, e.MaxRetries)
}

// InvalidCampaignStateError is returned when a campaign lifecycle action is
// attempted from a state that does not allow it.
type InvalidCampaignStateError struct {
	CurrentStatus CampaignStatus
	Action        string
	Reason        string
}

func (e *InvalidCampaignStateError) Error() string {
	msg := fmt.Sprintf("cannot %s campaign in %s status", e.Action, e.CurrentStatus)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// DuplicatePhoneError is returned when a lead's phone number already exists in
// the target campaign.
type DuplicatePhoneError struct {
	PhoneNumber string
}

func (e *DuplicatePhoneError) Error() string {
	return fmt.Sprintf("phone number %s already exists in campaign", e.PhoneNumber)
}

// ValidationError reports an invalid field value on campaign or lead input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

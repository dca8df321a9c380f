// Package operator tracks call-center operator sessions and routes connected
// calls to the operator who has waited longest.
package operator

import "time"

// Status is an operator's availability state.
type Status string

const (
	StatusOffline   Status = "offline"
	StatusAvailable Status = "available"
	StatusOnCall    Status = "on_call"
	StatusOnBreak   Status = "on_break"
	StatusWrapUp    Status = "wrap_up"
)

// Session is one operator's live session state. IdleSince is set exactly when
// the operator is AVAILABLE; every other state clears it. Sessions are owned
// by a Manager, which serializes all mutation.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Status Status `json:"status"`

	CurrentCallSID string `json:"current_call_sid,omitempty"`
	CurrentLeadID  string `json:"current_lead_id,omitempty"`

	IdleSince        *time.Time `json:"-"`
	CallStartedAt    *time.Time `json:"-"`
	SessionStartedAt *time.Time `json:"session_started_at,omitempty"`

	CallsHandled  int `json:"calls_handled"`
	TotalTalkTime int `json:"total_talk_time_seconds"`
}

// NewSession creates an OFFLINE session.
func NewSession(id, name string) *Session {
	return &Session{ID: id, Name: name, Status: StatusOffline}
}

// IdleDuration is how long the operator has been waiting for a call. Zero
// unless AVAILABLE.
func (s *Session) IdleDuration(now time.Time) time.Duration {
	if s.IdleSince == nil {
		return 0
	}
	return now.Sub(*s.IdleSince)
}

// Available reports whether the operator can take a call.
func (s *Session) Available() bool {
	return s.Status == StatusAvailable
}

func (s *Session) goOnline(now time.Time) {
	s.Status = StatusAvailable
	s.IdleSince = &now
	s.SessionStartedAt = &now
}

func (s *Session) goOffline() {
	s.Status = StatusOffline
	s.IdleSince = nil
	s.CurrentCallSID = ""
	s.CurrentLeadID = ""
}

func (s *Session) startCall(callSID, leadID string, now time.Time) {
	s.Status = StatusOnCall
	s.CurrentCallSID = callSID
	s.CurrentLeadID = leadID
	s.CallStartedAt = &now
	s.IdleSince = nil
}

func (s *Session) endCall(now time.Time) {
	if s.CallStartedAt != nil {
		s.TotalTalkTime += int(now.Sub(*s.CallStartedAt).Seconds())
		s.CallsHandled++
	}
	s.Status = StatusAvailable
	s.CurrentCallSID = ""
	s.CurrentLeadID = ""
	s.CallStartedAt = nil
	s.IdleSince = &now
}

func (s *Session) goOnBreak() {
	s.Status = StatusOnBreak
	s.IdleSince = nil
}

func (s *Session) startWrapUp() {
	s.Status = StatusWrapUp
	s.IdleSince = nil
}

func (s *Session) backToAvailable(now time.Time) {
	s.Status = StatusAvailable
	s.IdleSince = &now
}

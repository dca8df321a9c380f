// Package telephony abstracts the outbound calling provider. The dialer talks
// to this interface only; implementations are the Twilio REST client and an
// in-process mock for development and tests.
package telephony

import "context"

// CallStatus mirrors the provider's call lifecycle states.
type CallStatus string

const (
	StatusQueued     CallStatus = "queued"
	StatusRinging    CallStatus = "ringing"
	StatusInProgress CallStatus = "in-progress"
	StatusCompleted  CallStatus = "completed"
	StatusBusy       CallStatus = "busy"
	StatusFailed     CallStatus = "failed"
	StatusNoAnswer   CallStatus = "no-answer"
	StatusCanceled   CallStatus = "canceled"
)

// Terminal reports whether the status ends the call.
func (s CallStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusFailed, StatusNoAnswer, StatusCanceled:
		return true
	}
	return false
}

// AMDResult is the answering machine detection verdict for an answered call.
type AMDResult string

const (
	AMDHuman             AMDResult = "human"
	AMDMachineStart      AMDResult = "machine_start"
	AMDMachineEndBeep    AMDResult = "machine_end_beep"
	AMDMachineEndSilence AMDResult = "machine_end_silence"
	AMDMachineEndOther   AMDResult = "machine_end_other"
	AMDFax               AMDResult = "fax"
	AMDUnknown           AMDResult = "unknown"
)

// Machine reports whether the verdict is an answering machine or fax.
func (r AMDResult) Machine() bool {
	switch r {
	case AMDMachineStart, AMDMachineEndBeep, AMDMachineEndSilence, AMDMachineEndOther, AMDFax:
		return true
	}
	return false
}

// CallResult is the provider's response to a call initiation.
type CallResult struct {
	CallSID string
	Status  CallStatus
	To      string
	From    string
}

// Conference identifies a conference room. Providers create rooms lazily, so
// the SID may be a placeholder until the first participant joins.
type Conference struct {
	SID          string
	FriendlyName string
	Status       string
}

// CallOptions tune an outbound call.
type CallOptions struct {
	// StatusCallbackURL overrides the default status webhook destination.
	StatusCallbackURL string
	// MachineDetection enables asynchronous AMD on the call.
	MachineDetection bool
}

// ParticipantOptions tune how a call joins a conference.
type ParticipantOptions struct {
	Muted bool
	Hold  bool
}

// Service is the telephony port used by the orchestrator and webhook layer.
type Service interface {
	// MakeCall starts an outbound call to an E.164 number.
	MakeCall(ctx context.Context, to, from string, opts CallOptions) (*CallResult, error)
	// CreateConference prepares a named conference room.
	CreateConference(ctx context.Context, friendlyName string) (*Conference, error)
	// AddParticipant moves an active call into a conference room.
	AddParticipant(ctx context.Context, conferenceName, callSID string, opts ParticipantOptions) error
	// HangupCall ends a call regardless of its current state.
	HangupCall(ctx context.Context, callSID string) error
	// GetCallStatus fetches the provider's current view of a call.
	GetCallStatus(ctx context.Context, callSID string) (CallStatus, error)
}

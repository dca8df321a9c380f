package telephony

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockCall is the mock's view of one simulated call.
type MockCall struct {
	CallSID       string
	To            string
	From          string
	Status        CallStatus
	AMDResult     AMDResult
	ConferenceSID string
}

// MockConference is the mock's view of one simulated room.
type MockConference struct {
	SID          string
	FriendlyName string
	Status       string
	Participants []string
}

// MockService simulates the provider in-process. Calls progress through
// queued, ringing and in-progress on timers, then emit an AMD verdict, so the
// full dialing loop can run without a provider account.
type MockService struct {
	// Delays between simulated call states. Tests shrink these.
	RingDelay   time.Duration
	AnswerDelay time.Duration
	AMDDelay    time.Duration

	mu          sync.Mutex
	calls       map[string]*MockCall
	conferences map[string]*MockConference

	defaultAMD AMDResult
	nextStatus CallStatus // forced terminal outcome for the next call, if set

	statusFn func(callSID string, status CallStatus)
	amdFn    func(callSID string, result AMDResult)
}

// NewMockService creates a mock with development-friendly timings.
func NewMockService() *MockService {
	return &MockService{
		RingDelay:   500 * time.Millisecond,
		AnswerDelay: time.Second,
		AMDDelay:    2 * time.Second,
		calls:       make(map[string]*MockCall),
		conferences: make(map[string]*MockConference),
		defaultAMD:  AMDHuman,
	}
}

// OnStatusChange registers the callback invoked on every simulated status
// transition. The orchestrator wires this to its status-webhook handler.
func (s *MockService) OnStatusChange(fn func(callSID string, status CallStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusFn = fn
}

// OnAMDResult registers the callback invoked when a simulated AMD verdict is
// ready.
func (s *MockService) OnAMDResult(fn func(callSID string, result AMDResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amdFn = fn
}

// SetDefaultAMDResult changes the verdict emitted for answered calls.
func (s *MockService) SetDefaultAMDResult(r AMDResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultAMD = r
}

// ForceNextOutcome makes the next call end with a terminal status (busy,
// no-answer, failed) instead of being answered.
func (s *MockService) ForceNextOutcome(status CallStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextStatus = status
}

func mockSID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// MakeCall starts a simulated call.
func (s *MockService) MakeCall(_ context.Context, to, from string, opts CallOptions) (*CallResult, error) {
	s.mu.Lock()
	call := &MockCall{
		CallSID: mockSID("CA"),
		To:      to,
		From:    from,
		Status:  StatusQueued,
	}
	s.calls[call.CallSID] = call
	forced := s.nextStatus
	s.nextStatus = ""
	s.mu.Unlock()

	go s.progress(call.CallSID, opts.MachineDetection, forced)

	return &CallResult{CallSID: call.CallSID, Status: StatusQueued, To: to, From: from}, nil
}

// progress walks a call through its simulated lifecycle. Each step re-checks
// the stored status so a hangup stops the progression.
func (s *MockService) progress(callSID string, machineDetection bool, forced CallStatus) {
	time.Sleep(s.RingDelay)
	if !s.advance(callSID, StatusQueued, StatusRinging) {
		return
	}

	time.Sleep(s.AnswerDelay)
	if forced != "" && forced.Terminal() {
		s.advance(callSID, StatusRinging, forced)
		return
	}
	if !s.advance(callSID, StatusRinging, StatusInProgress) {
		return
	}

	if !machineDetection {
		return
	}
	time.Sleep(s.AMDDelay)

	s.mu.Lock()
	call, ok := s.calls[callSID]
	if !ok || call.Status != StatusInProgress {
		s.mu.Unlock()
		return
	}
	call.AMDResult = s.defaultAMD
	result := call.AMDResult
	fn := s.amdFn
	s.mu.Unlock()

	if fn != nil {
		fn(callSID, result)
	}
}

// advance moves a call from one status to the next and fires the status
// callback. Returns false when the call is gone or no longer in from.
func (s *MockService) advance(callSID string, from, to CallStatus) bool {
	s.mu.Lock()
	call, ok := s.calls[callSID]
	if !ok || call.Status != from {
		s.mu.Unlock()
		return false
	}
	call.Status = to
	fn := s.statusFn
	s.mu.Unlock()

	if fn != nil {
		fn(callSID, to)
	}
	return true
}

// CreateConference creates a simulated room.
func (s *MockService) CreateConference(_ context.Context, friendlyName string) (*Conference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conf := &MockConference{SID: mockSID("CF"), FriendlyName: friendlyName, Status: "init"}
	s.conferences[conf.SID] = conf
	return &Conference{SID: conf.SID, FriendlyName: conf.FriendlyName, Status: conf.Status}, nil
}

// AddParticipant joins a simulated call to a room. Rooms referenced by
// friendly name are created on first join, matching provider behavior.
func (s *MockService) AddParticipant(_ context.Context, conferenceName, callSID string, _ ParticipantOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call, ok := s.calls[callSID]
	if !ok {
		return fmt.Errorf("call %s not found", callSID)
	}

	var conf *MockConference
	for _, c := range s.conferences {
		if c.FriendlyName == conferenceName || c.SID == conferenceName {
			conf = c
			break
		}
	}
	if conf == nil {
		conf = &MockConference{SID: mockSID("CF"), FriendlyName: conferenceName, Status: "init"}
		s.conferences[conf.SID] = conf
	}

	conf.Participants = append(conf.Participants, callSID)
	conf.Status = "in-progress"
	call.ConferenceSID = conf.SID
	return nil
}

// HangupCall completes a simulated call and fires the status callback.
func (s *MockService) HangupCall(_ context.Context, callSID string) error {
	s.mu.Lock()
	call, ok := s.calls[callSID]
	if !ok || call.Status.Terminal() {
		s.mu.Unlock()
		return nil
	}
	call.Status = StatusCompleted
	fn := s.statusFn
	s.mu.Unlock()

	if fn != nil {
		fn(callSID, StatusCompleted)
	}
	return nil
}

// GetCallStatus returns a simulated call's status.
func (s *MockService) GetCallStatus(_ context.Context, callSID string) (CallStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[callSID]
	if !ok {
		return "", fmt.Errorf("call %s not found", callSID)
	}
	return call.Status, nil
}

// Call returns the mock's record for a call, for assertions in tests.
func (s *MockService) Call(callSID string) *MockCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calls[callSID]; ok {
		snapshot := *c
		return &snapshot
	}
	return nil
}

// ConferenceByName returns the room with the given friendly name, if any.
func (s *MockService) ConferenceByName(name string) *MockConference {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conferences {
		if c.FriendlyName == name {
			snapshot := *c
			snapshot.Participants = append([]string(nil), c.Participants...)
			return &snapshot
		}
	}
	return nil
}

// Reset clears all simulated state.
func (s *MockService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]*MockCall)
	s.conferences = make(map[string]*MockConference)
}

var _ Service = (*MockService)(nil)
var _ Service = (*TwilioService)(nil)

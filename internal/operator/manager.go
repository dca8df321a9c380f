package operator

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxIdle is the idle threshold beyond which an operator is reported
// as long-idle.
const DefaultMaxIdle = 5 * time.Minute

// Stats is a point-in-time census of operator states.
type Stats struct {
	Total       int     `json:"total"`
	Available   int     `json:"available"`
	OnCall      int     `json:"on_call"`
	OnBreak     int     `json:"on_break"`
	Offline     int     `json:"offline"`
	Utilization float64 `json:"utilization"`
}

// Manager owns all operator sessions. All reads return copies; callers never
// hold references into the managed map.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxIdle  time.Duration

	now func() time.Time // swapped in tests
}

// NewManager creates a Manager. A zero maxIdle means DefaultMaxIdle.
func NewManager(maxIdle time.Duration) *Manager {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &Manager{
		sessions: make(map[string]*Session),
		maxIdle:  maxIdle,
		now:      time.Now,
	}
}

// Add registers an operator session, replacing any previous session with the
// same ID.
func (m *Manager) Add(id, name string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := NewSession(id, name)
	m.sessions[id] = s
	return *s
}

// Ensure returns the session for id, creating an OFFLINE one if absent. An
// existing session survives reconnects untouched.
func (m *Manager) Ensure(id, name string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return *s
	}
	s := NewSession(id, name)
	m.sessions[id] = s
	return *s
}

// Remove drops an operator session. Returns the final state, if any.
func (m *Manager) Remove(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	delete(m.sessions, id)
	return *s, true
}

// Get returns a copy of an operator session.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// List returns copies of all sessions ordered by ID.
func (m *Manager) List() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AvailableCount returns the number of operators ready for a call.
func (m *Manager) AvailableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Available() {
			n++
		}
	}
	return n
}

// GetStats returns the current state census. Utilization is on-call over
// non-offline headcount.
func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var st Stats
	st.Total = len(m.sessions)
	for _, s := range m.sessions {
		switch s.Status {
		case StatusAvailable:
			st.Available++
		case StatusOnCall:
			st.OnCall++
		case StatusOnBreak:
			st.OnBreak++
		case StatusOffline:
			st.Offline++
		}
	}
	active := st.Total - st.Offline
	if active < 1 {
		active = 1
	}
	st.Utilization = float64(st.OnCall) / float64(active)
	return st
}

// SetStatus applies an operator-initiated status change. ON_CALL cannot be
// requested directly; it is entered only through call assignment.
func (m *Manager) SetStatus(id string, status Status) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}

	now := m.now().UTC()
	switch status {
	case StatusAvailable:
		if s.Status == StatusOffline {
			s.goOnline(now)
		} else if s.Status != StatusAvailable && s.Status != StatusOnCall {
			s.backToAvailable(now)
		}
	case StatusOffline:
		s.goOffline()
	case StatusOnBreak:
		s.goOnBreak()
	case StatusWrapUp:
		s.startWrapUp()
	default:
		return Session{}, false
	}
	return *s, true
}

// SelectAndAssign atomically picks the longest-idle available operator and
// puts them ON_CALL with the given call. Ties on idle time break toward the
// smaller ID so distribution is deterministic. Returns false when nobody is
// available.
func (m *Manager) SelectAndAssign(callSID, leadID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *Session
	for _, s := range m.sessions {
		if !s.Available() {
			continue
		}
		if best == nil || idleBefore(s, best) {
			best = s
		}
	}
	if best == nil {
		return Session{}, false
	}

	best.startCall(callSID, leadID, m.now().UTC())
	return *best, true
}

// idleBefore reports whether a should be picked over b: earlier IdleSince
// wins, then smaller ID.
func idleBefore(a, b *Session) bool {
	switch {
	case a.IdleSince.Before(*b.IdleSince):
		return true
	case b.IdleSince.Before(*a.IdleSince):
		return false
	}
	return a.ID < b.ID
}

// AssignCall puts a specific operator ON_CALL. Returns false if the operator
// is missing or not available.
func (m *Manager) AssignCall(id, callSID, leadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.Available() {
		return false
	}
	s.startCall(callSID, leadID, m.now().UTC())
	return true
}

// EndCall finishes an operator's current call, accruing talk time and
// returning them to AVAILABLE. Returns the updated session.
func (m *Manager) EndCall(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	s.endCall(m.now().UTC())
	return *s, true
}

// FindByCall returns the operator currently handling callSID.
func (m *Manager) FindByCall(callSID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.CurrentCallSID == callSID {
			return *s, true
		}
	}
	return Session{}, false
}

// LongIdle returns available operators idle past the manager's threshold.
func (m *Manager) LongIdle() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var out []Session
	for _, s := range m.sessions {
		if s.Available() && s.IdleDuration(now) > m.maxIdle {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/database"
	"github.com/paralleldialer/paralleldialer/internal/operator"
	"github.com/paralleldialer/paralleldialer/internal/telephony"
)

// eventRecorder captures published events for assertions, tagged by
// audience: "all:" for the global channel, "dash:" for dashboards, "op:"
// for targeted operator sends.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) Broadcast(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "all:"+event)
}

func (r *eventRecorder) BroadcastToDashboards(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "dash:"+event)
}

func (r *eventRecorder) SendToOperator(_, event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "op:"+event)
}

func (r *eventRecorder) saw(event string) bool {
	return r.count(event) > 0
}

func (r *eventRecorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type engineFixture struct {
	engine    *Engine
	campaigns database.CampaignRepository
	leads     database.LeadRepository
	operators *operator.Manager
	mock      *telephony.MockService
	rec       *eventRecorder
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock := telephony.NewMockService()
	mock.RingDelay = time.Millisecond
	mock.AnswerDelay = time.Millisecond
	mock.AMDDelay = time.Millisecond

	cfg := DefaultEngineConfig()
	cfg.TickInterval = 10 * time.Millisecond
	cfg.AMDTimeout = time.Second
	cfg.RetryBaseDelay = 10 * time.Millisecond
	cfg.RetryMaxDelay = 40 * time.Millisecond

	f := &engineFixture{
		campaigns: database.NewCampaignRepository(db),
		leads:     database.NewLeadRepository(db),
		operators: operator.NewManager(0),
		mock:      mock,
		rec:       &eventRecorder{},
	}
	f.engine = NewEngine(cfg, f.campaigns, f.leads, mock, f.operators, f.rec, nil)
	t.Cleanup(f.engine.Shutdown)

	mock.OnStatusChange(func(sid string, st telephony.CallStatus) {
		f.engine.HandleCallStatus(context.Background(), sid, st)
	})
	mock.OnAMDResult(func(sid string, r telephony.AMDResult) {
		f.engine.HandleAMDResult(context.Background(), sid, r)
	})
	return f
}

func (f *engineFixture) addCampaign(t *testing.T, phones ...string) *campaign.Campaign {
	t.Helper()
	c, err := campaign.New("Engine Test", "", 3.0, "")
	if err != nil {
		t.Fatalf("campaign.New() error: %v", err)
	}
	if err := f.campaigns.Create(context.Background(), c); err != nil {
		t.Fatalf("creating campaign: %v", err)
	}
	for _, p := range phones {
		l, err := campaign.NewLead(p)
		if err != nil {
			t.Fatalf("NewLead(%s) error: %v", p, err)
		}
		l.CampaignID = c.ID
		if err := f.leads.Create(context.Background(), l); err != nil {
			t.Fatalf("creating lead: %v", err)
		}
	}
	return c
}

func (f *engineFixture) lead(t *testing.T, campaignID string) campaign.Lead {
	t.Helper()
	leads, err := f.leads.ListByCampaign(context.Background(), campaignID)
	if err != nil || len(leads) == 0 {
		t.Fatalf("listing leads: %v (n=%d)", err, len(leads))
	}
	return leads[0]
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngineConnectsHumanToOperator(t *testing.T) {
	f := newEngineFixture(t)
	c := f.addCampaign(t, "+818011110001")
	f.operators.Add("op-1", "Tanaka")
	f.operators.SetStatus("op-1", operator.StatusAvailable)

	if _, err := f.engine.StartCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StartCampaign() error: %v", err)
	}

	waitUntil(t, "lead connected", func() bool {
		return f.lead(t, c.ID).Status == campaign.LeadConnected
	})

	op, _ := f.operators.Get("op-1")
	if op.Status != operator.StatusOnCall {
		t.Fatalf("operator status = %s, want on_call", op.Status)
	}
	if !f.rec.saw("dash:call_connected") || !f.rec.saw("op:incoming_call") {
		t.Error("connect events not published")
	}
	if room := f.mock.ConferenceByName(ConferenceRoom(op.CurrentCallSID)); room == nil {
		t.Error("lead leg not bridged into conference room")
	}

	// Callee hangs up; the lead completes and the operator is released.
	f.mock.HangupCall(context.Background(), op.CurrentCallSID)

	waitUntil(t, "lead completed", func() bool {
		return f.lead(t, c.ID).Status == campaign.LeadCompleted
	})
	l := f.lead(t, c.ID)
	if l.Outcome != "completed" || len(l.CallHistory) != 1 {
		t.Errorf("completed lead = %+v", l)
	}

	op, _ = f.operators.Get("op-1")
	if op.Status != operator.StatusAvailable || op.CallsHandled != 1 {
		t.Errorf("operator after call = %+v", op)
	}
	if !f.rec.saw("dash:call_ended") {
		t.Error("call_ended not published")
	}

	// With its only lead terminal, the campaign completes.
	waitUntil(t, "campaign completed", func() bool {
		got, _ := f.campaigns.GetByID(context.Background(), c.ID)
		return got.Status == campaign.CampaignCompleted
	})
	waitUntil(t, "runner stopped", func() bool {
		return f.engine.RunningCampaigns() == 0
	})
}

func TestEngineCompletesCallOnOperatorRequest(t *testing.T) {
	f := newEngineFixture(t)
	c := f.addCampaign(t, "+818011110002")
	f.operators.Add("op-1", "Tanaka")
	f.operators.SetStatus("op-1", operator.StatusAvailable)

	if _, err := f.engine.StartCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StartCampaign() error: %v", err)
	}
	waitUntil(t, "lead connected", func() bool {
		return f.lead(t, c.ID).Status == campaign.LeadConnected
	})

	op, _ := f.operators.Get("op-1")
	if err := f.engine.CompleteCall(context.Background(), op.CurrentCallSID, "interested"); err != nil {
		t.Fatalf("CompleteCall() error: %v", err)
	}

	l := f.lead(t, c.ID)
	if l.Status != campaign.LeadCompleted || l.Outcome != "interested" {
		t.Errorf("lead = %s/%s, want completed/interested", l.Status, l.Outcome)
	}
	op, _ = f.operators.Get("op-1")
	if op.Status != operator.StatusAvailable || op.CallsHandled != 1 {
		t.Errorf("operator after wrap-up = %+v", op)
	}
	if !f.rec.saw("dash:call_ended") {
		t.Error("call_ended not published")
	}

	if err := f.engine.CompleteCall(context.Background(), "CA-unknown", "interested"); err != ErrCallNotFound {
		t.Errorf("CompleteCall(unknown) error = %v, want ErrCallNotFound", err)
	}
}

func TestEngineAbandonsWhenNoOperatorFree(t *testing.T) {
	f := newEngineFixture(t)
	f.mock.AMDDelay = 150 * time.Millisecond
	c := f.addCampaign(t, "+818011110001")
	f.operators.Add("op-1", "Tanaka")
	f.operators.SetStatus("op-1", operator.StatusAvailable)

	if _, err := f.engine.StartCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StartCampaign() error: %v", err)
	}

	waitUntil(t, "lead calling", func() bool {
		return f.lead(t, c.ID).Status == campaign.LeadCalling
	})
	// Operator walks away before the AMD verdict lands.
	f.operators.SetStatus("op-1", operator.StatusOnBreak)

	waitUntil(t, "abandoned counter", func() bool {
		return f.engine.AbandonedCount(c.ID) == 1
	})
	waitUntil(t, "lead requeued", func() bool {
		l := f.lead(t, c.ID)
		return l.Status == campaign.LeadPending && l.RetryCount == 1
	})

	l := f.lead(t, c.ID)
	if len(l.CallHistory) != 1 || l.CallHistory[0].Reason != "abandoned" {
		t.Errorf("call history = %+v", l.CallHistory)
	}
	if !f.rec.saw("dash:alert") {
		t.Error("abandon alert not published")
	}

	stats, err := f.engine.Stats(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.AbandonedLeads != 1 {
		t.Errorf("stats abandoned = %d, want 1", stats.AbandonedLeads)
	}
}

func TestEngineHangsUpMachines(t *testing.T) {
	f := newEngineFixture(t)
	f.mock.SetDefaultAMDResult(telephony.AMDMachineEndBeep)
	c := f.addCampaign(t, "+818011110001")
	f.operators.Add("op-1", "Tanaka")
	f.operators.SetStatus("op-1", operator.StatusAvailable)

	if _, err := f.engine.StartCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StartCampaign() error: %v", err)
	}

	waitUntil(t, "lead failed", func() bool {
		return f.lead(t, c.ID).Status == campaign.LeadFailed
	})
	l := f.lead(t, c.ID)
	if l.FailReason != "machine" {
		t.Errorf("fail reason = %s, want machine", l.FailReason)
	}

	// Machine answers are not retried; the lead stays failed and the
	// campaign finishes.
	waitUntil(t, "campaign completed", func() bool {
		got, _ := f.campaigns.GetByID(context.Background(), c.ID)
		return got.Status == campaign.CampaignCompleted
	})
	if l := f.lead(t, c.ID); l.Status != campaign.LeadFailed || l.RetryCount != 0 {
		t.Errorf("machine lead retried: %+v", l)
	}
	op, _ := f.operators.Get("op-1")
	if op.Status != operator.StatusAvailable {
		t.Errorf("operator dragged into machine call: %s", op.Status)
	}
}

// failingTelephony rejects every launch.
type failingTelephony struct {
	telephony.Service
}

func (failingTelephony) MakeCall(context.Context, string, string, telephony.CallOptions) (*telephony.CallResult, error) {
	return nil, errors.New("provider unavailable")
}

func TestFailedLaunchRevertsLead(t *testing.T) {
	f := newEngineFixture(t)
	c := f.addCampaign(t, "+818011110003")

	e := NewEngine(DefaultEngineConfig(), f.campaigns, f.leads, failingTelephony{}, f.operators, f.rec, nil)
	t.Cleanup(e.Shutdown)

	l := f.lead(t, c.ID)
	e.launch(context.Background(), c, &l)

	got := f.lead(t, c.ID)
	if got.Status != campaign.LeadPending {
		t.Fatalf("lead status = %s, want pending", got.Status)
	}
	// A failed launch is not a call attempt, so no last-called stamp.
	if got.LastCalledAt != nil {
		t.Errorf("LastCalledAt = %v, want nil after revert", got.LastCalledAt)
	}
	if len(got.CallHistory) != 0 || got.RetryCount != 0 {
		t.Errorf("reverted lead = %+v", got)
	}

	_, _, failed := e.Totals()
	if failed != 1 {
		t.Errorf("failed launches = %d, want 1", failed)
	}
	if !f.rec.saw("dash:alert") {
		t.Error("launch failure alert not published")
	}
}

func TestEngineWarnsAboutLongIdleOperators(t *testing.T) {
	rec := &eventRecorder{}
	ops := operator.NewManager(time.Millisecond)
	e := NewEngine(DefaultEngineConfig(), nil, nil, nil, ops, rec, nil)
	t.Cleanup(e.Shutdown)

	ops.Add("op-1", "Tanaka")
	ops.SetStatus("op-1", operator.StatusAvailable)
	time.Sleep(5 * time.Millisecond)

	e.checkIdleOperators()
	e.checkIdleOperators()
	if n := rec.count("dash:alert"); n != 1 {
		t.Fatalf("idle alerts = %d, want 1 (deduplicated)", n)
	}

	// Leaving and re-entering the idle set re-arms the warning.
	ops.SetStatus("op-1", operator.StatusOnBreak)
	e.checkIdleOperators()
	ops.SetStatus("op-1", operator.StatusAvailable)
	time.Sleep(5 * time.Millisecond)
	e.checkIdleOperators()
	if n := rec.count("dash:alert"); n != 2 {
		t.Errorf("idle alerts after re-idle = %d, want 2", n)
	}
}

func TestEngineRetriesBusy(t *testing.T) {
	f := newEngineFixture(t)
	f.mock.ForceNextOutcome(telephony.StatusBusy)
	c := f.addCampaign(t, "+818011110001")
	f.operators.Add("op-1", "Tanaka")
	f.operators.SetStatus("op-1", operator.StatusAvailable)

	if _, err := f.engine.StartCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StartCampaign() error: %v", err)
	}

	waitUntil(t, "lead requeued after busy", func() bool {
		l := f.lead(t, c.ID)
		return l.RetryCount == 1
	})
	if _, err := f.engine.StopCampaign(context.Background(), c.ID); err != nil {
		t.Fatalf("StopCampaign() error: %v", err)
	}

	l := f.lead(t, c.ID)
	if len(l.CallHistory) == 0 || l.CallHistory[0].Reason != "busy" {
		t.Errorf("call history = %+v", l.CallHistory)
	}
}

func TestEngineStartValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	if _, err := f.engine.StartCampaign(ctx, "missing"); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("StartCampaign(missing) error = %v, want ErrCampaignNotFound", err)
	}

	empty := f.addCampaign(t)
	_, err := f.engine.StartCampaign(ctx, empty.ID)
	var stateErr *campaign.InvalidCampaignStateError
	if !errors.As(err, &stateErr) {
		t.Errorf("StartCampaign(empty) error = %v, want InvalidCampaignStateError", err)
	}
}

func TestConferenceRoomName(t *testing.T) {
	if got := ConferenceRoom("CA123"); got != "room-CA123" {
		t.Errorf("ConferenceRoom() = %s", got)
	}
}

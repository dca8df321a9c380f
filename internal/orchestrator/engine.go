package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/database"
	"github.com/paralleldialer/paralleldialer/internal/operator"
	"github.com/paralleldialer/paralleldialer/internal/telephony"
)

// ErrCampaignNotFound is returned by campaign lifecycle operations for an
// unknown campaign ID.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrCallNotFound is returned when a call SID has no tracked in-flight call.
var ErrCallNotFound = errors.New("call not found")

// Publisher delivers dialer events to connected dashboards and operators.
// The event fabric implements it; tests pass a recorder. Stats, call
// progress and alerts address supervisors only; operators receive targeted
// sends for their own calls.
type Publisher interface {
	Broadcast(event string, data any)
	BroadcastToDashboards(event string, data any)
	SendToOperator(operatorID, event string, data any)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Broadcast(string, any)              {}
func (NopPublisher) BroadcastToDashboards(string, any)  {}
func (NopPublisher) SendToOperator(string, string, any) {}

// EngineConfig tunes the engine's timing behavior on top of the pacing
// parameters.
type EngineConfig struct {
	Control Config
	// TickInterval is the pacing loop period per running campaign.
	TickInterval time.Duration
	// AMDTimeout bounds how long a launched call may wait for an AMD
	// verdict before it is hung up.
	AMDTimeout time.Duration
	// RetryBaseDelay is the first-retry backoff; it doubles per retry and
	// is capped at RetryMaxDelay.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// DefaultEngineConfig returns the stock engine timings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Control:        DefaultConfig(),
		TickInterval:   time.Second,
		AMDTimeout:     30 * time.Second,
		RetryBaseDelay: time.Minute,
		RetryMaxDelay:  10 * time.Minute,
	}
}

// trackedCall links an in-flight provider call to its campaign and lead.
type trackedCall struct {
	campaignID string
	leadID     string
	operatorID string
	amdTimer   *time.Timer
}

// Engine runs the dialing loops. One goroutine per running campaign paces
// launches; webhook handlers feed call status and AMD verdicts back in.
type Engine struct {
	cfg       EngineConfig
	campaigns database.CampaignRepository
	leads     database.LeadRepository
	tel       telephony.Service
	operators *operator.Manager
	pub       Publisher
	log       *slog.Logger

	mu             sync.Mutex
	runners        map[string]context.CancelFunc
	calls          map[string]*trackedCall
	retryTimers    map[string]*time.Timer
	abandoned      map[string]int
	idleAlerted    map[string]bool
	launchedTotal  int
	abandonedTotal int
	failedLaunches int
	closed         bool
}

// NewEngine wires an Engine. A nil publisher is replaced with NopPublisher.
func NewEngine(
	cfg EngineConfig,
	campaigns database.CampaignRepository,
	leads database.LeadRepository,
	tel telephony.Service,
	operators *operator.Manager,
	pub Publisher,
	log *slog.Logger,
) *Engine {
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:         cfg,
		campaigns:   campaigns,
		leads:       leads,
		tel:         tel,
		operators:   operators,
		pub:         pub,
		log:         log,
		runners:     make(map[string]context.CancelFunc),
		calls:       make(map[string]*trackedCall),
		retryTimers: make(map[string]*time.Timer),
		abandoned:   make(map[string]int),
		idleAlerted: make(map[string]bool),
	}
}

// StartCampaign transitions a campaign to RUNNING and starts its pacing loop.
func (e *Engine) StartCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	c, err := e.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCampaignNotFound
	}

	count, err := e.leads.CountByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Start(count); err != nil {
		return nil, err
	}
	if err := e.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}

	e.startRunner(c.ID)
	e.log.Info("campaign started", "campaign_id", c.ID, "leads", count)
	return c, nil
}

// PauseCampaign transitions a campaign to PAUSED and stops its pacing loop.
// In-flight calls are left to finish.
func (e *Engine) PauseCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return e.lifecycle(ctx, id, (*campaign.Campaign).Pause, false)
}

// ResumeCampaign transitions a campaign back to RUNNING and restarts its loop.
func (e *Engine) ResumeCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return e.lifecycle(ctx, id, (*campaign.Campaign).Resume, true)
}

// StopCampaign terminally stops a campaign.
func (e *Engine) StopCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return e.lifecycle(ctx, id, (*campaign.Campaign).Stop, false)
}

func (e *Engine) lifecycle(ctx context.Context, id string, op func(*campaign.Campaign) error, run bool) (*campaign.Campaign, error) {
	c, err := e.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	if err := op(c); err != nil {
		return nil, err
	}
	if err := e.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}

	if run {
		e.startRunner(c.ID)
	} else {
		e.stopRunner(c.ID)
	}
	e.log.Info("campaign state changed", "campaign_id", c.ID, "status", c.Status)
	return c, nil
}

func (e *Engine) startRunner(campaignID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if _, ok := e.runners[campaignID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.runners[campaignID] = cancel
	go e.run(ctx, campaignID)
}

func (e *Engine) stopRunner(campaignID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.runners[campaignID]; ok {
		cancel()
		delete(e.runners, campaignID)
	}
}

func (e *Engine) run(ctx context.Context, campaignID string) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dialTick(ctx, campaignID)
		}
	}
}

// dialTick is one pacing iteration: refresh stats, check completion and the
// abandon guard, then launch the calculated batch of calls.
func (e *Engine) dialTick(ctx context.Context, campaignID string) {
	c, err := e.campaigns.GetByID(ctx, campaignID)
	if err != nil || c == nil || c.Status != campaign.CampaignRunning {
		e.stopRunner(campaignID)
		return
	}

	counts, err := e.leads.CountByStatus(ctx, campaignID)
	if err != nil {
		e.log.Error("counting leads", "campaign_id", campaignID, "error", err)
		return
	}
	stats := campaign.StatsFromCounts(counts, e.AbandonedCount(campaignID))
	e.pub.BroadcastToDashboards("campaign_stats_updated", map[string]any{
		"campaign_id": campaignID,
		"stats":       stats,
	})
	e.checkIdleOperators()

	if c.CheckCompletion(counts) {
		if err := e.campaigns.Update(ctx, c); err != nil {
			e.log.Error("saving completed campaign", "campaign_id", campaignID, "error", err)
			return
		}
		e.alert("info", fmt.Sprintf("campaign %s completed", c.Name), map[string]any{
			"campaign_id": campaignID,
		})
		e.stopRunner(campaignID)
		return
	}

	if e.cfg.Control.ShouldPause(stats) {
		e.alert("warning", "abandon rate over limit, dialing suspended", map[string]any{
			"campaign_id":  campaignID,
			"abandon_rate": stats.AbandonRate(),
		})
		return
	}

	available := e.operators.AvailableCount()
	ratio := e.cfg.Control.DialRatio(stats)
	if c.DialRatio < ratio {
		ratio = c.DialRatio
	}
	n := CallsToMake(available, ratio, counts[campaign.LeadCalling])
	if n <= 0 {
		return
	}

	batch, err := e.leads.ListCallable(ctx, campaignID, n)
	if err != nil {
		e.log.Error("listing callable leads", "campaign_id", campaignID, "error", err)
		return
	}
	for i := range batch {
		e.launch(ctx, c, &batch[i])
	}
}

// checkIdleOperators warns supervisors about available operators idle past
// the manager's threshold. Each operator is warned once per idle stretch;
// leaving the idle set re-arms the warning.
func (e *Engine) checkIdleOperators() {
	idle := e.operators.LongIdle()
	current := make(map[string]bool, len(idle))
	for _, s := range idle {
		current[s.ID] = true
	}

	var fresh []operator.Session
	e.mu.Lock()
	for _, s := range idle {
		if !e.idleAlerted[s.ID] {
			e.idleAlerted[s.ID] = true
			fresh = append(fresh, s)
		}
	}
	for id := range e.idleAlerted {
		if !current[id] {
			delete(e.idleAlerted, id)
		}
	}
	e.mu.Unlock()

	now := time.Now().UTC()
	for _, s := range fresh {
		e.alert("warning", "operator idle too long", map[string]any{
			"operator_id":  s.ID,
			"name":         s.Name,
			"idle_seconds": int(s.IdleDuration(now).Seconds()),
		})
		e.log.Warn("operator idle too long", "operator_id", s.ID, "idle", s.IdleDuration(now))
	}
}

// launch claims one lead and places its call. A provider error puts the lead
// back in the pool: a failed launch is not a call attempt.
func (e *Engine) launch(ctx context.Context, c *campaign.Campaign, l *campaign.Lead) {
	prevCalledAt := l.LastCalledAt
	if err := l.StartCalling(); err != nil {
		return
	}
	if err := e.leads.Update(ctx, l); err != nil {
		e.log.Error("claiming lead", "lead_id", l.ID, "error", err)
		return
	}

	result, err := e.tel.MakeCall(ctx, l.PhoneNumber, c.CallerID, telephony.CallOptions{MachineDetection: true})
	if err != nil {
		e.log.Error("launching call", "lead_id", l.ID, "error", err)
		l.Status = campaign.LeadPending
		l.LastCalledAt = prevCalledAt
		if uerr := e.leads.Update(ctx, l); uerr != nil {
			e.log.Error("releasing lead after failed launch", "lead_id", l.ID, "error", uerr)
		}
		e.mu.Lock()
		e.failedLaunches++
		e.mu.Unlock()
		e.alert("warning", "call launch failed", map[string]any{
			"campaign_id": c.ID,
			"lead_id":     l.ID,
		})
		return
	}

	tc := &trackedCall{campaignID: c.ID, leadID: l.ID}
	tc.amdTimer = time.AfterFunc(e.cfg.AMDTimeout, func() { e.amdTimedOut(result.CallSID) })

	e.mu.Lock()
	e.calls[result.CallSID] = tc
	e.launchedTotal++
	e.mu.Unlock()

	e.log.Info("call launched", "campaign_id", c.ID, "lead_id", l.ID, "call_sid", result.CallSID)
}

// amdTimedOut fires when a call produced no AMD verdict in time.
func (e *Engine) amdTimedOut(callSID string) {
	e.mu.Lock()
	tc, ok := e.calls[callSID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.calls, callSID)
	e.mu.Unlock()

	ctx := context.Background()
	if err := e.tel.HangupCall(ctx, callSID); err != nil {
		e.log.Error("hanging up timed-out call", "call_sid", callSID, "error", err)
	}
	e.failLead(ctx, tc, "amd_timeout")
	e.log.Warn("amd verdict timed out", "call_sid", callSID, "lead_id", tc.leadID)
}

// HandleAMDResult routes an answered call on its AMD verdict: humans go to
// the longest-idle operator, machines and faxes are hung up, and a human with
// nobody available is abandoned.
func (e *Engine) HandleAMDResult(ctx context.Context, callSID string, result telephony.AMDResult) error {
	e.mu.Lock()
	tc, ok := e.calls[callSID]
	if ok {
		if tc.amdTimer != nil {
			tc.amdTimer.Stop()
		}
		// Non-human verdicts end the call here; untrack before the hangup
		// so the resulting status callback is a no-op.
		if result != telephony.AMDHuman {
			delete(e.calls, callSID)
		}
	}
	e.mu.Unlock()
	if !ok {
		e.log.Debug("amd result for unknown call", "call_sid", callSID)
		return nil
	}

	switch {
	case result == telephony.AMDHuman:
		return e.connectHuman(ctx, callSID, tc)
	case result.Machine():
		reason := "machine"
		if result == telephony.AMDFax {
			reason = "fax"
		}
		if err := e.tel.HangupCall(ctx, callSID); err != nil {
			e.log.Error("hanging up machine call", "call_sid", callSID, "error", err)
		}
		e.failLead(ctx, tc, reason)
	default:
		if err := e.tel.HangupCall(ctx, callSID); err != nil {
			e.log.Error("hanging up unknown-amd call", "call_sid", callSID, "error", err)
		}
		e.failLead(ctx, tc, "unknown")
	}
	return nil
}

// connectHuman bridges an answered human to an operator, or abandons the call
// when no operator is free.
func (e *Engine) connectHuman(ctx context.Context, callSID string, tc *trackedCall) error {
	op, ok := e.operators.SelectAndAssign(callSID, tc.leadID)
	if !ok {
		return e.abandon(ctx, callSID, tc)
	}

	e.mu.Lock()
	tc.operatorID = op.ID
	e.mu.Unlock()

	l, err := e.leads.GetByID(ctx, tc.leadID)
	if err == nil && l != nil {
		if err := l.Connect(); err == nil {
			if uerr := e.leads.Update(ctx, l); uerr != nil {
				e.log.Error("saving connected lead", "lead_id", l.ID, "error", uerr)
			}
		}
	}

	room := ConferenceRoom(callSID)
	if _, err := e.tel.CreateConference(ctx, room); err != nil {
		e.log.Error("creating conference", "call_sid", callSID, "error", err)
	}
	// The voice webhook answered with a pause; the lead's leg joins the room
	// through a REST redirect once an operator is committed.
	if err := e.tel.AddParticipant(ctx, room, callSID, telephony.ParticipantOptions{}); err != nil {
		e.log.Error("bridging lead into conference", "call_sid", callSID, "error", err)
	}

	e.pub.SendToOperator(op.ID, "incoming_call", map[string]any{
		"call_sid":     callSID,
		"lead_id":      tc.leadID,
		"phone_number": leadPhone(l),
		"conference":   room,
	})
	e.pub.BroadcastToDashboards("call_connected", map[string]any{
		"campaign_id": tc.campaignID,
		"call_sid":    callSID,
		"lead_id":     tc.leadID,
		"operator_id": op.ID,
	})
	e.pub.BroadcastToDashboards("operator_status_changed", map[string]any{
		"operator_id": op.ID,
		"status":      op.Status,
	})

	e.log.Info("call connected", "call_sid", callSID, "lead_id", tc.leadID, "operator_id", op.ID)
	return nil
}

func leadPhone(l *campaign.Lead) string {
	if l == nil {
		return ""
	}
	return l.PhoneNumber
}

// abandon hangs up a human-answered call that no operator could take. This is
// the compliance-relevant outcome the controller steers to minimize.
func (e *Engine) abandon(ctx context.Context, callSID string, tc *trackedCall) error {
	e.mu.Lock()
	delete(e.calls, callSID)
	e.abandoned[tc.campaignID]++
	e.abandonedTotal++
	e.mu.Unlock()

	if err := e.tel.HangupCall(ctx, callSID); err != nil {
		e.log.Error("hanging up abandoned call", "call_sid", callSID, "error", err)
	}

	e.failLead(ctx, tc, "abandoned")
	e.alert("warning", "call abandoned, no operator available", map[string]any{
		"campaign_id": tc.campaignID,
		"call_sid":    callSID,
		"lead_id":     tc.leadID,
	})
	e.log.Warn("call abandoned", "call_sid", callSID, "lead_id", tc.leadID)
	return nil
}

// HandleCallStatus ingests a provider status callback. Terminal statuses
// close out the tracked call and settle the lead.
func (e *Engine) HandleCallStatus(ctx context.Context, callSID string, status telephony.CallStatus) error {
	if !status.Terminal() {
		return nil
	}

	e.mu.Lock()
	tc, ok := e.calls[callSID]
	if ok {
		if tc.amdTimer != nil {
			tc.amdTimer.Stop()
		}
		delete(e.calls, callSID)
	}
	e.mu.Unlock()
	if !ok {
		return nil
	}

	l, err := e.leads.GetByID(ctx, tc.leadID)
	if err != nil {
		return err
	}
	if l == nil {
		return nil
	}

	switch status {
	case telephony.StatusCompleted:
		switch l.Status {
		case campaign.LeadConnected:
			if err := l.Complete("completed"); err == nil {
				if uerr := e.leads.Update(ctx, l); uerr != nil {
					e.log.Error("saving completed lead", "lead_id", l.ID, "error", uerr)
				}
			}
			e.releaseOperator(callSID, l)
		case campaign.LeadCalling:
			// Callee hung up before an AMD verdict arrived.
			e.failLeadLoaded(ctx, tc, l, "no_answer")
		}
	case telephony.StatusBusy:
		e.failLeadLoaded(ctx, tc, l, "busy")
	case telephony.StatusNoAnswer:
		e.failLeadLoaded(ctx, tc, l, "no_answer")
	case telephony.StatusFailed:
		e.failLeadLoaded(ctx, tc, l, "failed")
	case telephony.StatusCanceled:
		e.failLeadLoaded(ctx, tc, l, "canceled")
	}

	return nil
}

// CompleteCall settles a connected call on the operator's behalf: the lead
// completes with the outcome the operator chose and the provider leg is hung
// up. The call is untracked before the hangup so the resulting status
// callback cannot settle the lead a second time.
func (e *Engine) CompleteCall(ctx context.Context, callSID, outcome string) error {
	if outcome == "" {
		outcome = "completed"
	}

	e.mu.Lock()
	tc, ok := e.calls[callSID]
	if ok {
		if tc.amdTimer != nil {
			tc.amdTimer.Stop()
		}
		delete(e.calls, callSID)
	}
	e.mu.Unlock()
	if !ok {
		return ErrCallNotFound
	}

	if err := e.tel.HangupCall(ctx, callSID); err != nil {
		e.log.Error("hanging up finished call", "call_sid", callSID, "error", err)
	}

	l, err := e.leads.GetByID(ctx, tc.leadID)
	if err != nil {
		return err
	}
	if l == nil {
		return nil
	}
	if err := l.Complete(outcome); err != nil {
		return err
	}
	if err := e.leads.Update(ctx, l); err != nil {
		return fmt.Errorf("saving completed lead: %w", err)
	}
	e.releaseOperator(callSID, l)
	e.log.Info("call completed by operator", "call_sid", callSID, "lead_id", l.ID, "outcome", outcome)
	return nil
}

// releaseOperator returns the operator handling callSID to AVAILABLE and
// announces the call end.
func (e *Engine) releaseOperator(callSID string, l *campaign.Lead) {
	op, ok := e.operators.FindByCall(callSID)
	if !ok {
		return
	}
	updated, _ := e.operators.EndCall(op.ID)
	e.pub.SendToOperator(op.ID, "call_ended", map[string]any{
		"call_sid": callSID,
		"lead_id":  l.ID,
	})
	e.pub.BroadcastToDashboards("call_ended", map[string]any{
		"call_sid":    callSID,
		"lead_id":     l.ID,
		"operator_id": op.ID,
	})
	e.pub.BroadcastToDashboards("operator_status_changed", map[string]any{
		"operator_id": op.ID,
		"status":      updated.Status,
	})
}

// retriableReasons are failure reasons worth another attempt.
var retriableReasons = map[string]bool{
	"busy":      true,
	"no_answer": true,
	"abandoned": true,
	"unknown":   true,
}

func (e *Engine) failLead(ctx context.Context, tc *trackedCall, reason string) {
	l, err := e.leads.GetByID(ctx, tc.leadID)
	if err != nil || l == nil {
		return
	}
	e.failLeadLoaded(ctx, tc, l, reason)
}

func (e *Engine) failLeadLoaded(ctx context.Context, tc *trackedCall, l *campaign.Lead, reason string) {
	if err := l.Fail(reason); err != nil {
		return
	}
	if err := e.leads.Update(ctx, l); err != nil {
		e.log.Error("saving failed lead", "lead_id", l.ID, "error", err)
		return
	}
	if retriableReasons[reason] && l.RetryCount < l.MaxRetries {
		e.scheduleRetry(l.ID, l.RetryCount)
	}
}

// scheduleRetry queues a failed lead back into the pool after an exponential
// backoff: base * 2^retries, capped.
func (e *Engine) scheduleRetry(leadID string, retryCount int) {
	delay := e.cfg.RetryBaseDelay << uint(retryCount)
	if delay > e.cfg.RetryMaxDelay {
		delay = e.cfg.RetryMaxDelay
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if t, ok := e.retryTimers[leadID]; ok {
		t.Stop()
	}
	e.retryTimers[leadID] = time.AfterFunc(delay, func() { e.retryLead(leadID) })
	e.mu.Unlock()
}

func (e *Engine) retryLead(leadID string) {
	e.mu.Lock()
	delete(e.retryTimers, leadID)
	e.mu.Unlock()

	ctx := context.Background()
	l, err := e.leads.GetByID(ctx, leadID)
	if err != nil || l == nil {
		return
	}
	if err := l.Retry(); err != nil {
		return
	}
	if err := e.leads.Update(ctx, l); err != nil {
		e.log.Error("saving retried lead", "lead_id", leadID, "error", err)
		return
	}
	e.log.Info("lead requeued for retry", "lead_id", leadID, "retry_count", l.RetryCount)
}

// Stats returns the live stats of a campaign, including the abandoned count.
func (e *Engine) Stats(ctx context.Context, campaignID string) (campaign.Stats, error) {
	counts, err := e.leads.CountByStatus(ctx, campaignID)
	if err != nil {
		return campaign.Stats{}, err
	}
	return campaign.StatsFromCounts(counts, e.AbandonedCount(campaignID)), nil
}

// DialingHealth grades a campaign's current dialing operation.
func (e *Engine) DialingHealth(ctx context.Context, campaignID string) (Health, error) {
	stats, err := e.Stats(ctx, campaignID)
	if err != nil {
		return Health{}, err
	}
	return e.cfg.Control.DialingHealth(stats), nil
}

// AbandonedCount returns the abandoned-call count for a campaign.
func (e *Engine) AbandonedCount(campaignID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abandoned[campaignID]
}

// Totals reports lifetime engine counters for metrics.
func (e *Engine) Totals() (launched, abandoned, failedLaunches int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launchedTotal, e.abandonedTotal, e.failedLaunches
}

// ActiveCalls returns the number of tracked in-flight calls.
func (e *Engine) ActiveCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// RunningCampaigns returns the number of campaigns with an active pacing loop.
func (e *Engine) RunningCampaigns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runners)
}

func (e *Engine) alert(severity, message string, data map[string]any) {
	payload := map[string]any{
		"severity": severity,
		"message":  message,
	}
	for k, v := range data {
		payload[k] = v
	}
	e.pub.BroadcastToDashboards("alert", payload)
}

// Shutdown stops all pacing loops and pending timers.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for id, cancel := range e.runners {
		cancel()
		delete(e.runners, id)
	}
	for id, tc := range e.calls {
		if tc.amdTimer != nil {
			tc.amdTimer.Stop()
		}
		delete(e.calls, id)
	}
	for id, t := range e.retryTimers {
		t.Stop()
		delete(e.retryTimers, id)
	}
}

// ConferenceRoom names the conference that bridges a call to its operator.
func ConferenceRoom(callSID string) string {
	return "room-" + callSID
}

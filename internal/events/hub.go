package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/paralleldialer/paralleldialer/internal/campaign"
	"github.com/paralleldialer/paralleldialer/internal/operator"
)

// Role distinguishes the two client populations.
type Role string

const (
	RoleOperator  Role = "operator"
	RoleDashboard Role = "dashboard"
)

// StatsProvider supplies live campaign stats for dashboard requests. The
// orchestrator engine implements it.
type StatsProvider interface {
	Stats(ctx context.Context, campaignID string) (campaign.Stats, error)
}

// CallController settles calls that operators wrap up from their console.
// The orchestrator engine implements it.
type CallController interface {
	CompleteCall(ctx context.Context, callSID, outcome string) error
}

// Hub tracks connected clients and fans events out to them. Delivery is
// best-effort: a client whose send buffer is full is dropped rather than
// allowed to stall the rest.
type Hub struct {
	operators *operator.Manager
	stats     StatsProvider
	calls     CallController
	log       *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a Hub. stats may be nil until the engine is wired in.
func NewHub(operators *operator.Manager, stats StatsProvider, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		operators: operators,
		stats:     stats,
		log:       log,
		clients:   make(map[*Client]bool),
	}
}

// SetStatsProvider wires the stats source after construction. The engine and
// hub reference each other, so one side attaches late.
func (h *Hub) SetStatsProvider(s StatsProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = s
}

func (h *Hub) statsProvider() StatsProvider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// SetCallController wires the call teardown path after construction, for the
// same reason as SetStatsProvider.
func (h *Hub) SetCallController(c CallController) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = c
}

func (h *Hub) callController() CallController {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.calls
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", "user_id", c.id, "role", c.role, "total", n)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	if c.role == RoleOperator {
		h.operators.SetStatus(c.id, operator.StatusOffline)
		h.BroadcastToDashboards(EventOperatorListUpdated, map[string]any{
			"operator_id": c.id,
			"status":      operator.StatusOffline,
		})
	}
	h.log.Info("websocket client disconnected", "user_id", c.id, "role", c.role, "total", n)
}

// snapshot returns the clients matching the filter without holding the lock
// during sends.
func (h *Hub) snapshot(match func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match == nil || match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) deliver(targets []*Client, msg Message) {
	payload, err := msg.Encode()
	if err != nil {
		h.log.Error("encoding event", "event", msg.Event, "error", err)
		return
	}
	for _, c := range targets {
		select {
		case c.send <- payload:
		default:
			// Slow consumer; cut it loose.
			go h.remove(c)
		}
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, data any) {
	h.deliver(h.snapshot(nil), NewMessage(event, data))
}

// BroadcastToDashboards sends an event to dashboard clients only.
func (h *Hub) BroadcastToDashboards(event string, data any) {
	h.deliver(h.snapshot(func(c *Client) bool { return c.role == RoleDashboard }), NewMessage(event, data))
}

// BroadcastToOperators sends an event to operator clients only.
func (h *Hub) BroadcastToOperators(event string, data any) {
	h.deliver(h.snapshot(func(c *Client) bool { return c.role == RoleOperator }), NewMessage(event, data))
}

// SendToOperator sends an event to one operator's connections.
func (h *Hub) SendToOperator(operatorID, event string, data any) {
	h.deliver(h.snapshot(func(c *Client) bool {
		return c.role == RoleOperator && c.id == operatorID
	}), NewMessage(event, data))
}

// OperatorCount returns the number of connected operator clients.
func (h *Hub) OperatorCount() int {
	return len(h.snapshot(func(c *Client) bool { return c.role == RoleOperator }))
}

// DashboardCount returns the number of connected dashboard clients.
func (h *Hub) DashboardCount() int {
	return len(h.snapshot(func(c *Client) bool { return c.role == RoleDashboard }))
}

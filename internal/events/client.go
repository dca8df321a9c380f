package events

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paralleldialer/paralleldialer/internal/operator"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// CloseUnauthorized is the close code sent to clients with a bad token.
const CloseUnauthorized = 4001

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser dashboards connect cross-origin; token auth gates access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection owned by the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	id   string
	name string
	role Role
}

// Identity is the authenticated principal behind a connection. The HTTP
// layer validates the token and passes this in.
type Identity struct {
	ID       string
	Username string
}

// ServeWS upgrades the request and runs the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, ident Identity, role Role) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade", "error", err)
		return
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   ident.ID,
		name: ident.Username,
		role: role,
	}
	h.add(c)

	if role == RoleOperator {
		h.operators.Ensure(c.id, c.name)
	}

	go c.writePump()
	go c.readPump()

	c.reply(NewMessage(EventConnected, map[string]any{
		"user_id":         c.id,
		"connection_type": string(role),
	}))
}

// RejectUnauthorized upgrades the connection only to close it with the
// unauthorized code, so browser clients can distinguish auth failures from
// network errors.
func RejectUnauthorized(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	conn.Close()
}

func (c *Client) reply(msg Message) {
	payload, err := msg.Encode()
	if err != nil {
		c.hub.log.Error("encoding reply", "event", msg.Event, "error", err)
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var action Action
		if err := json.Unmarshal(raw, &action); err != nil {
			c.reply(NewMessage(EventError, map[string]any{"message": "invalid JSON"}))
			continue
		}
		c.handleAction(action)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleAction(a Action) {
	if a.Action == "ping" {
		c.reply(NewMessage(EventPong, nil))
		return
	}
	switch c.role {
	case RoleOperator:
		c.handleOperatorAction(a)
	case RoleDashboard:
		c.handleDashboardAction(a)
	}
}

func (c *Client) handleOperatorAction(a Action) {
	h := c.hub
	switch a.Action {
	case "set_status":
		s, ok := h.operators.SetStatus(c.id, operator.Status(a.Status))
		if !ok {
			c.reply(NewMessage(EventError, map[string]any{"message": "invalid status: " + a.Status}))
			return
		}
		h.BroadcastToDashboards(EventOperatorListUpdated, map[string]any{
			"operator_id": c.id,
			"status":      s.Status,
		})
		c.reply(NewMessage(EventOperatorStatusChanged, map[string]any{
			"operator_id": c.id,
			"status":      s.Status,
		}))

	case "accept_call":
		h.operators.AssignCall(c.id, a.CallSID, a.LeadID)
		h.BroadcastToDashboards(EventOperatorListUpdated, map[string]any{
			"operator_id": c.id,
			"status":      operator.StatusOnCall,
			"call_sid":    a.CallSID,
		})
		c.reply(NewMessage(EventCallConnected, map[string]any{
			"call_sid":    a.CallSID,
			"operator_id": c.id,
		}))

	case "end_call":
		// The engine hangs up the provider leg and completes the lead with
		// the chosen outcome. Untracked calls fall back to releasing the
		// session only.
		if ctrl := h.callController(); ctrl != nil && a.CallSID != "" {
			err := ctrl.CompleteCall(context.Background(), a.CallSID, a.Outcome)
			if err == nil {
				c.reply(NewMessage(EventCallEnded, map[string]any{
					"call_sid":    a.CallSID,
					"operator_id": c.id,
					"outcome":     a.Outcome,
				}))
				return
			}
			h.log.Warn("operator end_call fell back to session release",
				"operator_id", c.id, "call_sid", a.CallSID, "error", err)
		}
		h.operators.EndCall(c.id)
		h.BroadcastToDashboards(EventOperatorListUpdated, map[string]any{
			"operator_id": c.id,
			"status":      operator.StatusAvailable,
		})
		c.reply(NewMessage(EventCallEnded, map[string]any{
			"call_sid":    a.CallSID,
			"operator_id": c.id,
			"outcome":     a.Outcome,
		}))

	case "test_incoming_call":
		c.reply(NewMessage(EventIncomingCall, map[string]any{
			"call_sid":     a.CallSID,
			"lead_id":      a.LeadID,
			"phone_number": a.PhoneNumber,
			"name":         a.Name,
		}))

	default:
		c.reply(NewMessage(EventError, map[string]any{"message": "unknown action: " + a.Action}))
	}
}

func (c *Client) handleDashboardAction(a Action) {
	h := c.hub
	switch a.Action {
	case "subscribe_campaign", "refresh_stats":
		provider := h.statsProvider()
		if provider == nil || a.CampaignID == "" {
			c.reply(NewMessage(EventError, map[string]any{"message": "campaign stats unavailable"}))
			return
		}
		stats, err := provider.Stats(context.Background(), a.CampaignID)
		if err != nil {
			c.reply(NewMessage(EventError, map[string]any{"message": "campaign not found"}))
			return
		}
		c.reply(NewMessage(EventCampaignStatsUpdated, map[string]any{
			"campaign_id": a.CampaignID,
			"stats":       stats,
		}))

	case "get_operators":
		c.reply(NewMessage(EventOperatorListUpdated, map[string]any{
			"operators": h.operators.List(),
		}))

	case "test_alert":
		h.Broadcast(EventAlert, map[string]any{
			"severity": "info",
			"message":  a.Message,
		})

	default:
		c.reply(NewMessage(EventError, map[string]any{"message": "unknown action: " + a.Action}))
	}
}

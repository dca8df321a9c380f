// Package events is the WebSocket fabric: operators and dashboards hold a
// duplex connection over which the dialer pushes events and receives actions.
package events

import (
	"encoding/json"
	"time"
)

// Event names pushed to clients.
const (
	EventConnected             = "connected"
	EventIncomingCall          = "incoming_call"
	EventCallConnected         = "call_connected"
	EventCallEnded             = "call_ended"
	EventOperatorStatusChanged = "operator_status_changed"
	EventCampaignStatsUpdated  = "campaign_stats_updated"
	EventOperatorListUpdated   = "operator_list_updated"
	EventAlert                 = "alert"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Message is the wire envelope for every server-to-client event.
type Message struct {
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps an envelope with the current UTC time.
func NewMessage(event string, data any) Message {
	if data == nil {
		data = map[string]any{}
	}
	return Message{Event: event, Data: data, Timestamp: time.Now().UTC()}
}

// Encode serializes the envelope to JSON.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Action is the wire form of a client-to-server request.
type Action struct {
	Action      string `json:"action"`
	Status      string `json:"status,omitempty"`
	CallSID     string `json:"call_sid,omitempty"`
	LeadID      string `json:"lead_id,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Name        string `json:"name,omitempty"`
	Message     string `json:"message,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

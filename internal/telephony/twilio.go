package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioConfig carries the credentials and URLs for the REST client.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// AppSID, when set, routes answered calls through a TwiML application
	// instead of the voice webhook URL.
	AppSID string
	// PublicBaseURL is the externally reachable base for webhook callbacks.
	PublicBaseURL string
	// BaseURL overrides the Twilio API endpoint. Tests point it at a local
	// server; empty means the production API.
	BaseURL string
}

// TwilioService implements Service against the Twilio REST API.
type TwilioService struct {
	cfg    TwilioConfig
	client *http.Client
}

// NewTwilioService creates a Twilio-backed telephony service.
func NewTwilioService(cfg TwilioConfig) *TwilioService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioAPIBase
	}
	return &TwilioService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// twilioCall is the subset of Twilio's call resource the dialer reads.
type twilioCall struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

// MakeCall starts an outbound call with status callbacks and async AMD.
func (s *TwilioService) MakeCall(ctx context.Context, to, from string, opts CallOptions) (*CallResult, error) {
	if from == "" {
		from = s.cfg.FromNumber
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)

	if s.cfg.AppSID != "" {
		form.Set("ApplicationSid", s.cfg.AppSID)
	} else {
		form.Set("Url", s.webhookURL("/webhooks/twilio/voice"))
	}

	callback := opts.StatusCallbackURL
	if callback == "" {
		callback = s.webhookURL("/webhooks/twilio/status")
	}
	if callback != "" {
		form.Set("StatusCallback", callback)
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	if opts.MachineDetection {
		form.Set("MachineDetection", "DetectMessageEnd")
		form.Set("AsyncAmd", "true")
		if amdURL := s.webhookURL("/webhooks/twilio/amd"); amdURL != "" {
			form.Set("AsyncAmdStatusCallback", amdURL)
		}
	}

	var call twilioCall
	if err := s.post(ctx, "/Calls.json", form, &call); err != nil {
		return nil, fmt.Errorf("creating call: %w", err)
	}

	return &CallResult{
		CallSID: call.SID,
		Status:  CallStatus(call.Status),
		To:      to,
		From:    from,
	}, nil
}

// CreateConference returns a placeholder room. Twilio creates conference
// resources implicitly when the first participant dials in.
func (s *TwilioService) CreateConference(_ context.Context, friendlyName string) (*Conference, error) {
	return &Conference{SID: "pending", FriendlyName: friendlyName, Status: "init"}, nil
}

// AddParticipant redirects an active call into a conference room by updating
// the call with inline conference TwiML.
func (s *TwilioService) AddParticipant(ctx context.Context, conferenceName, callSID string, opts ParticipantOptions) error {
	twiml := fmt.Sprintf(
		`<Response><Dial><Conference beep="false" startConferenceOnEnter="true" endConferenceOnExit="true"%s>%s</Conference></Dial></Response>`,
		muteAttr(opts.Muted), conferenceName,
	)
	form := url.Values{}
	form.Set("Twiml", twiml)
	if err := s.post(ctx, "/Calls/"+callSID+".json", form, nil); err != nil {
		return fmt.Errorf("redirecting call to conference: %w", err)
	}
	return nil
}

func muteAttr(muted bool) string {
	if muted {
		return ` muted="true"`
	}
	return ""
}

// HangupCall completes a call in any state.
func (s *TwilioService) HangupCall(ctx context.Context, callSID string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	if err := s.post(ctx, "/Calls/"+callSID+".json", form, nil); err != nil {
		return fmt.Errorf("hanging up call: %w", err)
	}
	return nil
}

// GetCallStatus fetches the current status of a call.
func (s *TwilioService) GetCallStatus(ctx context.Context, callSID string) (CallStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resourceURL("/Calls/"+callSID+".json"), nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	var call twilioCall
	if err := s.do(req, &call); err != nil {
		return "", fmt.Errorf("fetching call: %w", err)
	}
	return CallStatus(call.Status), nil
}

func (s *TwilioService) webhookURL(path string) string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + path
}

func (s *TwilioService) resourceURL(path string) string {
	return s.cfg.BaseURL + "/2010-04-01/Accounts/" + s.cfg.AccountSID + path
}

func (s *TwilioService) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.resourceURL(path), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	return s.do(req, out)
}

func (s *TwilioService) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

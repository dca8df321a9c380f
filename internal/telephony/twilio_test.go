package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestTwilio(t *testing.T, handler http.HandlerFunc) *TwilioService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwilioService(TwilioConfig{
		AccountSID:    "ACtest",
		AuthToken:     "secret",
		FromNumber:    "+815011110000",
		PublicBaseURL: "https://dialer.example.com",
		BaseURL:       srv.URL,
	})
}

func TestTwilioMakeCall(t *testing.T) {
	var gotForm url.Values
	var gotPath, gotUser string

	svc := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA123","status":"queued","to":"+818011110001","from":"+815011110000"}`))
	})

	result, err := svc.MakeCall(context.Background(), "+818011110001", "", CallOptions{MachineDetection: true})
	if err != nil {
		t.Fatalf("MakeCall() error: %v", err)
	}
	if result.CallSID != "CA123" || result.Status != StatusQueued {
		t.Errorf("result = %+v", result)
	}
	if result.From != "+815011110000" {
		t.Errorf("from not defaulted: %s", result.From)
	}

	if gotPath != "/2010-04-01/Accounts/ACtest/Calls.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotUser != "ACtest" {
		t.Errorf("basic auth user = %s", gotUser)
	}
	if gotForm.Get("MachineDetection") != "DetectMessageEnd" || gotForm.Get("AsyncAmd") != "true" {
		t.Errorf("AMD params missing: %v", gotForm)
	}
	if got := gotForm.Get("AsyncAmdStatusCallback"); got != "https://dialer.example.com/webhooks/twilio/amd" {
		t.Errorf("amd callback = %s", got)
	}
	if got := gotForm.Get("StatusCallback"); got != "https://dialer.example.com/webhooks/twilio/status" {
		t.Errorf("status callback = %s", got)
	}
	if events := gotForm["StatusCallbackEvent"]; len(events) != 4 {
		t.Errorf("status callback events = %v", events)
	}
	if got := gotForm.Get("Url"); got != "https://dialer.example.com/webhooks/twilio/voice" {
		t.Errorf("voice url = %s", got)
	}
}

func TestTwilioMakeCallAPIError(t *testing.T) {
	svc := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	})

	_, err := svc.MakeCall(context.Background(), "invalid", "", CallOptions{})
	if err == nil {
		t.Fatal("MakeCall() = nil, want error")
	}
	if !strings.Contains(err.Error(), "21211") {
		t.Errorf("error does not carry provider body: %v", err)
	}
}

func TestTwilioHangupAndRedirect(t *testing.T) {
	type call struct {
		path string
		form url.Values
	}
	var calls []call

	svc := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		calls = append(calls, call{path: r.URL.Path, form: r.PostForm})
		w.Write([]byte(`{"sid":"CA123","status":"completed"}`))
	})

	ctx := context.Background()
	if err := svc.HangupCall(ctx, "CA123"); err != nil {
		t.Fatalf("HangupCall() error: %v", err)
	}
	if err := svc.AddParticipant(ctx, "room-abc", "CA123", ParticipantOptions{}); err != nil {
		t.Fatalf("AddParticipant() error: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("request count = %d, want 2", len(calls))
	}
	if calls[0].form.Get("Status") != "completed" {
		t.Errorf("hangup form = %v", calls[0].form)
	}
	twiml := calls[1].form.Get("Twiml")
	if !strings.Contains(twiml, "<Conference") || !strings.Contains(twiml, "room-abc") {
		t.Errorf("redirect twiml = %s", twiml)
	}
	if !strings.Contains(twiml, `endConferenceOnExit="true"`) {
		t.Errorf("conference attrs missing: %s", twiml)
	}
}

func TestTwilioGetCallStatus(t *testing.T) {
	svc := newTestTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write([]byte(`{"sid":"CA123","status":"in-progress"}`))
	})

	status, err := svc.GetCallStatus(context.Background(), "CA123")
	if err != nil {
		t.Fatalf("GetCallStatus() error: %v", err)
	}
	if status != StatusInProgress {
		t.Errorf("status = %s, want in-progress", status)
	}
}

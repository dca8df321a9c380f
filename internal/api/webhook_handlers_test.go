package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/paralleldialer/paralleldialer/internal/telephony"
)

// signedServer builds a second server over the fixture's dependencies with
// signature validation turned on.
func signedServer(t *testing.T, f *apiFixture, authToken string) (*httptest.Server, Config) {
	t.Helper()
	cfg := f.cfg
	cfg.ValidateSignature = true
	cfg.TwilioAuthToken = authToken
	srv := NewServer(cfg, f.campaigns, f.leads, f.users, f.engine, f.hub, f.log)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, cfg
}

func postWebhook(t *testing.T, serverURL, path string, form url.Values, sig string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, serverURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("building webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sig != "" {
		req.Header.Set("X-Twilio-Signature", sig)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("posting webhook: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhookSignatureValidation(t *testing.T) {
	f := newAPIFixture(t)
	ts, cfg := signedServer(t, f, "auth-token")

	form := url.Values{"CallSid": {"CA-unknown"}, "CallStatus": {"completed"}}
	signedURL := strings.TrimRight(cfg.PublicBaseURL, "/") + "/webhooks/twilio/status"
	goodSig := telephony.ComputeSignature("auth-token", signedURL, form)

	t.Run("missing signature", func(t *testing.T) {
		resp := postWebhook(t, ts.URL, "/webhooks/twilio/status", form, "")
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		resp := postWebhook(t, ts.URL, "/webhooks/twilio/status", form, "bogus")
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("valid signature", func(t *testing.T) {
		resp := postWebhook(t, ts.URL, "/webhooks/twilio/status", form, goodSig)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestWebhookSignatureMisconfigured(t *testing.T) {
	f := newAPIFixture(t)
	ts, _ := signedServer(t, f, "")

	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}}
	resp := postWebhook(t, ts.URL, "/webhooks/twilio/status", form, "anything")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestStatusWebhookAlwaysAcksWithXML(t *testing.T) {
	f := newAPIFixture(t)

	// Unknown call SID: dispatch fails internally, response is still a 200 ack.
	form := url.Values{"CallSid": {"CA-unknown"}, "CallStatus": {"completed"}}
	resp := postWebhook(t, f.server.URL, "/webhooks/twilio/status", form, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<Response></Response>") {
		t.Errorf("body = %s", body)
	}
}

func TestAMDWebhookResponses(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("human bridges to conference", func(t *testing.T) {
		form := url.Values{"CallSid": {"CA123"}, "AnsweredBy": {"human"}}
		resp := postWebhook(t, f.server.URL, "/webhooks/twilio/amd", form, "")
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "room-CA123") {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("machine hangs up", func(t *testing.T) {
		form := url.Values{"CallSid": {"CA123"}, "AnsweredBy": {"machine_end_beep"}}
		resp := postWebhook(t, f.server.URL, "/webhooks/twilio/amd", form, "")
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "<Hangup/>") {
			t.Errorf("body = %s", body)
		}
	})
}

func TestVoiceWebhookPauses(t *testing.T) {
	f := newAPIFixture(t)
	resp := postWebhook(t, f.server.URL, "/webhooks/twilio/voice", url.Values{"CallSid": {"CA1"}}, "")
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `<Pause length="1"/>`) {
		t.Errorf("body = %s", body)
	}
}

func TestOperatorWSRequiresToken(t *testing.T) {
	f := newAPIFixture(t)
	// Plain GET without upgrade headers against a missing token still closes
	// the attempted connection; check the dashboard role gate over HTTP is
	// covered by the hub tests. Here just assert the route exists.
	resp, err := http.Get(f.server.URL + "/ws/operator")
	if err != nil {
		t.Fatalf("GET /ws/operator: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		t.Error("operator websocket route not mounted")
	}
}

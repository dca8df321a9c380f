package api

import (
	"net/http"
	"strings"

	"github.com/paralleldialer/paralleldialer/internal/orchestrator"
	"github.com/paralleldialer/paralleldialer/internal/telephony"
	"github.com/paralleldialer/paralleldialer/internal/twiml"
)

// signatureHeader carries the provider's HMAC over the request.
const signatureHeader = "X-Twilio-Signature"

// verifyTwilioSignature rejects callbacks whose signature does not match.
// Validation disabled passes everything through; validation enabled without a
// configured auth token is a deployment error and fails closed.
func (s *Server) verifyTwilioSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.ValidateSignature {
			next.ServeHTTP(w, r)
			return
		}
		if s.cfg.TwilioAuthToken == "" {
			s.log.Error("webhook signature validation enabled but auth token not configured")
			writeError(w, http.StatusInternalServerError, "signature validation misconfigured")
			return
		}

		sig := r.Header.Get(signatureHeader)
		if sig == "" {
			writeError(w, http.StatusForbidden, "missing signature")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusForbidden, "invalid form body")
			return
		}

		requestURL := strings.TrimRight(s.cfg.PublicBaseURL, "/") + r.URL.RequestURI()
		if !telephony.ValidateSignature(s.cfg.TwilioAuthToken, requestURL, r.PostForm, sig) {
			s.log.Warn("webhook signature mismatch", "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "invalid signature")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", twiml.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc)) //nolint:errcheck
}

// handleStatusWebhook ingests call progress callbacks. The response is always
// 200 with an empty document; a failed dispatch must not trigger provider
// retries.
func (s *Server) handleStatusWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeTwiML(w, twiml.Empty())
		return
	}
	callSID := r.PostFormValue("CallSid")
	status := telephony.CallStatus(r.PostFormValue("CallStatus"))
	if callSID == "" || status == "" {
		writeTwiML(w, twiml.Empty())
		return
	}

	if err := s.engine.HandleCallStatus(r.Context(), callSID, status); err != nil {
		s.log.Error("status webhook dispatch failed", "call_sid", callSID, "status", status, "error", err)
	}
	writeTwiML(w, twiml.Empty())
}

// handleAMDWebhook ingests the machine-detection verdict and answers with the
// control document for the call leg: humans are bridged into the conference
// room, everything else is hung up.
func (s *Server) handleAMDWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeTwiML(w, twiml.Hangup())
		return
	}
	callSID := r.PostFormValue("CallSid")
	result := telephony.AMDResult(r.PostFormValue("AnsweredBy"))
	if callSID == "" || result == "" {
		writeTwiML(w, twiml.Hangup())
		return
	}

	if err := s.engine.HandleAMDResult(r.Context(), callSID, result); err != nil {
		s.log.Error("amd webhook dispatch failed", "call_sid", callSID, "result", result, "error", err)
	}

	if result == telephony.AMDHuman {
		writeTwiML(w, twiml.JoinConference(orchestrator.ConferenceRoom(callSID)))
		return
	}
	writeTwiML(w, twiml.Hangup())
}

// handleVoiceWebhook answers the initial call handshake. The call holds
// briefly while asynchronous machine detection completes; the AMD callback
// then redirects the leg.
func (s *Server) handleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	writeTwiML(w, twiml.Pause(1))
}

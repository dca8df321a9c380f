package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func logTo(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, method, path string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	mw(h).ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	mw := RequestLogger(logTo(&buf))

	rr := serve(t, mw, http.MethodGet, "/api/v1/campaigns", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log line %s: %v", buf.Bytes(), err)
	}
	// JSON numbers decode as float64.
	if entry["method"] != "GET" || entry["path"] != "/api/v1/campaigns" || entry["status"] != float64(200) {
		t.Errorf("log entry = %v", entry)
	}
	if entry["bytes"] != float64(len(`{"data":[]}`)) {
		t.Errorf("bytes = %v", entry["bytes"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestRequestLoggerExplicitStatus(t *testing.T) {
	var buf bytes.Buffer
	mw := RequestLogger(logTo(&buf))

	serve(t, mw, http.MethodPost, "/api/v1/campaigns/nope/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log line: %v", err)
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
}

func TestRequestLoggerFirstStatusWins(t *testing.T) {
	var buf bytes.Buffer
	mw := RequestLogger(logTo(&buf))

	serve(t, mw, http.MethodPost, "/api/v1/campaigns", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError) // ignored
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log line: %v", err)
	}
	if entry["status"] != float64(201) {
		t.Errorf("status = %v, want first write 201", entry["status"])
	}
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	// At the default info level, webhook and health chatter is suppressed
	// while API traffic still logs.
	var buf bytes.Buffer
	mw := RequestLogger(logTo(&buf))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	serve(t, mw, http.MethodPost, "/webhooks/twilio/status", ok)
	serve(t, mw, http.MethodGet, "/health", ok)
	if buf.Len() != 0 {
		t.Fatalf("quiet paths logged at info: %s", buf.Bytes())
	}

	serve(t, mw, http.MethodGet, "/api/v1/campaigns", ok)
	if !strings.Contains(buf.String(), "/api/v1/campaigns") {
		t.Errorf("api request not logged: %s", buf.Bytes())
	}
}

func TestStatusRecorderDefault(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if rec.status != http.StatusOK {
		t.Fatalf("default status = %d", rec.status)
	}
	rec.WriteHeader(http.StatusBadRequest)
	if rec.status != http.StatusBadRequest {
		t.Fatalf("status after WriteHeader = %d", rec.status)
	}
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
})

func logLines(t *testing.T, buf *bytes.Buffer) []logging.LogEntry {
	t.Helper()
	var entries []logging.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e logging.LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("Invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

// --- PanicRecovery ---

func TestPanicRecovery_HandlesNormalRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	PanicRecovery(logging.NewNopLogger())(ok).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestPanicRecovery_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)
	handler := PanicRecovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("secret internal detail")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/boom", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("Panic details must not reach the client")
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON error envelope: %v", err)
	}
	if body["code"] != float64(500) {
		t.Errorf("Expected code 500 in envelope, got %v", body["code"])
	}

	entries := logLines(t, &buf)
	if len(entries) != 1 || entries[0].Level != "ERROR" || entries[0].Fields["panic"] != "secret internal detail" {
		t.Errorf("Expected one error line with the panic, got %+v", entries)
	}
}

// --- RequestID ---

func TestRequestID_GeneratesUUID(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("Expected a UUID request ID, got %q", seen)
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Errorf("Response header %q does not match context %q", rr.Header().Get(RequestIDHeader), seen)
	}
}

func TestRequestID_UsesClientProvided(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "client-123" {
		t.Errorf("Expected client ID, got %q", seen)
	}
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc-123_x.y", "abc-123_x.y"},
		{"abc<script>", "abcscript"},
		{"a b\nc", "abc"},
		{strings.Repeat("a", 100), strings.Repeat("a", maxRequestIDLength)},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeRequestID(tt.in); got != tt.want {
			t.Errorf("sanitizeRequestID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest("GET", "/", nil).Context()); id != "" {
		t.Errorf("Expected empty ID, got %q", id)
	}
}

// --- Logging ---

func TestLogging_RecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequestID()(Logging(logger)(mux))

	req := httptest.NewRequest("GET", "/items/42", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected one log line, got %d", len(entries))
	}
	f := entries[0].Fields
	if f["route"] != "GET /items/{id}" || f["request_id"] != "req-1" || f["status"] != float64(http.StatusTeapot) {
		t.Errorf("Unexpected fields %v", f)
	}
}

func TestLogging_ServerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(logging.NewJSONLogger(&buf, logging.DebugLevel))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if entries := logLines(t, &buf); entries[0].Level != "ERROR" || entries[0].Fields["route"] != "unmatched" {
		t.Errorf("Expected unmatched route at error level, got %+v", entries[0])
	}
}

// --- CORS ---

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantCode   int
		wantHeader string
	}{
		{"allowed origin", []string{"https://app.example"}, "GET", "https://app.example", http.StatusOK, "https://app.example"},
		{"disallowed origin", []string{"https://app.example"}, "GET", "https://evil.example", http.StatusOK, ""},
		{"wildcard", []string{"*"}, "GET", "https://any.example", http.StatusOK, "https://any.example"},
		{"preflight allowed", []string{"https://app.example"}, "OPTIONS", "https://app.example", http.StatusNoContent, "https://app.example"},
		{"preflight disallowed", nil, "OPTIONS", "https://app.example", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			CORS(NewCORSConfig(tt.origins))(ok).ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Expected allow-origin %q, got %q", tt.wantHeader, got)
			}
		})
	}
}

func TestCORS_NilConfig(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	CORS(nil)(ok).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("Nil config must pass requests through without CORS headers")
	}
}

// --- SecurityHeaders ---

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders()(ok).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-store",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

// --- Metrics ---

func TestMetrics_RecordsRequest(t *testing.T) {
	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})
	handler := Metrics(reg)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/1", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/2", nil))

	var m dto.Metric
	if err := reg.HTTPRequestsTotal.WithLabelValues("GET", "GET /items/{id}", "200").Write(&m); err != nil {
		t.Fatal(err)
	}
	if m.Counter.GetValue() != 2 {
		t.Errorf("Expected both requests under the route label, got %v", m.Counter.GetValue())
	}

	var inFlight dto.Metric
	if err := reg.HTTPRequestsInFlight.Write(&inFlight); err != nil {
		t.Fatal(err)
	}
	if inFlight.Gauge.GetValue() != 0 {
		t.Errorf("Expected no requests in flight, got %v", inFlight.Gauge.GetValue())
	}
}

func TestMetrics_NilRegistry(t *testing.T) {
	rr := httptest.NewRecorder()
	Metrics(nil)(ok).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestStatusWriter_KeepsFirstStatus(t *testing.T) {
	sw := wrap(httptest.NewRecorder())
	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusOK)
	if sw.statusCode != http.StatusNotFound {
		t.Errorf("Expected first status to stick, got %d", sw.statusCode)
	}
	if wrap(sw) != sw {
		t.Error("Wrapping twice must reuse the writer")
	}
}

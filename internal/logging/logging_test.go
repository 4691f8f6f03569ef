package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
	}{
		{"debug", true},
		{"info", false},
		{"bogus", false},
	}
	for _, tt := range tests {
		logger, err := New(Config{Level: tt.level, Format: "json", OutputPath: "stderr"})
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.level, err)
		}
		if got := logger.Core().Enabled(zap.DebugLevel); got != tt.debug {
			t.Errorf("New(%q) debug enabled = %v, want %v", tt.level, got, tt.debug)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = zap.NewNop() })

	ctx := WithRequestID(context.Background(), "abc123")
	WithContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "abc123" {
		t.Errorf("request_id = %v, want abc123", got)
	}
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = zap.NewNop() })

	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generated id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?dir=docs", nil))
		if rec.Header().Get(RequestIDHeader) == "" || seen == "" {
			t.Error("request id not set")
		}
	})

	t.Run("propagated id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "given")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get(RequestIDHeader); got != "given" {
			t.Errorf("request id = %q, want given", got)
		}
	})

	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 2 {
		t.Fatalf("completed entries = %d, want 2", len(completed))
	}
	if got := completed[0].ContextMap()["status"]; got != int64(http.StatusTeapot) {
		t.Errorf("status = %v, want 418", got)
	}
}

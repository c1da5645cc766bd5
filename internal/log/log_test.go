package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentReview).
		WithWork(7, "Omuhoko", "APPROVED").
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldComponent] != ComponentReview {
		t.Errorf("component = %v", f[FieldComponent])
	}
	if f[FieldWorkID] != int64(7) || f[FieldStatus] != "APPROVED" {
		t.Errorf("work fields = %v", f)
	}
	if f[FieldError] != "boom" {
		t.Errorf("error = %v, nil errors must not overwrite", f[FieldError])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice() length = %d, want %d", len(f.ToSlice()), 2*len(f))
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentPerformance, Handler: slog.NewTextHandler(&buf, nil)})

	l.Info("computed", FieldRows, 3)

	out := buf.String()
	if !strings.Contains(out, "component=performance") || !strings.Contains(out, "rows=3") {
		t.Errorf("log line = %q", out)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	var got *Logger
	h := Middleware(l)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("FromContext() component = %v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext() without a logger should fall back to the default")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("log line = %q, want request_id", buf.String())
	}
}

func TestStructuredLoggerEvents(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)}))
	ctx := context.Background()

	sl.LogWorkReviewed(ctx, OpApprove, 3, "Dust", "APPROVED")
	sl.LogReportCreated(ctx, "invoice", "inv-1", 1250)
	sl.LogError(ctx, "List works error", errors.New("disk gone"), ComponentHTTP, OpList, NewFields().With("page", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3:\n%s", len(lines), buf.String())
	}
	checks := [][]string{
		{"work_id=3", "operation=approve", "status=APPROVED"},
		{"report_id=inv-1", "amount_cents=1250", "kind=invoice"},
		{"level=ERROR", `error="disk gone"`, "operation=list", "page=2"},
	}
	for i, want := range checks {
		for _, w := range want {
			if !strings.Contains(lines[i], w) {
				t.Errorf("line %d = %q, missing %q", i, lines[i], w)
			}
		}
	}
}

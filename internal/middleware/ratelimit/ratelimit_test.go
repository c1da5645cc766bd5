package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: []string{http.MethodPost}})
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestLimiter_Allow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("fourth request within the window should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients are counted separately")
	}

	if got := rl.RetryAfter("10.0.0.1"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	clock.advance(time.Minute)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("window should reset after a minute")
	}

	if m := rl.GetMetrics(); m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v, want 1 hit and 2 clients", m)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)
	rl.Allow("10.0.0.1")
	clock.advance(5 * time.Minute)
	rl.Allow("10.0.0.2")
	clock.advance(6 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("cleanupStaleEntries removed %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	handler := rl.Middleware(func(*http.Request) string { return "10.0.0.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	serve := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/works/1/approve", nil))
		return rr
	}

	if rr := serve(http.MethodPost); rr.Code != http.StatusNoContent {
		t.Fatalf("first POST status = %d", rr.Code)
	}
	rr := serve(http.MethodPost)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	for i := 0; i < 5; i++ {
		if rr := serve(http.MethodGet); rr.Code != http.StatusNoContent {
			t.Fatalf("GET should never be limited, got %d", rr.Code)
		}
	}
}

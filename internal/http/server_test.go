package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"royalties/internal/core"
	"royalties/internal/ingest"
	"royalties/internal/notify"
	"royalties/internal/services"
	"royalties/internal/sources/memory"
)

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 10, 0, 0, 0, time.UTC)
}

func fixtureBundle() ingest.Bundle {
	nda := &core.User{ID: 4, Name: "Ndapewa", Email: "nda@example.com", Role: core.RoleArtist}
	other := &core.User{ID: 5, Name: "Tangeni", Email: "tangeni@example.com", Role: core.RoleArtist}
	acme := &core.Company{ID: 1, CompanyName: "Acme Radio", Email: "billing@acme.example"}
	beta := &core.Company{ID: 2, CompanyName: "Beta FM"}

	return ingest.Bundle{
		Users:     []core.User{*nda, *other, {ID: 9, Name: "Admin", Role: core.RoleAdmin}},
		Companies: []core.Company{*acme, *beta},
		Tracks: []core.Track{
			{ID: 1, Title: "Omuhoko", User: nda, FileURL: "https://cdn.example/omuhoko.mp3", FileType: "audio/mpeg",
				Status: &core.Status{StatusName: "APPROVED"}, UploadedDate: day(1)},
			{ID: 2, Title: "Rain", User: other, FileURL: "https://cdn.example/rain.mp4", FileType: "video/mp4",
				Status: &core.Status{StatusName: "APPROVED"}, UploadedDate: day(2)},
			{ID: 3, Title: "Dust", User: nda, Status: &core.Status{StatusName: "PENDING"}, UploadedDate: day(3)},
		},
		LogSheets: []core.LogSheet{
			{ID: 10, Title: "Week one", Company: acme, CreatedDate: day(1), SelectedMusic: []core.Selection{
				{TrackID: 1, Title: "Omuhoko", User: nda},
				{TrackID: 2, Title: "Rain", User: other},
			}},
			{ID: 11, Title: "Week two", Company: beta, CreatedDate: day(8), SelectedMusic: []core.Selection{
				{TrackID: 1, Title: "Omuhoko", User: nda},
			}},
		},
	}
}

// newTestServer wires a server over an in-memory store. hub may be nil.
func newTestServer(t *testing.T, hub *notify.Hub) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(fixtureBundle())
	var notifier services.Notifier
	if hub != nil {
		notifier = hub
	}
	srv := NewServer(":0", Dependencies{
		Store:       store,
		Review:      services.NewReviewService(store, notifier),
		Performance: services.NewPerformanceService(store, 16, time.Minute),
		Reports:     services.NewReportService(store, notifier),
		Hub:         hub,
		PageSize:    10,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Royalty administration") {
		t.Fatalf("index body missing heading")
	}
	if !strings.Contains(body, "Ndapewa") || !strings.Contains(body, "Tangeni") {
		t.Errorf("index should list artists: %s", body)
	}
	if strings.Contains(body, `value="9"`) {
		t.Errorf("admins must not be offered as artists")
	}
	if strings.Contains(body, "data-live-feed") {
		t.Errorf("live feed advertised without a hub")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s Content-Type = %q", path, ct)
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReadyWithoutStore(t *testing.T) {
	srv := NewServer(":0", Dependencies{})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "not_ready" {
		t.Errorf("status = %v, want not_ready", body["status"])
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff header")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("missing CSP header")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing request id")
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("Cache-Control") == "" {
			t.Errorf("%s missing Cache-Control", path)
		}
	}
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"royalties/internal/core"
	applog "royalties/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["backend"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["backend"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	if s.performance != nil {
		stats := s.performance.CacheStats()
		checks["cache"] = map[string]any{
			"entries": stats.Size,
			"hits":    stats.Hits,
			"misses":  stats.Misses,
		}
	}
	if s.hub != nil {
		checks["updates"] = map[string]any{"dropped": s.hub.Dropped()}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients()}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type indexData struct {
	Artists  []core.User
	PageSize int
	Today    string
	LiveFeed bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		PageSize: s.pageSize,
		Today:    time.Now().Format(dateLayout),
		LiveFeed: s.hub != nil,
	}

	if s.store != nil {
		users, err := s.store.ListUsers(r.Context())
		if err != nil {
			logError(r, "List users error", err, applog.OpList, nil)
		}
		for _, u := range users {
			if u.Role == core.RoleArtist {
				data.Artists = append(data.Artists, u)
			}
		}
		slices.SortStableFunc(data.Artists, func(a, b core.User) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}

	s.render(w, r, "index.html", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode failed", "error", err)
	}
}

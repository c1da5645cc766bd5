package backend

import (
	"context"

	"royalties/internal/sources"
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	sources.LogSheetLister
	sources.LogSheetWriter
	sources.TrackLister
	sources.TrackGetter
	sources.TrackReviewer
	sources.UserLister
	sources.UserGetter
	sources.ReportWriter
	sources.ReportLister

	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// RunFunc is a background loop owned by a backend. It blocks until ctx is
// cancelled.
type RunFunc func(ctx context.Context) error

// BackendResult contains the backend instance, the background loops it needs
// and an optional cleanup function
type BackendResult struct {
	Backend Backend
	Runners []RunFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

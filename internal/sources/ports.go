package sources

import (
	"context"

	"royalties/internal/core"
)

// Ports for outbound adapters.
type (
	LogSheetLister interface {
		ListLogSheets(ctx context.Context) ([]core.LogSheet, error)
	}

	LogSheetWriter interface {
		// CreateLogSheet stores a new sheet and returns it with its id set.
		CreateLogSheet(ctx context.Context, l core.LogSheet) (core.LogSheet, error)
	}

	TrackLister interface {
		ListTracks(ctx context.Context, f TrackFilter) ([]core.Track, error)
	}

	TrackGetter interface {
		// GetTrack returns core.ErrNotFound when no work has the id.
		GetTrack(ctx context.Context, id int64) (core.Track, error)
	}

	// TrackReviewer changes the review status of a work.
	TrackReviewer interface {
		SetTrackStatus(ctx context.Context, id int64, status core.StatusName) (core.Track, error)
	}

	UserLister interface {
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	UserGetter interface {
		GetUser(ctx context.Context, id int64) (core.User, error)
	}

	ReportWriter interface {
		SavePaymentReport(ctx context.Context, r core.PaymentReport) (id string, err error)
		SaveInvoice(ctx context.Context, inv core.Invoice) (id string, err error)
	}

	ReportLister interface {
		// ListPaymentReports returns reports for artistID, or all when zero.
		ListPaymentReports(ctx context.Context, artistID int64) ([]core.PaymentReport, error)
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
	}
)

// TrackFilter narrows ListTracks. Zero fields match everything.
type TrackFilter struct {
	UserID int64
	Status core.StatusName
}

func (f TrackFilter) Match(t core.Track) bool {
	if f.UserID != 0 && t.OwnerID() != f.UserID {
		return false
	}
	if f.Status != "" && t.StatusName() != f.Status {
		return false
	}
	return true
}

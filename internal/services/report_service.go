package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"royalties/internal/aggregate"
	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/notify"
	"royalties/internal/sources"
)

// ReportStore is what payment reports and invoices need from a backend.
type ReportStore interface {
	sources.LogSheetLister
	sources.UserGetter
	sources.ReportWriter
	sources.ReportLister
}

// ReportService builds, validates and stores artist payment reports and
// company invoices. Delivery by e-mail or PDF happens elsewhere.
type ReportService struct {
	store    ReportStore
	notifier Notifier
}

func NewReportService(store ReportStore, notifier Notifier) *ReportService {
	return &ReportService{store: store, notifier: notifier}
}

// CreatePaymentReport counts the artist's selections in the report period,
// prices them and stores the report. Member name and e-mail default to the
// artist's profile.
func (s *ReportService) CreatePaymentReport(ctx context.Context, r core.PaymentReport) (core.PaymentReport, error) {
	if r.ArtistID != 0 {
		artist, err := s.store.GetUser(ctx, r.ArtistID)
		if err != nil {
			return core.PaymentReport{}, fmt.Errorf("load artist: %w", err)
		}
		if strings.TrimSpace(r.MemberName) == "" {
			r.MemberName = artist.Name
		}
		if strings.TrimSpace(r.MemberEmail) == "" {
			r.MemberEmail = artist.Email
		}

		sheets, err := s.store.ListLogSheets(ctx)
		if err != nil {
			return core.PaymentReport{}, fmt.Errorf("load log sheets: %w", err)
		}
		share := aggregate.ArtistVsOthers(inPeriod(sheets, r.PeriodStart, r.PeriodEnd), r.ArtistID)
		r.TotalPlayed = share.ArtistTotal
	}

	r.ComputeAmounts()
	if err := r.Validate(); err != nil {
		return core.PaymentReport{}, err
	}

	id, err := s.store.SavePaymentReport(ctx, r)
	if err != nil {
		return core.PaymentReport{}, fmt.Errorf("save payment report: %w", err)
	}
	r.ID = id

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogReportCreated(ctx, "payment", id, r.NetAmount.Cents)

	s.publish(r.ArtistID)
	return r, nil
}

// CreateInvoice prices a company's usage and stores the invoice. When no
// usage is given and the invoice names a company, usage is the number of
// selections on that company's log sheets.
func (s *ReportService) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if inv.TotalUsed == 0 && inv.CompanyID != 0 {
		sheets, err := s.store.ListLogSheets(ctx)
		if err != nil {
			return core.Invoice{}, fmt.Errorf("load log sheets: %w", err)
		}
		for _, l := range sheets {
			if l.Company != nil && l.Company.ID == inv.CompanyID {
				inv.TotalUsed += len(l.SelectedMusic)
			}
		}
	}

	inv.ComputeAmounts()
	if err := inv.Validate(); err != nil {
		return core.Invoice{}, err
	}

	id, err := s.store.SaveInvoice(ctx, inv)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	inv.ID = id

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogReportCreated(ctx, "invoice", id, inv.TotalAmount.Cents)

	s.publish(inv.CompanyID)
	return inv, nil
}

func (s *ReportService) PaymentReports(ctx context.Context, artistID int64) ([]core.PaymentReport, error) {
	return s.store.ListPaymentReports(ctx, artistID)
}

func (s *ReportService) Invoices(ctx context.Context) ([]core.Invoice, error) {
	return s.store.ListInvoices(ctx)
}

func (s *ReportService) publish(id int64) {
	if s.notifier != nil {
		s.notifier.Publish(notify.Update{Type: notify.TypeReport, ID: id})
	}
}

// inPeriod keeps sheets created within [start, end]. The end day is
// inclusive; zero bounds are open.
func inPeriod(sheets []core.LogSheet, start, end time.Time) []core.LogSheet {
	if start.IsZero() && end.IsZero() {
		return sheets
	}
	var until time.Time
	if !end.IsZero() {
		y, m, d := end.Date()
		until = time.Date(y, m, d, 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
	}

	out := make([]core.LogSheet, 0, len(sheets))
	for _, l := range sheets {
		if !start.IsZero() && l.CreatedDate.Before(start) {
			continue
		}
		if !until.IsZero() && !l.CreatedDate.Before(until) {
			continue
		}
		out = append(out, l)
	}
	return out
}

package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/notify"
)

type reportsPage struct {
	Payments []core.PaymentReport
	Invoices []core.Invoice
}

// handleReports lists stored payment reports and invoices. artist narrows
// the payment reports to one artist.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		InternalServerError("Reports are not available").Write(w)
		return
	}

	var artistID int64
	if v := r.URL.Query().Get("artist"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			BadRequestError("Invalid artist id").Write(w)
			return
		}
		artistID = id
	}

	var page reportsPage
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		page.Payments, err = s.reports.PaymentReports(ctx, artistID)
		return err
	})
	g.Go(func() error {
		var err error
		page.Invoices, err = s.reports.Invoices(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logError(r, "List reports error", err, applog.OpList, nil)
		InternalServerError("Could not load reports").Write(w)
		return
	}
	s.render(w, r, "reports.html", page)
}

// handleCreatePaymentReport accepts form-encoded (HTMX) or JSON submissions.
// JSON submissions get a JSON answer.
func (s *Server) handleCreatePaymentReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.reports == nil {
		InternalServerError("Reports are not available").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	report, err := ParsePaymentReport(p)
	if err == nil {
		report, err = s.reports.CreatePaymentReport(r.Context(), report)
	}
	if err != nil {
		s.writeReportError(w, r, p, err)
		return
	}

	if p.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":          report.ID,
			"totalPlayed": report.TotalPlayed,
			"grossAmount": report.GrossAmount.String(),
			"netAmount":   report.NetAmount.String(),
		})
		return
	}

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerReportCreated(report.ID, report.ArtistID).
		TriggerUpdate(notify.Update{Type: notify.TypeReport, ID: report.ArtistID}).
		TriggerFormReset().
		TriggerSuccessNotification("Payment report saved for " + report.MemberName).
		BodyHTML(`<div class="success">Payment report ` + template.HTMLEscapeString(report.ID) +
			` saved: ` + strconv.Itoa(report.TotalPlayed) + ` plays, net ` +
			template.HTMLEscapeString(report.NetAmount.String()) + `</div>`).
		Write(w)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.reports == nil {
		InternalServerError("Reports are not available").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	inv, err := ParseInvoice(p)
	if err == nil {
		inv, err = s.reports.CreateInvoice(r.Context(), inv)
	}
	if err != nil {
		s.writeReportError(w, r, p, err)
		return
	}

	if p.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":          inv.ID,
			"totalUsed":   inv.TotalUsed,
			"totalAmount": inv.TotalAmount.String(),
			"netAmount":   inv.NetAmount.String(),
		})
		return
	}

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerInvoiceCreated(inv.ID, inv.CompanyID).
		TriggerFormReset().
		TriggerSuccessNotification("Invoice saved for " + inv.BillingCompany).
		BodyHTML(`<div class="success">Invoice ` + template.HTMLEscapeString(inv.ID) +
			` saved: ` + strconv.Itoa(inv.TotalUsed) + ` uses, total ` +
			template.HTMLEscapeString(inv.TotalAmount.String()) + `</div>`).
		Write(w)
}

func (s *Server) writeReportError(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, err error) {
	asJSON := p.WantsJSON()
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		if asJSON {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "validation failed", "problems": verr.Problems})
			return
		}
		ValidationErrorResponse(verr.Problems).Write(w)
	case errors.Is(err, core.ErrNotFound):
		if asJSON {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "artist not found"})
			return
		}
		NotFoundError("Artist not found").Write(w)
	case p.Err() != nil:
		if asJSON {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		BadRequestError("Invalid request format").Write(w)
	default:
		logError(r, "Save report error", err, applog.OpCreate, nil)
		if asJSON {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not save report"})
			return
		}
		InternalServerError("Could not save the report").
			TriggerErrorNotification("Could not save the report").
			Write(w)
	}
}

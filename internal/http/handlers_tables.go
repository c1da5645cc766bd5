package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/notify"
	"royalties/internal/services"
	"royalties/internal/sources"
	"royalties/internal/table"
)

// tablePage is what table.html renders. View is a table.View of any record
// type.
type tablePage struct {
	ID         string
	Endpoint   string
	ActionBase string
	Refresh    string
	View       any
}

var workColumns = []table.Column[core.Track]{
	{Key: "title", Header: "Title", Sortable: true, Filterable: true},
	{Key: "artist", Header: "Artist", Sortable: true, Filterable: true},
	{Key: "status", Header: "Status", Sortable: true, Filterable: true},
	{Key: "uploadedDate", Header: "Uploaded", Sortable: true},
	{Key: "fileUrl", Header: "File"},
}

var logSheetColumns = []table.Column[core.LogSheet]{
	{Key: "title", Header: "Log sheet", Sortable: true, Filterable: true},
	{Key: "company", Header: "Company", Sortable: true, Filterable: true},
	{Key: "createdDate", Header: "Created", Sortable: true},
	{Key: "selectedMusic", Header: "Works", Sortable: true},
}

// handleWorksTable renders the works table partial. status narrows it to one
// review state.
func (s *Server) handleWorksTable(w http.ResponseWriter, r *http.Request) {
	params := ParseTableParams(r.URL.Query())

	var filter sources.TrackFilter
	if v := r.URL.Query().Get("status"); v != "" {
		if st, ok := core.ParseStatus(v); ok {
			filter.Status = st
		}
	}

	tracks, err := s.store.ListTracks(r.Context(), filter)
	if err != nil {
		logError(r, "List works error", err, applog.OpList, nil)
		InternalServerError("Could not load works").Write(w)
		return
	}

	opts := table.DefaultOptions[core.Track]()
	opts.Title = "Works"
	opts.Description = "Uploaded works awaiting or past review"
	opts.SearchPlaceholder = "Search works..."
	opts.EmptyMessage = "No works uploaded yet"
	opts.PageSize = s.pageSize
	if s.review != nil {
		opts.Actions = s.review.Actions()
	}

	view := table.Build(tracks, workColumns, opts, params.State, params.Viewport)
	endpoint := "/ui/works"
	if filter.Status != "" {
		endpoint += "?status=" + string(filter.Status)
	}
	s.render(w, r, "table.html", tablePage{
		ID:         "works-table",
		Endpoint:   endpoint,
		ActionBase: "/works",
		Refresh:    notify.Key + " from:body, " + EventWorkReviewed + " from:body",
		View:       view,
	})
	slog.DebugContext(r.Context(), "Works table rendered", "rows", len(view.Rows), "page", view.State.Page)
}

func (s *Server) handleLogSheetsTable(w http.ResponseWriter, r *http.Request) {
	params := ParseTableParams(r.URL.Query())

	sheets, err := s.store.ListLogSheets(r.Context())
	if err != nil {
		logError(r, "List log sheets error", err, applog.OpList, nil)
		InternalServerError("Could not load log sheets").Write(w)
		return
	}

	opts := table.DefaultOptions[core.LogSheet]()
	opts.Title = "Log sheets"
	opts.Description = "Works used by companies, newest first"
	opts.SearchPlaceholder = "Search log sheets..."
	opts.EmptyMessage = "No log sheets submitted yet"
	opts.PageSize = s.pageSize

	if !params.State.Sorted() {
		params.State.SortKey = "createdDate"
		params.State.SortDir = table.Desc
	}

	s.render(w, r, "table.html", tablePage{
		ID:       "logsheets-table",
		Endpoint: "/ui/logsheets",
		Refresh:  notify.Key + " from:body",
		View:     table.Build(sheets, logSheetColumns, opts, params.State, params.Viewport),
	})
}

// handleReviewWork approves or rejects a work. The table refreshes itself
// from the triggers; the body only carries the new status badge.
func (s *Server) handleReviewWork(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	action := strings.ToLower(r.PathValue("action"))
	if action != services.ActionApprove && action != services.ActionReject {
		NotFoundError("Unknown review action").Write(w)
		return
	}
	id, err := ParseRowID(r.PathValue("id"))
	if err != nil {
		BadRequestError("Invalid work id").Write(w)
		return
	}
	if s.review == nil {
		InternalServerError("Review is not available").Write(w)
		return
	}

	t, err := s.review.Review(r.Context(), action, id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Work not found").Write(w)
		return
	case errors.Is(err, table.ErrInFlight):
		ConflictError("This work is already being reviewed").Write(w)
		return
	case errors.Is(err, core.ErrInvalidStatus):
		ConflictError("Only pending works can be reviewed").Write(w)
		return
	case err != nil:
		logError(r, "Review work error", err, action, applog.NewFields().With("id", id))
		InternalServerError("Could not update the work").
			TriggerErrorNotification("Could not update the work").
			Write(w)
		return
	}

	status := string(t.StatusName())
	badge := table.StatusBadge(status)
	NewHTMXResponse().
		TriggerWorkReviewed(t.ID, status).
		TriggerUpdate(notify.Update{Type: notify.TypeMusic, ID: t.ID, Status: status}).
		TriggerSuccessNotification(`"` + t.Title + `" ` + strings.ToLower(status)).
		BodyHTML(`<span class="badge badge-` + string(badge.Tone) + `">` + badge.Label + `</span>`).
		Write(w)
}

package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"royalties/internal/aggregate"
	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/services"
)

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if s.performance == nil {
		InternalServerError("Performance is not available").Write(w)
		return
	}
	o, err := s.performance.Overview(r.Context())
	if err != nil {
		logError(r, "Performance overview error", err, applog.OpRead, nil)
		InternalServerError("Could not load performance").Write(w)
		return
	}
	s.render(w, r, "performance.html", o)
}

func (s *Server) handleArtistPerformance(w http.ResponseWriter, r *http.Request) {
	if s.performance == nil {
		InternalServerError("Performance is not available").Write(w)
		return
	}
	id, err := ParsePathID(r, "id")
	if err != nil {
		BadRequestError("Invalid artist id").Write(w)
		return
	}

	p, err := s.performance.Artist(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("Artist not found").Write(w)
		return
	}
	if err != nil {
		logError(r, "Artist performance error", err, applog.OpRead, applog.NewFields().With("artist_id", id))
		InternalServerError("Could not load artist performance").Write(w)
		return
	}
	s.render(w, r, "artist_performance.html", p)
}

type (
	songJSON struct {
		ID        int64          `json:"id"`
		Title     string         `json:"title"`
		Artist    string         `json:"artistName"`
		Total     int            `json:"totalSelections"`
		Companies map[string]int `json:"companies"`
	}

	namedJSON struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	companyJSON struct {
		Company       string `json:"company"`
		Sheets        int    `json:"logSheets"`
		SelectedMusic int    `json:"selectedMusic"`
	}

	pointJSON struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	binJSON struct {
		Range string  `json:"range"`
		Min   float64 `json:"min"`
		Max   float64 `json:"max"`
		Count int     `json:"count"`
	}

	overviewJSON struct {
		TotalSheets     int           `json:"totalLogSheets"`
		TotalSelections int           `json:"totalSelections"`
		Works           int           `json:"works"`
		Users           int           `json:"users"`
		TopSongs        []songJSON    `json:"topSongs"`
		TopArtists      []namedJSON   `json:"topArtists"`
		Companies       []companyJSON `json:"companies"`
		SheetTimeline   []pointJSON   `json:"sheetTimeline"`
		SongBins        []binJSON     `json:"songDistribution"`
		CompanyBins     []binJSON     `json:"companyDistribution"`
		GeneratedAt     time.Time     `json:"generatedAt"`
	}

	artistJSON struct {
		ArtistID        int64       `json:"artistId"`
		Name            string      `json:"name"`
		Works           int         `json:"works"`
		LogSheets       int         `json:"logSheets"`
		TotalSelections int         `json:"totalSelections"`
		OthersTotal     int         `json:"othersTotal"`
		SharePercent    float64     `json:"sharePercent"`
		TopTracks       []songJSON  `json:"topTracks"`
		CompanyData     []namedJSON `json:"companyData"`
		TimelineData    []pointJSON `json:"timelineData"`
		HistogramData   []binJSON   `json:"histogramData"`
		GeneratedAt     time.Time   `json:"generatedAt"`
	}
)

// handlePerformanceJSON serves the overview, or one artist's numbers when
// ?artist=<id> is given.
func (s *Server) handlePerformanceJSON(w http.ResponseWriter, r *http.Request) {
	if s.performance == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "performance is not available"})
		return
	}

	if v := r.URL.Query().Get("artist"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid artist id"})
			return
		}
		p, err := s.performance.Artist(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "artist not found"})
			return
		}
		if err != nil {
			logError(r, "Artist performance error", err, applog.OpRead, applog.NewFields().With("artist_id", id))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load artist performance"})
			return
		}
		writeJSON(w, http.StatusOK, artistToJSON(p))
		return
	}

	o, err := s.performance.Overview(r.Context())
	if err != nil {
		logError(r, "Performance overview error", err, applog.OpRead, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load performance"})
		return
	}
	writeJSON(w, http.StatusOK, overviewToJSON(o))
}

func overviewToJSON(o services.Overview) overviewJSON {
	out := overviewJSON{
		TotalSheets:     o.Summary.TotalSheets,
		TotalSelections: o.Summary.TotalSelections,
		Works:           o.Stats.Works,
		Users:           o.Stats.Users,
		TopSongs:        songsToJSON(o.Summary.TopSongs()),
		TopArtists:      namedToJSON(o.Summary.TopArtists()),
		Companies:       []companyJSON{},
		SheetTimeline:   pointsToJSON(o.SheetTimeline),
		SongBins:        binsToJSON(o.SongBins),
		CompanyBins:     binsToJSON(o.CompanyBins),
		GeneratedAt:     o.GeneratedAt,
	}
	for _, c := range o.Summary.TopCompanies() {
		out.Companies = append(out.Companies, companyJSON{Company: c.Company, Sheets: c.Sheets, SelectedMusic: c.SelectedMusic})
	}
	return out
}

func artistToJSON(p services.ArtistPerformance) artistJSON {
	return artistJSON{
		ArtistID:        p.Artist.ID,
		Name:            p.Artist.Name,
		Works:           len(p.Works),
		LogSheets:       len(p.Sheets),
		TotalSelections: p.Report.TotalSelections,
		OthersTotal:     p.Share.OthersTotal,
		SharePercent:    p.Share.Percent(),
		TopTracks:       songsToJSON(p.Report.TopTracks),
		CompanyData:     namedToJSON(p.Report.CompanyData),
		TimelineData:    pointsToJSON(p.Report.TimelineData),
		HistogramData:   binsToJSON(p.Report.HistogramData),
		GeneratedAt:     p.GeneratedAt,
	}
}

func songsToJSON(songs []aggregate.SongCount) []songJSON {
	out := make([]songJSON, 0, len(songs))
	for _, s := range songs {
		out = append(out, songJSON{ID: s.ID, Title: s.Title, Artist: s.ArtistName, Total: s.TotalSelections, Companies: s.Companies})
	}
	return out
}

func namedToJSON(items []aggregate.NamedCount) []namedJSON {
	out := make([]namedJSON, 0, len(items))
	for _, n := range items {
		out = append(out, namedJSON{Name: n.Name, Count: n.Count})
	}
	return out
}

func pointsToJSON(points []aggregate.TimeSeriesPoint) []pointJSON {
	out := make([]pointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, pointJSON{Date: p.Date, Count: p.Count})
	}
	return out
}

func binsToJSON(bins []aggregate.HistogramBin) []binJSON {
	out := make([]binJSON, 0, len(bins))
	for _, b := range bins {
		out = append(out, binJSON{Range: b.Range, Min: b.Min, Max: b.Max, Count: b.Count})
	}
	return out
}

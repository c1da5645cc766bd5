package ingest

import (
	"encoding/json"
	"time"

	"royalties/internal/core"
)

// Wire shapes for exports. They use the canonical upstream field names so
// an export can be read back by the Normalizer.
type (
	userJSON struct {
		ID    int64  `json:"id,omitempty"`
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
		Role  string `json:"role,omitempty"`
	}

	companyJSON struct {
		ID          int64  `json:"id,omitempty"`
		CompanyName string `json:"companyName,omitempty"`
		Email       string `json:"email,omitempty"`
	}

	statusJSON struct {
		ID         int64  `json:"id,omitempty"`
		StatusName string `json:"statusName"`
	}

	trackJSON struct {
		ID           int64       `json:"id,omitempty"`
		Title        string      `json:"title"`
		Artist       string      `json:"artist,omitempty"`
		FileURL      string      `json:"fileUrl,omitempty"`
		FileType     string      `json:"fileType,omitempty"`
		UploadType   string      `json:"uploadType,omitempty"`
		Status       *statusJSON `json:"status,omitempty"`
		User         *userJSON   `json:"user,omitempty"`
		UploadedDate string      `json:"uploadedDate,omitempty"`
		Duration     float64     `json:"duration,omitempty"`
		Notes        string      `json:"notes,omitempty"`
	}

	selectionJSON struct {
		ID       int64     `json:"id,omitempty"`
		Title    string    `json:"title,omitempty"`
		Artist   string    `json:"artist,omitempty"`
		FileURL  string    `json:"fileUrl,omitempty"`
		FileType string    `json:"fileType,omitempty"`
		User     *userJSON `json:"user,omitempty"`
	}

	logSheetJSON struct {
		ID            int64           `json:"id,omitempty"`
		Title         string          `json:"title"`
		CreatedDate   string          `json:"createdDate,omitempty"`
		Company       *companyJSON    `json:"company,omitempty"`
		SelectedMusic []selectionJSON `json:"selectedMusic"`
	}

	bundleJSON struct {
		Users     []userJSON     `json:"users"`
		Companies []companyJSON  `json:"companies"`
		Tracks    []trackJSON    `json:"tracks"`
		LogSheets []logSheetJSON `json:"logSheets"`
	}
)

// upstreamID drops synthetic ids so they are reassigned on the next import.
func upstreamID(id int64) int64 {
	if core.IsSynthetic(id) {
		return 0
	}
	return id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toUserJSON(u *core.User) *userJSON {
	if u == nil {
		return nil
	}
	return &userJSON{ID: upstreamID(u.ID), Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// Marshal encodes a bundle in the export format read by Normalizer.Bundle.
func Marshal(b Bundle) ([]byte, error) {
	out := bundleJSON{
		Users:     make([]userJSON, 0, len(b.Users)),
		Companies: make([]companyJSON, 0, len(b.Companies)),
		Tracks:    make([]trackJSON, 0, len(b.Tracks)),
		LogSheets: make([]logSheetJSON, 0, len(b.LogSheets)),
	}
	for _, u := range b.Users {
		out.Users = append(out.Users, *toUserJSON(&u))
	}
	for _, c := range b.Companies {
		out.Companies = append(out.Companies, companyJSON{ID: upstreamID(c.ID), CompanyName: c.CompanyName, Email: c.Email})
	}
	for _, t := range b.Tracks {
		tj := trackJSON{
			ID:           upstreamID(t.ID),
			Title:        t.Title,
			Artist:       t.Artist,
			FileURL:      t.FileURL,
			FileType:     t.FileType,
			UploadType:   t.UploadType,
			User:         toUserJSON(t.User),
			UploadedDate: formatTime(t.UploadedDate),
			Duration:     t.Duration,
			Notes:        t.Notes,
		}
		if t.Status != nil {
			tj.Status = &statusJSON{ID: t.Status.ID, StatusName: t.Status.StatusName}
		}
		out.Tracks = append(out.Tracks, tj)
	}
	for _, l := range b.LogSheets {
		lj := logSheetJSON{
			ID:            upstreamID(l.ID),
			Title:         l.Title,
			CreatedDate:   formatTime(l.CreatedDate),
			SelectedMusic: make([]selectionJSON, 0, len(l.SelectedMusic)),
		}
		if l.Company != nil {
			lj.Company = &companyJSON{ID: upstreamID(l.Company.ID), CompanyName: l.Company.CompanyName, Email: l.Company.Email}
		}
		for _, s := range l.SelectedMusic {
			lj.SelectedMusic = append(lj.SelectedMusic, selectionJSON{
				ID:       s.TrackID,
				Title:    s.Title,
				Artist:   s.Artist,
				FileURL:  s.FileURL,
				FileType: s.FileType,
				User:     toUserJSON(s.User),
			})
		}
		out.LogSheets = append(out.LogSheets, lj)
	}
	return json.MarshalIndent(out, "", "  ")
}

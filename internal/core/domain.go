package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	RoleAdmin   Role = "ADMIN"
	RoleArtist  Role = "ARTIST"
	RoleCompany Role = "COMPANY"
)

// Default labels used when upstream records omit nested objects.
const (
	UnknownCompany = "Unknown Company"
	UnknownArtist  = "Unknown Artist"
	UnknownTitle   = "Unknown Title"
)

type (
	Role string

	User struct {
		ID    int64
		Name  string
		Email string
		Role  Role
	}

	Company struct {
		ID          int64
		CompanyName string
		Email       string
	}

	// Track is an uploaded artist work. It belongs to exactly one uploading
	// user regardless of which log sheets reference it.
	Track struct {
		ID           int64
		Title        string
		Artist       string
		FileURL      string
		FileType     string
		UploadType   string
		Status       *Status
		User         *User
		UploadedDate time.Time
		Duration     float64 // seconds
		Notes        string
	}

	// Selection is one entry of a log sheet's selected music. TrackID is zero
	// when the upstream record carried no usable identifier.
	Selection struct {
		TrackID  int64
		Title    string
		Artist   string
		FileURL  string
		FileType string
		User     *User
	}

	// LogSheet is a company's dated record of the works it used. Immutable
	// after creation.
	LogSheet struct {
		ID            int64
		Title         string
		CreatedDate   time.Time
		Company       *Company
		SelectedMusic []Selection
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCompany  = errors.New("log sheet has no company")
)

// Key identifies the selected work. Selections without an id fall back to a
// normalized title+artist composite.
func (s Selection) Key() string {
	if s.TrackID != 0 {
		return "id:" + strconv.FormatInt(s.TrackID, 10)
	}
	return "title:" + normalizeKey(s.DisplayTitle()) + "|||" + normalizeKey(s.ArtistName())
}

// DisplayTitle returns the title, "Track <id>" or UnknownTitle.
func (s Selection) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	if s.TrackID != 0 {
		return "Track " + strconv.FormatInt(s.TrackID, 10)
	}
	return UnknownTitle
}

// ArtistName prefers the owning user's name, then the artist field, then the
// owner's e-mail.
func (s Selection) ArtistName() string {
	if s.User != nil && strings.TrimSpace(s.User.Name) != "" {
		return s.User.Name
	}
	if a := strings.TrimSpace(s.Artist); a != "" {
		return a
	}
	if s.User != nil && strings.TrimSpace(s.User.Email) != "" {
		return s.User.Email
	}
	return UnknownArtist
}

// OwnerID returns the owning user id or 0.
func (s Selection) OwnerID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// CompanyName returns the company name or def when the sheet has none.
func (l LogSheet) CompanyName(def string) string {
	if l.Company == nil || strings.TrimSpace(l.Company.CompanyName) == "" {
		return def
	}
	return l.Company.CompanyName
}

func (l LogSheet) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return ErrEmptyTitle
	}
	if l.Company == nil {
		return ErrEmptyCompany
	}
	if l.CreatedDate.IsZero() {
		return errors.New("created date cannot be zero")
	}
	return nil
}

func (t Track) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if t.User == nil || t.User.ID == 0 {
		return errors.New("track has no owning user")
	}
	return nil
}

// StatusName returns the upper-cased status or PENDING when missing.
func (t Track) StatusName() StatusName {
	if t.Status == nil {
		return StatusPending
	}
	return t.Status.Name()
}

// OwnerID returns the uploading user's id or 0.
func (t Track) OwnerID() int64 {
	if t.User == nil {
		return 0
	}
	return t.User.ID
}

// ArtistName mirrors Selection.ArtistName for uploaded works.
func (t Track) ArtistName() string {
	return Selection{Artist: t.Artist, User: t.User}.ArtistName()
}

// MatchKey is the normalized title+artist key used to relate selections that
// carry no id to a known work.
func (t Track) MatchKey() string {
	return normalizeKey(t.Title) + "|||" + normalizeKey(t.ArtistName())
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

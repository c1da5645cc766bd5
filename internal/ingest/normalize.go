// Package ingest maps the heterogeneous JSON shapes produced by the upstream
// API and its exports onto the canonical core types. Nothing past this
// package needs to know about fallback field names.
package ingest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/valyala/fastjson"

	"royalties/internal/core"
)

// Normalizer parses upstream payloads. Records that arrive without an id get
// a negative synthetic id from an insertion-order counter, so identity
// survives re-sorting. Safe for concurrent use.
type Normalizer struct {
	parser fastjson.ParserPool

	mu   sync.Mutex
	next int64
}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) syntheticID() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	return -n.next
}

func (n *Normalizer) idOr(v *fastjson.Value, paths ...string) int64 {
	if id := firstInt(v, paths...); id > 0 {
		return id
	}
	return n.syntheticID()
}

func (n *Normalizer) parse(data []byte, fn func(*fastjson.Value) error) error {
	p := n.parser.Get()
	defer n.parser.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return fn(v)
}

// LogSheets parses a list of log sheets.
func (n *Normalizer) LogSheets(data []byte) ([]core.LogSheet, error) {
	var out []core.LogSheet
	err := n.parse(data, func(v *fastjson.Value) error {
		for _, rec := range records(v, "logSheets", "logsheets") {
			out = append(out, n.logSheet(rec))
		}
		return nil
	})
	return out, err
}

// Tracks parses a list of artist works.
func (n *Normalizer) Tracks(data []byte) ([]core.Track, error) {
	var out []core.Track
	err := n.parse(data, func(v *fastjson.Value) error {
		for _, rec := range records(v, "tracks", "music", "works") {
			out = append(out, n.track(rec))
		}
		return nil
	})
	return out, err
}

func (n *Normalizer) Users(data []byte) ([]core.User, error) {
	var out []core.User
	err := n.parse(data, func(v *fastjson.Value) error {
		for _, rec := range records(v, "users") {
			out = append(out, n.user(rec))
		}
		return nil
	})
	return out, err
}

func (n *Normalizer) Companies(data []byte) ([]core.Company, error) {
	var out []core.Company
	err := n.parse(data, func(v *fastjson.Value) error {
		for _, rec := range records(v, "companies") {
			out = append(out, n.company(rec))
		}
		return nil
	})
	return out, err
}

// Bundle is a full export: every collection the dashboard reads.
type Bundle struct {
	Users     []core.User
	Companies []core.Company
	Tracks    []core.Track
	LogSheets []core.LogSheet
}

// Bundle parses an export object with users, companies, tracks and
// logSheets arrays. Missing arrays are left empty.
func (n *Normalizer) Bundle(data []byte) (Bundle, error) {
	var b Bundle
	err := n.parse(data, func(v *fastjson.Value) error {
		if v.Type() != fastjson.TypeObject {
			return fmt.Errorf("bundle must be a JSON object, got %s", v.Type())
		}
		for _, rec := range v.GetArray("users") {
			b.Users = append(b.Users, n.user(rec))
		}
		for _, rec := range v.GetArray("companies") {
			b.Companies = append(b.Companies, n.company(rec))
		}
		for _, key := range []string{"tracks", "music", "works"} {
			for _, rec := range v.GetArray(key) {
				b.Tracks = append(b.Tracks, n.track(rec))
			}
		}
		for _, key := range []string{"logSheets", "logsheets"} {
			for _, rec := range v.GetArray(key) {
				b.LogSheets = append(b.LogSheets, n.logSheet(rec))
			}
		}
		return nil
	})
	return b, err
}

func (n *Normalizer) user(v *fastjson.Value) core.User {
	u := optionalUser(v)
	if u == nil {
		u = &core.User{}
	}
	if u.ID == 0 {
		u.ID = n.syntheticID()
	}
	return *u
}

// optionalUser parses a nested user without assigning a synthetic id.
func optionalUser(v *fastjson.Value) *core.User {
	if v == nil || v.Type() != fastjson.TypeObject {
		return nil
	}
	u := &core.User{
		ID:    firstInt(v, "id", "userId"),
		Name:  firstString(v, "name", "fullName", "username"),
		Email: firstString(v, "email"),
		Role:  core.Role(strings.ToUpper(firstString(v, "role.name", "role"))),
	}
	if u.Name == "" {
		u.Name = strings.TrimSpace(firstString(v, "firstName") + " " + firstString(v, "lastName"))
	}
	if u.ID == 0 && u.Name == "" && u.Email == "" {
		return nil
	}
	return u
}

func (n *Normalizer) company(v *fastjson.Value) core.Company {
	return core.Company{
		ID:          n.idOr(v, "id", "companyId"),
		CompanyName: firstString(v, "companyName", "name"),
		Email:       firstString(v, "email", "companyEmail"),
	}
}

func optionalCompany(sheet *fastjson.Value) *core.Company {
	c := sheet.Get("company")
	if c != nil && c.Type() == fastjson.TypeObject {
		return &core.Company{
			ID:          firstInt(c, "id"),
			CompanyName: firstString(c, "companyName", "name"),
			Email:       firstString(c, "email", "companyEmail"),
		}
	}
	if name := firstString(sheet, "companyName", "company"); name != "" {
		return &core.Company{CompanyName: name}
	}
	return nil
}

func status(v *fastjson.Value) *core.Status {
	s := v.Get("status")
	if s == nil {
		return nil
	}
	switch s.Type() {
	case fastjson.TypeObject:
		return &core.Status{ID: firstInt(s, "id"), StatusName: firstString(s, "statusName", "name")}
	case fastjson.TypeString:
		return &core.Status{StatusName: str(s)}
	}
	return nil
}

func (n *Normalizer) track(v *fastjson.Value) core.Track {
	return core.Track{
		ID:           n.idOr(v, "id", "musicId", "artistWorkId", "workId"),
		Title:        firstString(v, "title", "name", "trackTitle"),
		Artist:       firstString(v, "artist", "artistName"),
		FileURL:      firstString(v, "fileUrl", "fileURL", "url"),
		FileType:     firstString(v, "fileType", "mimeType"),
		UploadType:   firstString(v, "uploadType.name", "uploadType"),
		Status:       status(v),
		User:         optionalUser(v.Get("user")),
		UploadedDate: firstTime(v, "uploadedDate", "createdAt", "dateUploaded"),
		Duration:     number(v.Get("duration")),
		Notes:        firstString(v, "notes", "description"),
	}
}

// selection normalizes one entry of a sheet's selected music. Entries may be
// a bare id, a flat work, or a wrapper around a nested "music" object.
func selection(v *fastjson.Value) (core.Selection, bool) {
	switch v.Type() {
	case fastjson.TypeNumber, fastjson.TypeString:
		if id := integer(v); id > 0 {
			return core.Selection{TrackID: id}, true
		}
		return core.Selection{}, false
	case fastjson.TypeObject:
	default:
		return core.Selection{}, false
	}

	s := core.Selection{
		TrackID:  firstInt(v, "id", "musicId", "artistWorkId", "workId", "songId", "music.id"),
		Title:    firstString(v, "title", "name", "trackTitle", "music.title"),
		Artist:   firstString(v, "artist", "artistName", "music.artist"),
		FileURL:  firstString(v, "fileUrl", "music.fileUrl"),
		FileType: firstString(v, "fileType", "music.fileType"),
		User:     optionalUser(v.Get("user")),
	}
	if s.User == nil {
		s.User = optionalUser(v.Get("music", "user"))
	}
	if s.User == nil {
		if id := firstInt(v, "userId", "artistId"); id > 0 {
			s.User = &core.User{ID: id}
		}
	}
	return s, true
}

func (n *Normalizer) logSheet(v *fastjson.Value) core.LogSheet {
	l := core.LogSheet{
		ID:          n.idOr(v, "id", "logSheetId"),
		Title:       firstString(v, "title", "name"),
		CreatedDate: firstTime(v, "createdDate", "createdAt", "date"),
		Company:     optionalCompany(v),
	}
	for _, key := range []string{"selectedMusic", "music", "selections"} {
		arr := v.GetArray(key)
		if arr == nil {
			continue
		}
		l.SelectedMusic = make([]core.Selection, 0, len(arr))
		for _, m := range arr {
			if s, ok := selection(m); ok {
				l.SelectedMusic = append(l.SelectedMusic, s)
			}
		}
		break
	}
	return l
}

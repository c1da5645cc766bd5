package core

import (
	"errors"
	"testing"
	"time"
)

func TestSelectionKey(t *testing.T) {
	cases := []struct {
		name string
		sel  Selection
		want string
	}{
		{"id wins", Selection{TrackID: 7, Title: "Song"}, "id:7"},
		{"title and owner", Selection{Title: " Song X ", User: &User{Name: "Ndapewa"}}, "title:song x|||ndapewa"},
		{"title and artist", Selection{Title: "Song", Artist: "Band"}, "title:song|||band"},
		{"nothing", Selection{}, "title:unknown title|||unknown artist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sel.Key(); got != tc.want {
				t.Errorf("Key() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelectionDefaults(t *testing.T) {
	s := Selection{TrackID: 12}
	if got := s.DisplayTitle(); got != "Track 12" {
		t.Errorf("DisplayTitle() = %q, want %q", got, "Track 12")
	}
	if got := s.ArtistName(); got != UnknownArtist {
		t.Errorf("ArtistName() = %q, want %q", got, UnknownArtist)
	}
	s.User = &User{ID: 3, Email: "a@b.na"}
	if got := s.ArtistName(); got != "a@b.na" {
		t.Errorf("ArtistName() = %q, want e-mail fallback", got)
	}
	if s.OwnerID() != 3 {
		t.Errorf("OwnerID() = %d, want 3", s.OwnerID())
	}
}

func TestLogSheetCompanyName(t *testing.T) {
	if got := (LogSheet{}).CompanyName(UnknownCompany); got != UnknownCompany {
		t.Errorf("CompanyName() = %q, want default", got)
	}
	l := LogSheet{Company: &Company{CompanyName: "Acme"}}
	if got := l.CompanyName(UnknownCompany); got != "Acme" {
		t.Errorf("CompanyName() = %q, want Acme", got)
	}
}

func TestLogSheetValidate(t *testing.T) {
	good := LogSheet{Title: "Week 1", CreatedDate: time.Now(), Company: &Company{ID: 1}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (LogSheet{CreatedDate: time.Now(), Company: &Company{}}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (LogSheet{Title: "x", CreatedDate: time.Now()}).Validate(); !errors.Is(err, ErrEmptyCompany) {
		t.Fatalf("expected ErrEmptyCompany, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	var missing *Status
	if missing.Name() != StatusPending {
		t.Errorf("nil status Name() = %q, want PENDING", missing.Name())
	}
	if got := (&Status{StatusName: "approved"}).StatusLabel(); got != "APPROVED" {
		t.Errorf("StatusLabel() = %q, want APPROVED", got)
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Errorf("ParseStatus(archived) should be unknown")
	}
	if n, ok := ParseStatus(" rejected "); !ok || n != StatusRejected {
		t.Errorf("ParseStatus(rejected) = %q, %v", n, ok)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to StatusName
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestResolveMedia(t *testing.T) {
	cases := []struct {
		fileType, url, upload string
		want                  MediaType
	}{
		{"", "", "", MediaUnknown},
		{"mp3", "", "", MediaAudio},
		{"", "https://cdn/x/clip.mp4", "", MediaVideo},
		{"audio/mpeg", "", "", MediaAudio},
		{"mp3", "", "MUSIC_VIDEO", MediaVideo},
		{"", "", "audio", MediaAudio},
		{"pdf", "https://cdn/doc.pdf", "", MediaUnknown},
	}
	for _, tc := range cases {
		if got := ResolveMedia(tc.fileType, tc.url, tc.upload); got != tc.want {
			t.Errorf("ResolveMedia(%q, %q, %q) = %q, want %q", tc.fileType, tc.url, tc.upload, got, tc.want)
		}
	}
}

func TestDownloadName(t *testing.T) {
	if got := DownloadName("Song", ""); got != "Song.mp3" {
		t.Errorf("DownloadName = %q", got)
	}
	if got := DownloadName("Song", "wav"); got != "Song.wav" {
		t.Errorf("DownloadName = %q", got)
	}
}

func TestRecordFields(t *testing.T) {
	tr := Track{ID: -4, Title: "Omuhoko", User: &User{Name: "Ndapewa"}}
	if tr.RowID() != "s4" || !IsSynthetic(tr.ID) {
		t.Errorf("RowID() = %q, want s4", tr.RowID())
	}
	if v := tr.Field("status"); v != nil {
		t.Errorf("missing status should be untyped nil, got %#v", v)
	}
	if v := tr.Field("artist"); v != "Ndapewa" {
		t.Errorf("Field(artist) = %v", v)
	}
	l := LogSheet{ID: 9, SelectedMusic: make([]Selection, 3)}
	if l.Field("companyName") != UnknownCompany || l.Field("selectedMusic") != 3 {
		t.Errorf("unexpected log sheet fields")
	}
	if l.RowID() != "9" {
		t.Errorf("RowID() = %q, want 9", l.RowID())
	}
}

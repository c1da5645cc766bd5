package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"royalties/internal/core"
)

const sheetsPayload = `{
  "data": [
    {
      "id": 11,
      "title": "Morning show",
      "createdDate": "2024-01-01T08:15:00Z",
      "company": {"id": 3, "companyName": "Acme Radio", "email": "ops@acme.na"},
      "selectedMusic": [
        7,
        {"musicId": "8", "name": "Desert Rain", "artistName": "Kaleb"},
        {"music": {"id": 9, "title": "Omuhoko", "user": {"id": 4, "firstName": "Ndapewa", "lastName": "S"}}},
        {"title": "Untracked", "artist": "Band"},
        null,
        {"artistWorkId": 10, "user": {"id": 5, "email": "x@y.na"}}
      ]
    },
    {"title": "No id", "createdAt": 1704153600000, "companyName": "Beta", "music": [{"songId": 12}]}
  ]
}`

func TestLogSheetsFallbacks(t *testing.T) {
	n := NewNormalizer()
	sheets, err := n.LogSheets([]byte(sheetsPayload))
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	s := sheets[0]
	require.Equal(t, int64(11), s.ID)
	require.Equal(t, "Acme Radio", s.Company.CompanyName)
	require.Equal(t, time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC), s.CreatedDate)
	require.Len(t, s.SelectedMusic, 5)

	require.Equal(t, core.Selection{TrackID: 7}, s.SelectedMusic[0])
	require.Equal(t, int64(8), s.SelectedMusic[1].TrackID)
	require.Equal(t, "Desert Rain", s.SelectedMusic[1].Title)
	require.Equal(t, "Kaleb", s.SelectedMusic[1].ArtistName())
	require.Equal(t, int64(9), s.SelectedMusic[2].TrackID)
	require.Equal(t, "Omuhoko", s.SelectedMusic[2].Title)
	require.Equal(t, int64(4), s.SelectedMusic[2].OwnerID())
	require.Equal(t, "Ndapewa S", s.SelectedMusic[2].ArtistName())
	require.Equal(t, "title:untracked|||band", s.SelectedMusic[3].Key())
	require.Equal(t, "x@y.na", s.SelectedMusic[4].ArtistName())

	s = sheets[1]
	require.True(t, core.IsSynthetic(s.ID))
	require.Equal(t, "Beta", s.Company.CompanyName)
	require.Equal(t, "2024-01-02", s.CreatedDate.Format(time.DateOnly))
	require.Equal(t, "id:12", s.SelectedMusic[0].Key())
}

func TestSyntheticIDsAreInsertionOrdered(t *testing.T) {
	n := NewNormalizer()
	tracks, err := n.Tracks([]byte(`[{"title":"a"},{"id":5,"title":"b"},{"title":"c"}]`))
	require.NoError(t, err)
	require.Equal(t, []int64{-1, 5, -2}, []int64{tracks[0].ID, tracks[1].ID, tracks[2].ID})
	require.Equal(t, "s1", tracks[0].RowID())

	more, err := n.Tracks([]byte(`{"title":"d"}`))
	require.NoError(t, err)
	require.Equal(t, int64(-3), more[0].ID)
}

func TestTracks(t *testing.T) {
	n := NewNormalizer()
	tracks, err := n.Tracks([]byte(`{"tracks":[{
		"id": 1, "title": "Omuhoko", "fileUrl": "https://cdn/o.mp3", "fileType": "mp3",
		"uploadType": {"name": "AUDIO"}, "status": {"id": 2, "statusName": "pending"},
		"user": {"id": 4, "name": "Ndapewa", "role": {"name": "artist"}},
		"uploadedDate": "2024-02-03", "duration": "215.5"
	}, {"id": 2, "title": "Rain", "status": "APPROVED"}]}`))
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	tr := tracks[0]
	require.Equal(t, "AUDIO", tr.UploadType)
	require.Equal(t, core.StatusPending, tr.StatusName())
	require.Equal(t, core.RoleArtist, tr.User.Role)
	require.Equal(t, 215.5, tr.Duration)
	require.Equal(t, "2024-02-03", tr.UploadedDate.Format(time.DateOnly))
	require.Equal(t, core.StatusApproved, tracks[1].StatusName())
	require.Nil(t, tracks[1].User)
}

func TestUsersAndCompanies(t *testing.T) {
	n := NewNormalizer()
	users, err := n.Users([]byte(`[{"id":1,"username":"admin","email":"a@n.na","role":"ADMIN"},{"firstName":"Kaleb","lastName":"N"}]`))
	require.NoError(t, err)
	require.Equal(t, "admin", users[0].Name)
	require.Equal(t, core.RoleAdmin, users[0].Role)
	require.Equal(t, "Kaleb N", users[1].Name)
	require.True(t, core.IsSynthetic(users[1].ID))

	companies, err := n.Companies([]byte(`[{"id":3,"name":"Acme"}]`))
	require.NoError(t, err)
	require.Equal(t, "Acme", companies[0].CompanyName)
}

func TestInvalidJSON(t *testing.T) {
	_, err := NewNormalizer().LogSheets([]byte(`{"data": [`))
	require.Error(t, err)
	_, err = NewNormalizer().Bundle([]byte(`[]`))
	require.Error(t, err)
}

func TestExportRoundTripCompressed(t *testing.T) {
	b := Bundle{
		Users:     []core.User{{ID: 4, Name: "Ndapewa", Email: "nda@example.na", Role: core.RoleArtist}},
		Companies: []core.Company{{ID: 3, CompanyName: "Acme"}},
		Tracks: []core.Track{{
			ID: 1, Title: "Omuhoko", Status: &core.Status{StatusName: "APPROVED"},
			User: &core.User{ID: 4, Name: "Ndapewa"}, UploadedDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		}},
		LogSheets: []core.LogSheet{{
			ID: -2, Title: "Week 1", CreatedDate: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
			Company:       &core.Company{ID: 3, CompanyName: "Acme"},
			SelectedMusic: []core.Selection{{TrackID: 1, Title: "Omuhoko"}, {Title: "Other", Artist: "Band"}},
		}},
	}
	data, err := Marshal(b)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json.zst")
	require.NoError(t, WriteFile(path, data))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEqual(t, data, raw)

	read, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, read)

	got, err := NewNormalizer().Bundle(read)
	require.NoError(t, err)
	require.Equal(t, b.Users, got.Users)
	require.Equal(t, "Omuhoko", got.Tracks[0].Title)
	require.Equal(t, core.StatusApproved, got.Tracks[0].StatusName())
	require.Equal(t, int64(-1), got.LogSheets[0].ID, "synthetic ids are reassigned")
	require.Equal(t, b.LogSheets[0].SelectedMusic, got.LogSheets[0].SelectedMusic)
}

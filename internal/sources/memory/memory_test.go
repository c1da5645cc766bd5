package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"royalties/internal/core"
	"royalties/internal/ingest"
	"royalties/internal/sources"
)

func seedBundle() ingest.Bundle {
	nda := &core.User{ID: 4, Name: "Ndapewa"}
	return ingest.Bundle{
		Users: []core.User{{ID: 4, Name: "Ndapewa", Role: core.RoleArtist}},
		Tracks: []core.Track{
			{ID: 1, Title: "Omuhoko", User: nda, Status: &core.Status{ID: 1, StatusName: "PENDING"}},
			{ID: 2, Title: "Rain", User: &core.User{ID: 5}, Status: &core.Status{StatusName: "APPROVED"}},
		},
		LogSheets: []core.LogSheet{{ID: 7, Title: "Week 1", Company: &core.Company{CompanyName: "Acme"}}},
	}
}

func TestListTracksFilter(t *testing.T) {
	s := New(seedBundle())
	ctx := context.Background()

	all, err := s.ListTracks(ctx, sources.TrackFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, _ := s.ListTracks(ctx, sources.TrackFilter{UserID: 4})
	require.Len(t, mine, 1)
	approved, _ := s.ListTracks(ctx, sources.TrackFilter{Status: core.StatusApproved})
	require.Len(t, approved, 1)
	require.Equal(t, int64(2), approved[0].ID)
}

func TestSetTrackStatus(t *testing.T) {
	s := New(seedBundle())
	ctx := context.Background()

	tr, err := s.SetTrackStatus(ctx, 1, core.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, core.StatusApproved, tr.StatusName())
	require.Equal(t, int64(1), tr.Status.ID)

	_, err = s.SetTrackStatus(ctx, 1, core.StatusRejected)
	require.ErrorIs(t, err, core.ErrInvalidStatus)

	_, err = s.SetTrackStatus(ctx, 99, core.StatusApproved)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.GetTrack(ctx, 99)
	require.True(t, errors.Is(err, core.ErrNotFound))
}

func TestCreateLogSheetAssignsIDs(t *testing.T) {
	s := New(seedBundle())
	l, err := s.CreateLogSheet(context.Background(), core.LogSheet{Title: "Week 2", Company: &core.Company{ID: 1}})
	require.NoError(t, err)
	require.Equal(t, int64(8), l.ID)
	require.False(t, l.CreatedDate.IsZero())

	_, err = s.CreateLogSheet(context.Background(), core.LogSheet{Title: "no company"})
	require.ErrorIs(t, err, core.ErrEmptyCompany)
}

func TestSaveReports(t *testing.T) {
	s := New(ingest.Bundle{})
	ctx := context.Background()
	r := core.PaymentReport{
		ArtistID: 4, MemberName: "Ndapewa", MemberID: "M1", MemberEmail: "n@a.na",
		BankName: "FNB", AccountNumber: "123",
	}
	id, err := s.SavePaymentReport(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.SavePaymentReport(ctx, core.PaymentReport{})
	require.Error(t, err)

	list, _ := s.ListPaymentReports(ctx, 4)
	require.Len(t, list, 1)
	list, _ = s.ListPaymentReports(ctx, 5)
	require.Empty(t, list)
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	require.NoError(t, err)
	sheets, _ := s.ListLogSheets(context.Background())
	require.Empty(t, sheets, "missing seed yields an empty store")

	data, err := ingest.Marshal(seedBundle())
	require.NoError(t, err)
	require.NoError(t, ingest.WriteFile(filepath.Join(dir, "seed.json.zst"), data))

	s, err = NewFromFiles(dir)
	require.NoError(t, err)
	tracks, _ := s.ListTracks(context.Background(), sources.TrackFilter{})
	require.Len(t, tracks, 2)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	s := New(ingest.Bundle{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, dir, func() { reloaded <- struct{}{} }) }()

	data, err := ingest.Marshal(seedBundle())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		if err := os.WriteFile(filepath.Join(dir, "seed.json"), data, 0o644); err != nil {
			return false
		}
		select {
		case <-reloaded:
			return true
		case <-time.After(500 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	tracks, _ := s.ListTracks(context.Background(), sources.TrackFilter{})
	require.Len(t, tracks, 2)

	cancel()
	require.NoError(t, <-done)
}

package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"royalties/internal/aggregate"
	"royalties/internal/core"
	"royalties/internal/ingest"
	"royalties/internal/notify"
	"royalties/internal/sources"
	"royalties/internal/sources/memory"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC)
}

func performanceBundle() ingest.Bundle {
	nda := &core.User{ID: 4, Name: "Ndapewa", Email: "nda@example.com", Role: core.RoleArtist}
	other := &core.User{ID: 5, Name: "Tangeni", Role: core.RoleArtist}
	acme := &core.Company{ID: 1, CompanyName: "Acme"}
	beta := &core.Company{ID: 2, CompanyName: "Beta"}

	return ingest.Bundle{
		Users:     []core.User{*nda, *other, {ID: 9, Name: "Admin", Role: core.RoleAdmin}},
		Companies: []core.Company{*acme, *beta},
		Tracks: []core.Track{
			{ID: 1, Title: "Omuhoko", User: nda, Status: &core.Status{StatusName: "APPROVED"}},
			{ID: 2, Title: "Rain", User: other, Status: &core.Status{StatusName: "APPROVED"}},
			{ID: 3, Title: "Dust", User: nda, Status: &core.Status{StatusName: "PENDING"}},
		},
		LogSheets: []core.LogSheet{
			{ID: 10, Title: "W1", Company: acme, CreatedDate: day(1), SelectedMusic: []core.Selection{
				{TrackID: 1, Title: "Omuhoko", User: nda},
				{TrackID: 2, Title: "Rain", User: other},
			}},
			{ID: 11, Title: "W2", Company: beta, CreatedDate: day(2), SelectedMusic: []core.Selection{
				{TrackID: 1, Title: "Omuhoko", User: nda},
			}},
			{ID: 12, Title: "W3", Company: beta, CreatedDate: day(2), SelectedMusic: []core.Selection{
				{TrackID: 2, Title: "Rain", User: other},
			}},
		},
	}
}

// countingStore counts ListLogSheets calls to observe caching.
type countingStore struct {
	*memory.Store
	sheetLoads atomic.Int32
}

func (c *countingStore) ListLogSheets(ctx context.Context) ([]core.LogSheet, error) {
	c.sheetLoads.Add(1)
	return c.Store.ListLogSheets(ctx)
}

func TestPerformanceOverview(t *testing.T) {
	svc := NewPerformanceService(memory.New(performanceBundle()), 8, time.Minute)

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, o.Summary.TotalSheets)
	require.Equal(t, 4, o.Summary.TotalSelections)
	require.Equal(t, 3, o.Stats.Works)
	require.Equal(t, 2, o.Stats.WorksByStatus[core.StatusApproved])
	require.Equal(t, 2, o.Stats.UsersByRole[core.RoleArtist])

	// Acme and Beta tie on selections; first seen wins.
	require.Equal(t, "Acme", o.Summary.Companies[0].Company)
	require.Equal(t, 2, o.Summary.Companies[0].SelectedMusic)
	require.Equal(t, 2, o.Summary.Companies[1].Sheets)

	require.Len(t, o.SheetTimeline, 2)
	require.Equal(t, "2024-03-02", o.SheetTimeline[1].Date)
	require.Equal(t, 2, o.SheetTimeline[1].Count)
	require.Len(t, o.SongBins, 6)
	require.Len(t, o.CompanyBins, 8)
}

func TestPerformanceArtist(t *testing.T) {
	svc := NewPerformanceService(memory.New(performanceBundle()), 8, time.Minute)

	p, err := svc.Artist(context.Background(), 4)
	require.NoError(t, err)

	require.Equal(t, "Ndapewa", p.Artist.Name)
	require.Len(t, p.Works, 2)
	require.Len(t, p.Sheets, 2)
	require.Equal(t, 2, p.Report.TotalSelections)
	require.Len(t, p.Report.AllTracks, 1)
	require.Equal(t, "Omuhoko", p.Report.AllTracks[0].Title)
	require.Equal(t, map[string]int{"Acme": 1, "Beta": 1}, p.Report.AllTracks[0].Companies)
	require.Equal(t, aggregate.Share{ArtistTotal: 2, OthersTotal: 2}, p.Share)

	_, err = svc.Artist(context.Background(), 404)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestPerformanceCacheInvalidation(t *testing.T) {
	store := &countingStore{Store: memory.New(performanceBundle())}
	svc := NewPerformanceService(store, 8, time.Minute)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), store.sheetLoads.Load())

	_, err = store.CreateLogSheet(ctx, core.LogSheet{Title: "W4", Company: &core.Company{ID: 1, CompanyName: "Acme"}})
	require.NoError(t, err)

	updates := make(chan notify.Update, 1)
	done := make(chan struct{})
	go func() {
		svc.Watch(ctx, updates)
		close(done)
	}()
	updates <- notify.Update{Type: notify.TypeLogSheet}
	close(updates)
	<-done

	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(2), store.sheetLoads.Load())
	require.Equal(t, 4, o.Summary.TotalSheets)
}

// pausingStore blocks ListTracks after reading until release is closed.
type pausingStore struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListTracks(ctx context.Context, f sources.TrackFilter) ([]core.Track, error) {
	tracks, err := p.Store.ListTracks(ctx, f)
	close(p.read)
	<-p.release
	return tracks, err
}

func TestPerformanceInvalidationDuringLoad(t *testing.T) {
	store := &pausingStore{
		Store:   memory.New(performanceBundle()),
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewPerformanceService(store, 8, time.Minute)
	ctx := context.Background()

	type result struct {
		o   Overview
		err error
	}
	first := make(chan result, 1)
	go func() {
		o, err := svc.Overview(ctx)
		first <- result{o, err}
	}()
	<-store.read

	_, err := store.SetTrackStatus(ctx, 3, core.StatusApproved)
	require.NoError(t, err)
	svc.Invalidate(notify.Update{Type: notify.TypeMusic, ID: 3})
	close(store.release)

	r := <-first
	require.NoError(t, r.err)
	require.Equal(t, 2, r.o.Stats.WorksByStatus[core.StatusApproved])

	// The overlapping load was not cached, so the next one sees the approval.
	store.read = make(chan struct{})
	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, o.Stats.WorksByStatus[core.StatusApproved])
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"royalties/internal/aggregate"
	"royalties/internal/cache"
	"royalties/internal/core"
	"royalties/internal/notify"
	"royalties/internal/sources"
)

// PerformanceStore is what the performance pages read from a backend.
type PerformanceStore interface {
	sources.LogSheetLister
	sources.TrackLister
	sources.UserLister
	sources.UserGetter
}

// Overview is the admin performance page.
type Overview struct {
	Summary           aggregate.Summary
	Stats             aggregate.DashboardStats
	SheetTimeline     []aggregate.TimeSeriesPoint
	SelectionTimeline []aggregate.TimeSeriesPoint
	SongBins          []aggregate.HistogramBin
	CompanyBins       []aggregate.HistogramBin
	GeneratedAt       time.Time
}

// ArtistPerformance is one artist's performance page.
type ArtistPerformance struct {
	Artist      core.User
	Works       []core.Track
	Sheets      []core.LogSheet
	Report      aggregate.SongReport
	Share       aggregate.Share
	SongBins    []aggregate.HistogramBin
	CompanyBins []aggregate.HistogramBin
	GeneratedAt time.Time
}

type performanceEntry struct {
	overview *Overview
	artist   *ArtistPerformance
}

const (
	overviewKey     = "overview"
	artistKeyPrefix = "artist:"
)

// PerformanceService loads log sheets and works and aggregates them for the
// performance pages. Results are cached until an update arrives or the TTL
// passes. A load that overlaps an invalidation is returned but not cached.
type PerformanceService struct {
	store PerformanceStore
	cache *cache.LRUCache[performanceEntry]
	now   func() time.Time

	mu         sync.Mutex
	generation uint64
}

func NewPerformanceService(store PerformanceStore, size int, ttl time.Duration) *PerformanceService {
	return &PerformanceService{
		store: store,
		cache: cache.NewLRUCache[performanceEntry](size, ttl),
		now:   time.Now,
	}
}

// Cache exposes the result cache for registration with a cache.Manager.
func (s *PerformanceService) Cache() cache.Cleaner {
	return s.cache
}

func (s *PerformanceService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *PerformanceService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// remember caches e unless the cache was invalidated since gen was read.
func (s *PerformanceService) remember(key string, gen uint64, e performanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.cache.Set(key, e)
}

// Overview aggregates every log sheet for the admin page.
func (s *PerformanceService) Overview(ctx context.Context) (Overview, error) {
	if e, ok := s.cache.Get(overviewKey); ok && e.overview != nil {
		return *e.overview, nil
	}
	gen := s.currentGeneration()

	var (
		sheets []core.LogSheet
		tracks []core.Track
		users  []core.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sheets, err = s.store.ListLogSheets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tracks, err = s.store.ListTracks(gctx, sources.TrackFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.store.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("load performance data: %w", err)
	}

	summary := aggregate.Summarize(sheets)
	companies := make([]aggregate.NamedCount, len(summary.Companies))
	for i, c := range summary.Companies {
		companies[i] = aggregate.NamedCount{Name: c.Company, Count: c.SelectedMusic}
	}

	o := Overview{
		Summary:           summary,
		Stats:             aggregate.Stats(users, tracks, sheets),
		SheetTimeline:     aggregate.SheetTimeline(sheets),
		SelectionTimeline: aggregate.SelectionTimeline(sheets),
		SongBins:          aggregate.SongDistribution(summary.Songs, aggregate.AutoBinCount(len(summary.Songs))),
		CompanyBins:       aggregate.CompanyDistribution(companies, aggregate.CompanyBins),
		GeneratedAt:       s.now(),
	}
	s.remember(overviewKey, gen, performanceEntry{overview: &o})

	slog.DebugContext(ctx, "Performance overview computed",
		"sheets", len(sheets),
		"selections", summary.TotalSelections)
	return o, nil
}

// Artist aggregates the log sheets that select any of the artist's works.
func (s *PerformanceService) Artist(ctx context.Context, userID int64) (ArtistPerformance, error) {
	key := artistKeyPrefix + strconv.FormatInt(userID, 10)
	if e, ok := s.cache.Get(key); ok && e.artist != nil {
		return *e.artist, nil
	}
	gen := s.currentGeneration()

	var (
		artist core.User
		sheets []core.LogSheet
		works  []core.Track
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		artist, err = s.store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		sheets, err = s.store.ListLogSheets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		works, err = s.store.ListTracks(gctx, sources.TrackFilter{UserID: userID})
		return err
	})
	if err := g.Wait(); err != nil {
		return ArtistPerformance{}, fmt.Errorf("load artist %d performance: %w", userID, err)
	}

	mine := aggregate.SheetsForArtist(sheets, artist, works)
	report := aggregate.BySong(mine, works, userID)

	p := ArtistPerformance{
		Artist:      artist,
		Works:       works,
		Sheets:      mine,
		Report:      report,
		Share:       aggregate.ArtistVsOthers(sheets, userID),
		SongBins:    aggregate.SongDistribution(report.AllTracks, aggregate.SongBins),
		CompanyBins: aggregate.CompanyDistribution(report.CompanyData, aggregate.CompanyBins),
		GeneratedAt: s.now(),
	}
	s.remember(key, gen, performanceEntry{artist: &p})
	return p, nil
}

// Invalidate drops cached results affected by u. Every update type changes
// some aggregate, so the whole cache goes.
func (s *PerformanceService) Invalidate(u notify.Update) {
	s.mu.Lock()
	s.generation++
	n := s.cache.Purge()
	s.mu.Unlock()
	if n > 0 {
		slog.Debug("Performance cache invalidated", "type", u.Type, "entries", n)
	}
}

// Watch invalidates the cache for every update until updates is closed or
// ctx is cancelled.
func (s *PerformanceService) Watch(ctx context.Context, updates <-chan notify.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			s.Invalidate(u)
		}
	}
}

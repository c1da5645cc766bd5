package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"royalties/internal/core"
	"royalties/internal/ingest"
	"royalties/internal/sources"
)

// Seed file names looked up under the seed directory, compressed first.
var seedFiles = []string{"seed.json.zst", "seed.json"}

type Store struct {
	mu        sync.RWMutex
	users     []core.User
	companies []core.Company
	tracks    []core.Track
	sheets    []core.LogSheet
	payments  []core.PaymentReport
	invoices  []core.Invoice
	nextID    int64
	now       func() time.Time
}

func New(b ingest.Bundle) *Store {
	s := &Store{now: time.Now}
	s.replace(b)
	return s
}

// NewFromFiles seeds the store from base/seed.json(.zst). A missing seed file
// yields an empty store.
func NewFromFiles(base string) (*Store, error) {
	b, err := LoadSeed(base)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

// LoadSeed reads and normalizes the first seed file found under base.
func LoadSeed(base string) (ingest.Bundle, error) {
	for _, name := range seedFiles {
		path := filepath.Join(base, name)
		data, err := ingest.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return ingest.Bundle{}, fmt.Errorf("failed to read seed %s: %w", path, err)
		}
		b, err := ingest.NewNormalizer().Bundle(data)
		if err != nil {
			return ingest.Bundle{}, fmt.Errorf("failed to parse seed %s: %w", path, err)
		}
		return b, nil
	}
	return ingest.Bundle{}, nil
}

// Reload swaps in a new bundle. Reports saved at runtime are kept.
func (s *Store) Reload(b ingest.Bundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(b)
}

func (s *Store) replace(b ingest.Bundle) {
	s.users = slices.Clone(b.Users)
	s.companies = slices.Clone(b.Companies)
	s.tracks = slices.Clone(b.Tracks)
	s.sheets = slices.Clone(b.LogSheets)
	s.nextID = 0
	for _, l := range s.sheets {
		s.nextID = max(s.nextID, l.ID)
	}
}

// Ping always succeeds; the store lives in process memory.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListLogSheets(_ context.Context) ([]core.LogSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sheets), nil
}

func (s *Store) CreateLogSheet(_ context.Context, l core.LogSheet) (core.LogSheet, error) {
	if l.CreatedDate.IsZero() {
		l.CreatedDate = s.now()
	}
	if err := l.Validate(); err != nil {
		return core.LogSheet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	l.ID = s.nextID
	l.SelectedMusic = slices.Clone(l.SelectedMusic)
	s.sheets = append(s.sheets, l)
	return l, nil
}

func (s *Store) ListTracks(_ context.Context, f sources.TrackFilter) ([]core.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTrack(_ context.Context, id int64) (core.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Track{}, fmt.Errorf("track %d: %w", id, core.ErrNotFound)
}

func (s *Store) SetTrackStatus(_ context.Context, id int64, status core.StatusName) (core.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tracks {
		if t.ID != id {
			continue
		}
		if !core.CanTransition(t.StatusName(), status) {
			return core.Track{}, fmt.Errorf("track %d %s -> %s: %w", id, t.StatusName(), status, core.ErrInvalidStatus)
		}
		st := core.Status{StatusName: string(status)}
		if t.Status != nil {
			st.ID = t.Status.ID
		}
		s.tracks[i].Status = &st
		return s.tracks[i], nil
	}
	return core.Track{}, fmt.Errorf("track %d: %w", id, core.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
}

// Companies returns the known companies.
func (s *Store) Companies(_ context.Context) ([]core.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.companies), nil
}

func (s *Store) SavePaymentReport(_ context.Context, r core.PaymentReport) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.payments = append(s.payments, r)
	return r.ID, nil
}

func (s *Store) SaveInvoice(_ context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now()
	}
	s.invoices = append(s.invoices, inv)
	return inv.ID, nil
}

func (s *Store) ListPaymentReports(_ context.Context, artistID int64) ([]core.PaymentReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.PaymentReport, 0, len(s.payments))
	for _, r := range s.payments {
		if artistID == 0 || r.ArtistID == artistID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListInvoices(_ context.Context) ([]core.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.invoices), nil
}

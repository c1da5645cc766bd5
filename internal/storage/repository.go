package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"royalties/internal/core"
	"royalties/internal/ingest"
	"royalties/internal/sources"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListLogSheets implements sources.LogSheetLister
func (r *SQLiteRepository) ListLogSheets(ctx context.Context) ([]core.LogSheet, error) {
	sheets, err := r.queries.ListLogSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list log sheets: %w", err)
	}
	return sheets, nil
}

// CreateLogSheet implements sources.LogSheetWriter
func (r *SQLiteRepository) CreateLogSheet(ctx context.Context, l core.LogSheet) (core.LogSheet, error) {
	if l.CreatedDate.IsZero() {
		l.CreatedDate = r.now()
	}
	if err := l.Validate(); err != nil {
		return core.LogSheet{}, err
	}
	l.ID = 0

	err := r.inTx(ctx, func(q *Queries) error {
		id, err := q.UpsertLogSheet(ctx, l)
		l.ID = id
		return err
	})
	if err != nil {
		return core.LogSheet{}, fmt.Errorf("create log sheet: %w", err)
	}

	slog.InfoContext(ctx, "Log sheet saved to SQLite",
		"id", l.ID,
		"company", l.CompanyName(core.UnknownCompany),
		"selections", len(l.SelectedMusic))
	return l, nil
}

// ListTracks implements sources.TrackLister
func (r *SQLiteRepository) ListTracks(ctx context.Context, f sources.TrackFilter) ([]core.Track, error) {
	tracks, err := r.queries.ListTracks(ctx, f.UserID, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// GetTrack implements sources.TrackGetter
func (r *SQLiteRepository) GetTrack(ctx context.Context, id int64) (core.Track, error) {
	t, err := r.queries.GetTrack(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Track{}, fmt.Errorf("track %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Track{}, fmt.Errorf("get track %d: %w", id, err)
	}
	return t, nil
}

// SetTrackStatus implements sources.TrackReviewer
func (r *SQLiteRepository) SetTrackStatus(ctx context.Context, id int64, status core.StatusName) (core.Track, error) {
	var updated core.Track
	err := r.inTx(ctx, func(q *Queries) error {
		t, err := q.GetTrack(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("track %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !core.CanTransition(t.StatusName(), status) {
			return fmt.Errorf("track %d %s -> %s: %w", id, t.StatusName(), status, core.ErrInvalidStatus)
		}
		if err := q.UpdateTrackStatus(ctx, id, string(status)); err != nil {
			return err
		}
		updated, err = q.GetTrack(ctx, id)
		return err
	})
	if err != nil {
		return core.Track{}, fmt.Errorf("set track status: %w", err)
	}

	slog.InfoContext(ctx, "Track status updated", "id", id, "status", status)
	return updated, nil
}

// ListUsers implements sources.UserLister
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser implements sources.UserGetter
func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// SavePaymentReport implements sources.ReportWriter
func (r *SQLiteRepository) SavePaymentReport(ctx context.Context, rep core.PaymentReport) (string, error) {
	if err := rep.Validate(); err != nil {
		return "", err
	}
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = r.now()
	}
	if err := r.queries.InsertPaymentReport(ctx, rep); err != nil {
		return "", fmt.Errorf("insert payment report: %w", err)
	}

	slog.InfoContext(ctx, "Payment report saved to SQLite",
		"id", rep.ID,
		"artist_id", rep.ArtistID,
		"net_cents", rep.NetAmount.Cents)
	return rep.ID, nil
}

// SaveInvoice implements sources.ReportWriter
func (r *SQLiteRepository) SaveInvoice(ctx context.Context, inv core.Invoice) (string, error) {
	if err := inv.Validate(); err != nil {
		return "", err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.now()
	}
	if err := r.queries.InsertInvoice(ctx, inv); err != nil {
		return "", fmt.Errorf("insert invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved to SQLite",
		"id", inv.ID,
		"company", inv.BillingCompany,
		"total_cents", inv.TotalAmount.Cents)
	return inv.ID, nil
}

// ListPaymentReports implements sources.ReportLister
func (r *SQLiteRepository) ListPaymentReports(ctx context.Context, artistID int64) ([]core.PaymentReport, error) {
	out, err := r.queries.ListPaymentReports(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("list payment reports: %w", err)
	}
	return out, nil
}

// ListInvoices implements sources.ReportLister
func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	out, err := r.queries.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return out, nil
}

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Users     int
	Companies int
	Tracks    int
	LogSheets int
}

func (s ImportStats) String() string {
	return "users=" + strconv.Itoa(s.Users) +
		" companies=" + strconv.Itoa(s.Companies) +
		" tracks=" + strconv.Itoa(s.Tracks) +
		" log_sheets=" + strconv.Itoa(s.LogSheets)
}

// Import upserts a normalized bundle in one transaction. Rows with upstream
// ids replace existing rows; rows with synthetic ids are inserted fresh.
// Nested owners of works are stored as users so joins resolve.
func (r *SQLiteRepository) Import(ctx context.Context, b ingest.Bundle) (ImportStats, error) {
	var stats ImportStats
	err := r.inTx(ctx, func(q *Queries) error {
		for _, u := range b.Users {
			if _, err := q.UpsertUser(ctx, u); err != nil {
				return fmt.Errorf("user %d: %w", u.ID, err)
			}
			stats.Users++
		}
		for _, c := range b.Companies {
			if _, err := q.UpsertCompany(ctx, c); err != nil {
				return fmt.Errorf("company %d: %w", c.ID, err)
			}
			stats.Companies++
		}
		for _, t := range b.Tracks {
			if t.User != nil && t.User.ID > 0 {
				if _, err := q.UpsertUser(ctx, *t.User); err != nil {
					return fmt.Errorf("owner of track %d: %w", t.ID, err)
				}
			}
			if _, err := q.UpsertTrack(ctx, t); err != nil {
				return fmt.Errorf("track %d: %w", t.ID, err)
			}
			stats.Tracks++
		}
		for _, l := range b.LogSheets {
			if _, err := q.UpsertLogSheet(ctx, l); err != nil {
				return fmt.Errorf("log sheet %d: %w", l.ID, err)
			}
			stats.LogSheets++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import bundle: %w", err)
	}

	slog.InfoContext(ctx, "Bundle imported into SQLite",
		"users", stats.Users,
		"companies", stats.Companies,
		"tracks", stats.Tracks,
		"log_sheets", stats.LogSheets)
	return stats, nil
}

// Export reads every collection back as a bundle.
func (r *SQLiteRepository) Export(ctx context.Context) (ingest.Bundle, error) {
	var b ingest.Bundle
	var err error
	if b.Users, err = r.ListUsers(ctx); err != nil {
		return b, err
	}
	if b.Tracks, err = r.ListTracks(ctx, sources.TrackFilter{}); err != nil {
		return b, err
	}
	if b.LogSheets, err = r.ListLogSheets(ctx); err != nil {
		return b, err
	}
	return b, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

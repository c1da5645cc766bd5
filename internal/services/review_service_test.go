package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"royalties/internal/core"
	"royalties/internal/ingest"
	applog "royalties/internal/log"
	"royalties/internal/notify"
	"royalties/internal/sources/memory"
	"royalties/internal/table"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []notify.Update
}

func (n *recordingNotifier) Publish(u notify.Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
}

func (n *recordingNotifier) all() []notify.Update {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Update(nil), n.updates...)
}

func reviewFixture() *memory.Store {
	owner := &core.User{ID: 4, Name: "Ndapewa", Role: core.RoleArtist}
	return memory.New(ingest.Bundle{
		Users: []core.User{*owner},
		Tracks: []core.Track{
			{ID: 1, Title: "Omuhoko", User: owner, Status: &core.Status{ID: 1, StatusName: "PENDING"}},
			{ID: 2, Title: "Rain", User: owner, Status: &core.Status{ID: 2, StatusName: "APPROVED"}},
			{ID: 3, Title: "Dust", User: owner},
		},
	})
}

func TestReviewApprove(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewReviewService(reviewFixture(), n)

	tr, err := svc.Approve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, core.StatusApproved, tr.StatusName())

	updates := n.all()
	require.Len(t, updates, 1)
	require.Equal(t, notify.TypeMusic, updates[0].Type)
	require.Equal(t, int64(1), updates[0].ID)
	require.Equal(t, "APPROVED", updates[0].Status)
	require.True(t, updates[0].TriggersReload())
}

func TestReviewRejectMissingStatusCountsAsPending(t *testing.T) {
	svc := NewReviewService(reviewFixture(), nil)

	tr, err := svc.Reject(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, core.StatusRejected, tr.StatusName())
}

func TestReviewInvalidTransitions(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewReviewService(reviewFixture(), n)
	ctx := context.Background()

	_, err := svc.Reject(ctx, 2)
	require.ErrorIs(t, err, core.ErrInvalidStatus)

	_, err = svc.Approve(ctx, 99)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Review(ctx, "archive", 1)
	require.Error(t, err)

	require.Empty(t, n.all())
}

// blockingTracks holds SetTrackStatus until release is closed.
type blockingTracks struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTracks) SetTrackStatus(ctx context.Context, id int64, status core.StatusName) (core.Track, error) {
	close(b.entered)
	<-b.release
	return b.Store.SetTrackStatus(ctx, id, status)
}

func TestReviewRejectsDuplicateInFlight(t *testing.T) {
	store := &blockingTracks{
		Store:   reviewFixture(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewReviewService(store, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Approve(ctx, 1)
		done <- err
	}()

	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("first approval never reached the store")
	}
	require.True(t, svc.Pending(ActionApprove, 1))

	_, err := svc.Approve(ctx, 1)
	require.ErrorIs(t, err, table.ErrInFlight)

	var approve table.Action[core.Track]
	for _, a := range svc.Actions() {
		if a.ID == ActionApprove {
			approve = a
		}
	}
	require.True(t, approve.Disabled(core.Track{ID: 1}))
	require.False(t, approve.Disabled(core.Track{ID: 2}))

	close(store.release)
	require.NoError(t, <-done)
	require.False(t, svc.Pending(ActionApprove, 1))
}

func TestReviewActionsShowOnlyForPending(t *testing.T) {
	svc := NewReviewService(reviewFixture(), nil)
	actions := svc.Actions()
	require.Len(t, actions, 2)

	pending := core.Track{ID: 1, Status: &core.Status{StatusName: "PENDING"}}
	approved := core.Track{ID: 2, Status: &core.Status{StatusName: "APPROVED"}}
	for _, a := range actions {
		require.True(t, a.Show(pending), a.ID)
		require.False(t, a.Show(approved), a.ID)
	}

	reject, ok := table.FindAction(actions, ActionReject)
	require.True(t, ok)
	require.Equal(t, table.VariantDestructive, reject.Variant)
	require.NoError(t, reject.Invoke(context.Background(), pending))
}

// loggingContext carries a logger writing to buf, as the request logger
// middleware does for handlers.
func loggingContext(buf *bytes.Buffer) context.Context {
	l := applog.New(applog.Config{Component: applog.ComponentHTTP, Handler: slog.NewTextHandler(buf, nil)})
	return context.WithValue(context.Background(), applog.LoggerContextKey, l)
}

func TestReviewLogsWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	svc := NewReviewService(reviewFixture(), nil)

	_, err := svc.Reject(loggingContext(&buf), 1)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `msg="Work reviewed"`)
	require.Contains(t, out, "operation=reject")
	require.Contains(t, out, "work_id=1")
	require.Contains(t, out, "status=REJECTED")
}

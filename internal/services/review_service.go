package services

import (
	"context"
	"errors"
	"fmt"

	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/notify"
	"royalties/internal/sources"
	"royalties/internal/table"
)

// Notifier receives updates after successful writes.
type Notifier interface {
	Publish(u notify.Update)
}

// TrackStore is what the review flow needs from a backend.
type TrackStore interface {
	sources.TrackGetter
	sources.TrackReviewer
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ReviewService approves and rejects uploaded works.
type ReviewService struct {
	tracks   TrackStore
	notifier Notifier
	guard    *table.Guard
}

func NewReviewService(tracks TrackStore, notifier Notifier) *ReviewService {
	return &ReviewService{
		tracks:   tracks,
		notifier: notifier,
		guard:    table.NewGuard(),
	}
}

// Approve moves a pending work to APPROVED.
func (s *ReviewService) Approve(ctx context.Context, id int64) (core.Track, error) {
	return s.Review(ctx, ActionApprove, id)
}

// Reject moves a pending work to REJECTED.
func (s *ReviewService) Reject(ctx context.Context, id int64) (core.Track, error) {
	return s.Review(ctx, ActionReject, id)
}

// Review runs the named review action against the work with id. A second
// submission for the same work while the first is running fails with
// table.ErrInFlight.
func (s *ReviewService) Review(ctx context.Context, action string, id int64) (core.Track, error) {
	status, ok := reviewStatus[action]
	if !ok {
		return core.Track{}, fmt.Errorf("unknown review action %q", action)
	}

	t, err := s.tracks.GetTrack(ctx, id)
	if err != nil {
		return core.Track{}, err
	}
	if !core.CanTransition(t.StatusName(), status) {
		return core.Track{}, fmt.Errorf("%s work %d (%s): %w", action, id, t.StatusName(), core.ErrInvalidStatus)
	}

	var updated core.Track
	err = s.guard.Do(ctx, guardKey(action, t), func(ctx context.Context) error {
		var err error
		updated, err = s.apply(ctx, t, status)
		return err
	})
	if err != nil {
		return core.Track{}, err
	}
	return updated, nil
}

// Pending reports whether a review of id is currently running.
func (s *ReviewService) Pending(action string, id int64) bool {
	return s.guard.Pending(guardKey(action, core.Track{ID: id}))
}

var reviewStatus = map[string]core.StatusName{
	ActionApprove: core.StatusApproved,
	ActionReject:  core.StatusRejected,
}

// guardKey matches the key table.Guarded derives for a row action.
func guardKey(action string, t core.Track) string {
	return action + "/" + t.RowID()
}

// Actions are the guarded row actions of the works table. They show only for
// pending works and render disabled while a submission is in flight.
func (s *ReviewService) Actions() []table.Action[core.Track] {
	pending := func(t core.Track) bool { return t.StatusName() == core.StatusPending }
	return []table.Action[core.Track]{
		table.Guarded(s.guard, table.Action[core.Track]{
			ID:      ActionApprove,
			Label:   "Approve",
			Icon:    "check",
			Variant: table.VariantSuccess,
			Show:    pending,
			OnClick: func(ctx context.Context, t core.Track) error {
				_, err := s.apply(ctx, t, core.StatusApproved)
				return err
			},
		}),
		table.Guarded(s.guard, table.Action[core.Track]{
			ID:      ActionReject,
			Label:   "Reject",
			Icon:    "x",
			Variant: table.VariantDestructive,
			Show:    pending,
			OnClick: func(ctx context.Context, t core.Track) error {
				_, err := s.apply(ctx, t, core.StatusRejected)
				return err
			},
		}),
	}
}

func (s *ReviewService) apply(ctx context.Context, t core.Track, status core.StatusName) (core.Track, error) {
	updated, err := s.tracks.SetTrackStatus(ctx, t.ID, status)
	if err != nil {
		if errors.Is(err, core.ErrInvalidStatus) || errors.Is(err, core.ErrNotFound) {
			return core.Track{}, err
		}
		return core.Track{}, fmt.Errorf("review work %d: %w", t.ID, err)
	}

	op := applog.OpApprove
	if status == core.StatusRejected {
		op = applog.OpReject
	}
	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogWorkReviewed(ctx, op, t.ID, t.Title, string(status))

	if s.notifier != nil {
		s.notifier.Publish(notify.Update{Type: notify.TypeMusic, ID: t.ID, Status: string(status)})
	}
	return updated, nil
}

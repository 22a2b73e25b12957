package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/repository"
)

// reviewSyncJob retries a review-state write that could not be confirmed on
// the request path. Each attempt re-reads the persisted prior state and
// recomputes the schedule; the original computed value is never replayed, so
// a write that actually landed (or a concurrent later review) is not
// double-applied.
type reviewSyncJob struct {
	svc     *studyService
	userID  int64
	cardID  int64
	quality int
	at      time.Time
}

func (j *reviewSyncJob) Name() string {
	return fmt.Sprintf("review-sync(card=%d)", j.cardID)
}

func (j *reviewSyncJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	prior, err := j.svc.states.Get(ctx, j.userID, j.cardID)
	if err != nil {
		return fmt.Errorf("re-read review state: %w", err)
	}
	if prior != nil && prior.LastReviewedAt != nil && !prior.LastReviewedAt.Before(j.at) {
		// The original write made it after all, or a newer review superseded
		// this one. Nothing to reconcile.
		log.Debug("review already persisted for card %d, skipping", j.cardID)
		return nil
	}

	if _, err := j.svc.applyReview(ctx, j.userID, j.cardID, j.quality, j.at); err != nil {
		if stderrors.Is(err, repository.ErrVersionConflict) {
			return nil
		}
		return fmt.Errorf("reconcile review state: %w", err)
	}
	log.Info("reconciled review state for card %d", j.cardID)
	return nil
}

// SessionSweepJob abandons sessions that have been active longer than MaxAge.
// It is scheduled periodically so sessions orphaned by a closed tab do not
// stay active forever.
type SessionSweepJob struct {
	Service StudyService
	MaxAge  time.Duration
}

func (j *SessionSweepJob) Name() string {
	return "session-sweep"
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	_, err := j.Service.SweepStaleSessions(ctx, j.MaxAge, time.Now())
	return err
}

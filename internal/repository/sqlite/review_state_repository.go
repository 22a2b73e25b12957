package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

type reviewStateRepository struct {
	db *sql.DB
}

// NewReviewStateRepository creates a new ReviewStateRepository implementation
func NewReviewStateRepository(db *sql.DB) repository.ReviewStateRepository {
	return &reviewStateRepository{db: db}
}

func (r *reviewStateRepository) Get(ctx context.Context, userID, cardID int64) (*models.ReviewState, error) {
	log := logger.FromContext(ctx).WithPrefix("review_state_repo")
	log.Debug("getting review state: user_id=%d, card_id=%d", userID, cardID)

	var s models.ReviewState
	var nextReview, lastReviewed sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT user_id, card_id, ease_factor, interval_days, repetitions, next_review_at, last_reviewed_at,
       total_reviews, correct_count, incorrect_count, version
FROM review_states
WHERE user_id = ? AND card_id = ?
`, userID, cardID).Scan(&s.UserID, &s.CardID, &s.EaseFactor, &s.IntervalDays, &s.Repetitions, &nextReview, &lastReviewed,
		&s.TotalReviews, &s.CorrectCount, &s.IncorrectCount, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no review state yet: user_id=%d, card_id=%d", userID, cardID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get review state: %v", err)
		return nil, err
	}
	if nextReview.Valid {
		s.NextReviewAt = &nextReview.Time
	}
	if lastReviewed.Valid {
		s.LastReviewedAt = &lastReviewed.Time
	}
	return &s, nil
}

// Save persists a review state computed from the version carried in the state
// itself. Version 0 means the caller read no row and expects to create one;
// any other version must still match the stored row. A mismatch either way
// reports ErrVersionConflict so the caller re-reads and recomputes.
func (r *reviewStateRepository) Save(ctx context.Context, s models.ReviewState) error {
	log := logger.FromContext(ctx).WithPrefix("review_state_repo")
	log.Debug("saving review state: user_id=%d, card_id=%d, version=%d, interval=%d, ease=%.2f",
		s.UserID, s.CardID, s.Version, s.IntervalDays, s.EaseFactor)

	var res sql.Result
	var err error
	if s.Version == 0 {
		// INSERT OR IGNORE keeps this free of driver-specific constraint
		// errors: zero rows affected means someone else created the row.
		res, err = r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO review_states
    (user_id, card_id, ease_factor, interval_days, repetitions, next_review_at, last_reviewed_at,
     total_reviews, correct_count, incorrect_count, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
`, s.UserID, s.CardID, s.EaseFactor, s.IntervalDays, s.Repetitions, nullTime(s.NextReviewAt), nullTime(s.LastReviewedAt),
			s.TotalReviews, s.CorrectCount, s.IncorrectCount)
	} else {
		res, err = r.db.ExecContext(ctx, `
UPDATE review_states
SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_at = ?, last_reviewed_at = ?,
    total_reviews = ?, correct_count = ?, incorrect_count = ?, version = version + 1
WHERE user_id = ? AND card_id = ? AND version = ?
`, s.EaseFactor, s.IntervalDays, s.Repetitions, nullTime(s.NextReviewAt), nullTime(s.LastReviewedAt),
			s.TotalReviews, s.CorrectCount, s.IncorrectCount, s.UserID, s.CardID, s.Version)
	}
	if err != nil {
		log.Error("failed to save review state: %v", err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("review state version conflict: user_id=%d, card_id=%d, version=%d", s.UserID, s.CardID, s.Version)
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *reviewStateRepository) ListByDeck(ctx context.Context, userID, deckID int64) ([]models.ReviewState, error) {
	log := logger.FromContext(ctx).WithPrefix("review_state_repo")
	log.Debug("listing review states: user_id=%d, deck_id=%d", userID, deckID)

	rows, err := r.db.QueryContext(ctx, `
SELECT rs.user_id, rs.card_id, rs.ease_factor, rs.interval_days, rs.repetitions, rs.next_review_at, rs.last_reviewed_at,
       rs.total_reviews, rs.correct_count, rs.incorrect_count, rs.version
FROM review_states rs
JOIN cards c ON c.id = rs.card_id
WHERE rs.user_id = ? AND c.deck_id = ?
ORDER BY rs.card_id
`, userID, deckID)
	if err != nil {
		log.Error("failed to list review states: %v", err)
		return nil, err
	}
	defer rows.Close()

	var states []models.ReviewState
	for rows.Next() {
		var s models.ReviewState
		var nextReview, lastReviewed sql.NullTime
		if err := rows.Scan(&s.UserID, &s.CardID, &s.EaseFactor, &s.IntervalDays, &s.Repetitions, &nextReview, &lastReviewed,
			&s.TotalReviews, &s.CorrectCount, &s.IncorrectCount, &s.Version); err != nil {
			log.Error("failed to scan review state row: %v", err)
			return nil, err
		}
		if nextReview.Valid {
			s.NextReviewAt = &nextReview.Time
		}
		if lastReviewed.Valid {
			s.LastReviewedAt = &lastReviewed.Time
		}
		states = append(states, s)
	}
	log.Debug("found %d review states", len(states))
	return states, rows.Err()
}

func (r *reviewStateRepository) InsertEvent(ctx context.Context, e models.ReviewEvent) error {
	log := logger.FromContext(ctx).WithPrefix("review_state_repo")
	log.Debug("inserting review event: user_id=%d, card_id=%d, quality=%d", e.UserID, e.CardID, e.Quality)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_events (user_id, card_id, quality, reviewed_at)
VALUES (?, ?, ?, ?)
`, e.UserID, e.CardID, e.Quality, e.ReviewedAt)
	if err != nil {
		log.Error("failed to insert review event: %v", err)
	}
	return err
}

func (r *reviewStateRepository) CountEventsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM review_events WHERE user_id = ? AND reviewed_at >= ?
`, userID, since).Scan(&n)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("review_state_repo").Error("failed to count review events: %v", err)
		return 0, err
	}
	return n, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

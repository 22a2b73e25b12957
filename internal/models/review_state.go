package models

import "time"

// Scheduling defaults for a card that has never been reviewed.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// ReviewState is the single source of truth for one (user, card) scheduling
// record. It is created lazily on first review and mutated only by the
// scheduler; Version backs the compare-and-set write path. Repetitions counts
// consecutive successful reviews since the last lapse and drives the interval
// ladder.
type ReviewState struct {
	UserID         int64      `json:"user_id"`
	CardID         int64      `json:"card_id"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   *time.Time `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	TotalReviews   int        `json:"total_reviews"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	Version        int64      `json:"-"`
}

// NewReviewState returns the defaulted state for a never-reviewed card.
// NextReviewAt is nil, which makes the card immediately due.
func NewReviewState(userID, cardID int64) ReviewState {
	return ReviewState{
		UserID:     userID,
		CardID:     cardID,
		EaseFactor: DefaultEaseFactor,
	}
}

// Reviewed reports whether the card has at least one recorded review.
func (s ReviewState) Reviewed() bool {
	return s.TotalReviews > 0
}

// Due reports whether the card should be presented at the given time.
func (s ReviewState) Due(now time.Time) bool {
	return s.NextReviewAt == nil || !s.NextReviewAt.After(now)
}

package models

import (
	"math"
	"time"
)

// Session status values. Active sessions are mutable; the other two are
// terminal and immutable once set.
const (
	SessionActive    = "active"
	SessionFinalized = "finalized"
	SessionAbandoned = "abandoned"
)

type StudySession struct {
	ID              string     `json:"id"`
	UserID          int64      `json:"user_id"`
	DeckID          int64      `json:"deck_id"`
	Status          string     `json:"status"`
	CardsStudied    int        `json:"cards_studied"`
	CardsCorrect    int        `json:"cards_correct"`
	CardsIncorrect  int        `json:"cards_incorrect"`
	DurationMinutes int        `json:"duration_minutes"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
}

// IsActive reports whether the session can still accept answers.
func (s StudySession) IsActive() bool {
	return s.Status == SessionActive
}

// Close marks the session terminal with the given status and computes the
// duration. It does not touch the counters.
func (s StudySession) Close(status string, now time.Time) StudySession {
	s.Status = status
	s.EndedAt = &now
	s.DurationMinutes = int(math.Round(now.Sub(s.StartedAt).Seconds() / 60))
	return s
}

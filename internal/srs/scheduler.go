package srs

import (
	"math"
	"time"

	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/models"
)

// Quality rating bounds. Ratings of PassThreshold and above count as a
// successful recall.
const (
	MinQuality    = 0
	MaxQuality    = 5
	PassThreshold = 3
)

// Schedule applies one review with the given quality rating to a card's
// review state and returns the next state. It is a pure function of its
// inputs: no I/O, no clock reads, and replaying the same (state, quality, now)
// always yields the same result, which is what makes retried writes safe.
//
// The algorithm is the SM-2 family:
//   - quality < 3 resets the interval to 1 day and the consecutive-success
//     count to zero, and leaves the ease factor untouched, so a lapse does
//     not keep punishing a card that was already hard.
//   - quality >= 3 grows the interval along the 1 -> 6 -> round(interval *
//     ease) ladder keyed by the consecutive-success count (a success right
//     after a lapse is a first success again), and nudges the ease factor by
//     the standard SM-2 delta, floored at 1.3.
//
// Out-of-range quality is a caller bug and is rejected rather than clamped.
func Schedule(state models.ReviewState, quality int, now time.Time) (models.ReviewState, error) {
	if quality < MinQuality || quality > MaxQuality {
		return models.ReviewState{}, errors.NewValidationError("quality", "must be between 0 and 5")
	}

	if state.EaseFactor == 0 {
		state.EaseFactor = models.DefaultEaseFactor
	}

	if quality < PassThreshold {
		state.IntervalDays = 1
		state.Repetitions = 0
		state.IncorrectCount++
	} else {
		switch state.Repetitions {
		case 0:
			state.IntervalDays = 1
		case 1:
			state.IntervalDays = 6
		default:
			// The growth factor is the ease as it stood before this review.
			state.IntervalDays = int(math.Round(float64(state.IntervalDays) * state.EaseFactor))
		}
		state.Repetitions++

		q := float64(quality)
		ease := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
		if ease < models.MinEaseFactor {
			ease = models.MinEaseFactor
		}
		state.EaseFactor = ease
		state.CorrectCount++
	}

	state.TotalReviews++
	next := now.AddDate(0, 0, state.IntervalDays)
	state.NextReviewAt = &next
	last := now
	state.LastReviewedAt = &last
	return state, nil
}

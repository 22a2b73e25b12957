package srs_test

import (
	"testing"
	"time"

	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSchedule_FirstSuccessfulReview(t *testing.T) {
	for _, quality := range []int{3, 4, 5} {
		state := models.NewReviewState(1, 1)

		updated, err := srs.Schedule(state, quality, reviewTime)

		require.NoError(t, err)
		assert.Equal(t, 1, updated.IntervalDays, "first success should set interval to 1 (quality %d)", quality)
		assert.Equal(t, 1, updated.TotalReviews)
		assert.Equal(t, 1, updated.CorrectCount)
		assert.Equal(t, 0, updated.IncorrectCount)
		require.NotNil(t, updated.NextReviewAt)
		assert.Equal(t, reviewTime.AddDate(0, 0, 1), *updated.NextReviewAt)
		require.NotNil(t, updated.LastReviewedAt)
		assert.Equal(t, reviewTime, *updated.LastReviewedAt)
	}
}

func TestSchedule_SecondConsecutiveSuccess(t *testing.T) {
	state := models.NewReviewState(1, 1)

	state, err := srs.Schedule(state, 4, reviewTime)
	require.NoError(t, err)
	state, err = srs.Schedule(state, 4, reviewTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 6, state.IntervalDays, "second consecutive success should set interval to 6")
}

func TestSchedule_SubsequentSuccessMultipliesByEase(t *testing.T) {
	state := models.ReviewState{
		UserID:       1,
		CardID:       1,
		EaseFactor:   2.5,
		IntervalDays: 6,
		Repetitions:  2,
		TotalReviews: 2,
		CorrectCount: 2,
	}

	updated, err := srs.Schedule(state, 4, reviewTime)

	require.NoError(t, err)
	assert.Equal(t, 15, updated.IntervalDays, "6 * 2.5 = 15")
	assert.InDelta(t, 2.5, updated.EaseFactor, 0.001, "quality 4 leaves ease unchanged")
}

func TestSchedule_IntervalUsesEaseBeforeAdjustment(t *testing.T) {
	state := models.ReviewState{
		EaseFactor:   2.5,
		IntervalDays: 10,
		Repetitions:  3,
		TotalReviews: 3,
		CorrectCount: 3,
	}

	updated, err := srs.Schedule(state, 5, reviewTime)

	require.NoError(t, err)
	assert.Equal(t, 25, updated.IntervalDays, "10 * 2.5, not 10 * 2.6")
	assert.InDelta(t, 2.6, updated.EaseFactor, 0.001, "quality 5 raises ease by 0.1")
}

func TestSchedule_FailureResetsInterval(t *testing.T) {
	for _, quality := range []int{0, 1, 2} {
		state := models.ReviewState{
			EaseFactor:   2.2,
			IntervalDays: 42,
			Repetitions:  5,
			TotalReviews: 9,
			CorrectCount: 8,
		}

		updated, err := srs.Schedule(state, quality, reviewTime)

		require.NoError(t, err)
		assert.Equal(t, 1, updated.IntervalDays, "failure should reset interval regardless of prior value")
		assert.Equal(t, 0, updated.Repetitions, "failure resets the consecutive-success count")
		assert.InDelta(t, 2.2, updated.EaseFactor, 0.001, "failure leaves ease factor unchanged")
		assert.Equal(t, 10, updated.TotalReviews)
		assert.Equal(t, 8, updated.CorrectCount)
		assert.Equal(t, 2, updated.IncorrectCount)
	}
}

func TestSchedule_FailureThenSuccessStartsOver(t *testing.T) {
	state := models.ReviewState{
		EaseFactor:   2.5,
		IntervalDays: 30,
		Repetitions:  4,
		TotalReviews: 5,
		CorrectCount: 5,
	}

	state, err := srs.Schedule(state, 1, reviewTime)
	require.NoError(t, err)
	state, err = srs.Schedule(state, 4, reviewTime.AddDate(0, 0, 1))
	require.NoError(t, err)

	// A success right after a lapse is a first success again: interval 1, not
	// 6 and not a continuation of the old 30.
	assert.Equal(t, 1, state.IntervalDays)

	state, err = srs.Schedule(state, 4, reviewTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 6, state.IntervalDays, "the ladder then resumes normally")
}

func TestSchedule_EaseFactorNeverBelowFloor(t *testing.T) {
	state := models.NewReviewState(1, 1)

	// Barely-passing reviews keep dragging the ease factor down.
	var err error
	for i := 0; i < 20; i++ {
		state, err = srs.Schedule(state, 3, reviewTime.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.EaseFactor, models.MinEaseFactor)
	}
	assert.InDelta(t, models.MinEaseFactor, state.EaseFactor, 0.001)
}

func TestSchedule_CountsStayConsistent(t *testing.T) {
	state := models.NewReviewState(1, 1)

	var err error
	for i, quality := range []int{4, 2, 5, 0, 3, 3, 1, 5} {
		state, err = srs.Schedule(state, quality, reviewTime.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.Equal(t, state.TotalReviews, state.CorrectCount+state.IncorrectCount)
	}
	assert.Equal(t, 8, state.TotalReviews)
}

func TestSchedule_Deterministic(t *testing.T) {
	state := models.ReviewState{
		EaseFactor:   2.36,
		IntervalDays: 12,
		Repetitions:  3,
		TotalReviews: 7,
		CorrectCount: 5,
	}

	first, err := srs.Schedule(state, 4, reviewTime)
	require.NoError(t, err)
	second, err := srs.Schedule(state, 4, reviewTime)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must yield identical outputs")
}

func TestSchedule_RejectsOutOfRangeQuality(t *testing.T) {
	for _, quality := range []int{-1, 6, 100} {
		_, err := srs.Schedule(models.NewReviewState(1, 1), quality, reviewTime)
		assert.Error(t, err, "quality %d should be rejected, not clamped", quality)
	}
}

func TestSchedule_DefaultsUninitializedEase(t *testing.T) {
	// A zero-valued state (ease never set) must behave like a fresh card.
	updated, err := srs.Schedule(models.ReviewState{}, 4, reviewTime)

	require.NoError(t, err)
	assert.Equal(t, 1, updated.IntervalDays)
	assert.InDelta(t, models.DefaultEaseFactor, updated.EaseFactor, 0.001)
}

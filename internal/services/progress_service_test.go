package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nils/studyflash/internal/db"
	apperrors "github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
	"github.com/nils/studyflash/internal/repository/sqlite"
	"github.com/nils/studyflash/internal/services"
	"github.com/nils/studyflash/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type ProgressServiceSuite struct {
	suite.Suite
	db      *db.DB
	states  repository.ReviewStateRepository
	service services.ProgressService
	userID  int64
	now     time.Time
}

func (s *ProgressServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.states = sqlite.NewReviewStateRepository(s.db.DB)
	s.service = services.NewProgressService(
		sqlite.NewUserRepository(s.db.DB),
		sqlite.NewDeckRepository(s.db.DB),
		sqlite.NewCardRepository(s.db.DB),
		s.states,
		sqlite.NewSessionRepository(s.db.DB),
		services.ProgressOptions{},
	)
	s.userID = testutil.SeedUser(s.T(), s.db, "tester")
	s.now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
}

// seedState writes a review state with the given stats for a card.
func (s *ProgressServiceSuite) seedState(cardID int64, interval, correct, incorrect int, next *time.Time) {
	state := models.NewReviewState(s.userID, cardID)
	state.IntervalDays = interval
	state.CorrectCount = correct
	state.IncorrectCount = incorrect
	state.TotalReviews = correct + incorrect
	state.NextReviewAt = next
	s.Require().NoError(s.states.Save(context.Background(), state))
}

// seedFinalizedSession writes a terminal session that ended at the given time.
func (s *ProgressServiceSuite) seedFinalizedSession(deckID int64, endedAt time.Time, studied int) {
	_, err := s.db.ExecContext(context.Background(), `
INSERT INTO study_sessions (id, user_id, deck_id, status, cards_studied, cards_correct, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, uuid.NewString(), s.userID, deckID, models.SessionFinalized, studied, studied, endedAt.Add(-15*time.Minute), endedAt)
	s.Require().NoError(err)
}

func (s *ProgressServiceSuite) TestDeckSummaryEmptyDeck() {
	deckID := testutil.SeedDeck(s.T(), s.db, s.userID, "empty", false)

	summary, err := s.service.DeckSummary(context.Background(), s.userID, deckID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(0, summary.TotalCards)
	s.Assert().Equal(0, summary.CardsStudied)
	s.Assert().Equal(float64(0), summary.MasteryPercent)
	s.Assert().Equal(float64(0), summary.AccuracyPercent)
}

func (s *ProgressServiceSuite) TestDeckSummaryCounts() {
	deckID, cards := testutil.SeedDeckWithCards(s.T(), s.db, s.userID, "capitals", 4)
	future := s.now.AddDate(0, 0, 30)
	past := s.now.AddDate(0, 0, -1)

	// Mastered: long interval and more correct than incorrect.
	s.seedState(cards[0], 30, 10, 2, &future)
	// Long interval but failing more than passing: not mastered.
	s.seedState(cards[1], 25, 3, 5, &future)
	// Short interval, currently due.
	s.seedState(cards[2], 1, 2, 1, &past)
	// cards[3] has never been reviewed and counts as due.

	summary, err := s.service.DeckSummary(context.Background(), s.userID, deckID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(4, summary.TotalCards)
	s.Assert().Equal(3, summary.CardsStudied)
	s.Assert().Equal(1, summary.CardsMastered)
	s.Assert().Equal(2, summary.CardsDue)
	s.Assert().InDelta(25.0, summary.MasteryPercent, 0.001)
	// 15 correct out of 23 reviews.
	s.Assert().InDelta(100*15.0/23.0, summary.AccuracyPercent, 0.001)
}

func (s *ProgressServiceSuite) TestDeckSummaryInvisibleDeck() {
	other := testutil.SeedUser(s.T(), s.db, "other")
	deckID := testutil.SeedDeck(s.T(), s.db, other, "private", false)

	_, err := s.service.DeckSummary(context.Background(), s.userID, deckID, s.now)
	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Assert().Equal(apperrors.ErrCodeNotFound, appErr.Code)
}

func (s *ProgressServiceSuite) TestAccountSummaryUnknownUser() {
	_, err := s.service.AccountSummary(context.Background(), 999, s.now)
	s.Require().Error(err)
	appErr, ok := err.(*apperrors.AppError)
	s.Require().True(ok)
	s.Assert().Equal(apperrors.ErrCodeNotFound, appErr.Code)
}

func (s *ProgressServiceSuite) TestAccountSummaryNoActivity() {
	summary, err := s.service.AccountSummary(context.Background(), s.userID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(0, summary.StreakDays)
	s.Assert().Equal(0, summary.TotalCardsMastered)
	s.Assert().Equal(float64(0), summary.OverallAccuracy)
	s.Assert().Equal(0, summary.DailyProgress)
	s.Assert().Equal(20, summary.DailyGoal)
	s.Assert().Empty(summary.Decks)
}

func (s *ProgressServiceSuite) TestAccountSummaryAggregatesDecks() {
	deckA, cardsA := testutil.SeedDeckWithCards(s.T(), s.db, s.userID, "a", 2)
	deckB, cardsB := testutil.SeedDeckWithCards(s.T(), s.db, s.userID, "b", 2)
	future := s.now.AddDate(0, 0, 40)

	s.seedState(cardsA[0], 40, 8, 0, &future)
	s.seedState(cardsA[1], 40, 6, 2, &future)
	s.seedState(cardsB[0], 2, 3, 3, &future)

	summary, err := s.service.AccountSummary(context.Background(), s.userID, s.now)
	s.Require().NoError(err)
	s.Require().Len(summary.Decks, 2)
	s.Assert().Equal(2, summary.TotalCardsMastered)
	// 17 correct out of 22 reviews across both decks.
	s.Assert().InDelta(100*17.0/22.0, summary.OverallAccuracy, 0.001)

	byID := make(map[int64]models.DeckProgressSummary)
	for _, d := range summary.Decks {
		byID[d.DeckID] = d
	}
	s.Assert().Equal(2, byID[deckA].CardsMastered)
	s.Assert().Equal(0, byID[deckB].CardsMastered)
	s.Assert().Equal(2, byID[deckB].TotalCards)
}

func (s *ProgressServiceSuite) TestAccountSummaryStreak() {
	deckID := testutil.SeedDeck(s.T(), s.db, s.userID, "daily", false)

	// Three consecutive days ending yesterday; nothing today. The streak
	// stands at 3 because today is not over yet.
	for i := 1; i <= 3; i++ {
		s.seedFinalizedSession(deckID, s.now.AddDate(0, 0, -i), 5)
	}
	// A session further back, separated by a gap, must not extend it.
	s.seedFinalizedSession(deckID, s.now.AddDate(0, 0, -6), 5)

	summary, err := s.service.AccountSummary(context.Background(), s.userID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(3, summary.StreakDays)
}

func (s *ProgressServiceSuite) TestAccountSummaryStreakIncludesToday() {
	deckID := testutil.SeedDeck(s.T(), s.db, s.userID, "daily", false)
	s.seedFinalizedSession(deckID, s.now.Add(-time.Hour), 5)
	s.seedFinalizedSession(deckID, s.now.AddDate(0, 0, -1), 5)

	summary, err := s.service.AccountSummary(context.Background(), s.userID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(2, summary.StreakDays)
}

func (s *ProgressServiceSuite) TestAccountSummaryStreakIgnoresEmptySessions() {
	deckID := testutil.SeedDeck(s.T(), s.db, s.userID, "daily", false)
	// Finalized but nothing studied: does not count as a study day.
	s.seedFinalizedSession(deckID, s.now.AddDate(0, 0, -1), 0)

	summary, err := s.service.AccountSummary(context.Background(), s.userID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(0, summary.StreakDays)
}

func (s *ProgressServiceSuite) TestAccountSummaryDailyProgress() {
	_, cards := testutil.SeedDeckWithCards(s.T(), s.db, s.userID, "daily", 3)
	ctx := context.Background()

	// Two reviews today, one yesterday.
	for _, at := range []time.Time{s.now.Add(-time.Hour), s.now.Add(-2 * time.Hour), s.now.AddDate(0, 0, -1)} {
		s.Require().NoError(s.states.InsertEvent(ctx, models.ReviewEvent{
			UserID:     s.userID,
			CardID:     cards[0],
			Quality:    4,
			ReviewedAt: at,
		}))
	}

	summary, err := s.service.AccountSummary(ctx, s.userID, s.now)
	s.Require().NoError(err)
	s.Assert().Equal(2, summary.DailyProgress)
}

func TestProgressServiceSuite(t *testing.T) {
	suite.Run(t, new(ProgressServiceSuite))
}

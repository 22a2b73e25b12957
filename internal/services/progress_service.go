package services

import (
	"context"
	"sync"
	"time"

	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

// deckSummaryTimeout caps each per-deck computation inside the account
// fan-out so one slow deck cannot hang the dashboard.
const deckSummaryTimeout = 5 * time.Second

// ProgressOptions tunes the aggregator. MasteryThresholdDays is the minimum
// interval for a card to count as mastered (default 21); Concurrency bounds
// the account-summary fan-out.
type ProgressOptions struct {
	MasteryThresholdDays int
	DefaultDailyGoal     int
	Concurrency          int
}

// ProgressService derives deck-level and account-level progress summaries.
// Summaries are pure read-side projections: recomputed on demand, never
// stored, and safe to call from any number of goroutines.
type ProgressService interface {
	DeckSummary(ctx context.Context, userID, deckID int64, now time.Time) (*models.DeckProgressSummary, error)
	AccountSummary(ctx context.Context, userID int64, now time.Time) (*models.AccountProgressSummary, error)
}

type progressService struct {
	users    repository.UserRepository
	decks    repository.DeckRepository
	cards    repository.CardRepository
	states   repository.ReviewStateRepository
	sessions repository.SessionRepository
	opts     ProgressOptions
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	users repository.UserRepository,
	decks repository.DeckRepository,
	cards repository.CardRepository,
	states repository.ReviewStateRepository,
	sessions repository.SessionRepository,
	opts ProgressOptions,
) ProgressService {
	if opts.MasteryThresholdDays <= 0 {
		opts.MasteryThresholdDays = 21
	}
	if opts.DefaultDailyGoal <= 0 {
		opts.DefaultDailyGoal = 20
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &progressService{
		users:    users,
		decks:    decks,
		cards:    cards,
		states:   states,
		sessions: sessions,
		opts:     opts,
	}
}

func (s *progressService) DeckSummary(ctx context.Context, userID, deckID int64, now time.Time) (*models.DeckProgressSummary, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing deck summary: user_id=%d, deck_id=%d", userID, deckID)

	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil || (deck.OwnerID != userID && !deck.IsPublic) {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	summary, err := s.computeDeckSummary(ctx, userID, *deck, now)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return summary, nil
}

func (s *progressService) computeDeckSummary(ctx context.Context, userID int64, deck models.Deck, now time.Time) (*models.DeckProgressSummary, error) {
	totalCards, err := s.cards.CountByDeck(ctx, deck.ID)
	if err != nil {
		return nil, err
	}
	states, err := s.states.ListByDeck(ctx, userID, deck.ID)
	if err != nil {
		return nil, err
	}

	summary := models.DeckProgressSummary{
		DeckID:     deck.ID,
		Title:      deck.Title,
		TotalCards: totalCards,
	}
	for _, st := range states {
		if !st.Reviewed() {
			continue
		}
		summary.CardsStudied++
		summary.CardsCorrect += st.CorrectCount
		summary.CardsIncorrect += st.IncorrectCount
		if st.IntervalDays >= s.opts.MasteryThresholdDays && st.CorrectCount > st.IncorrectCount {
			summary.CardsMastered++
		}
		if st.Due(now) {
			summary.CardsDue++
		}
	}
	// Cards with no review state at all are due by definition.
	summary.CardsDue += totalCards - len(states)

	if summary.TotalCards > 0 {
		summary.MasteryPercent = 100 * float64(summary.CardsMastered) / float64(summary.TotalCards)
	}
	if reviews := summary.CardsCorrect + summary.CardsIncorrect; reviews > 0 {
		summary.AccuracyPercent = 100 * float64(summary.CardsCorrect) / float64(reviews)
	}
	return &summary, nil
}

func (s *progressService) AccountSummary(ctx context.Context, userID int64, now time.Time) (*models.AccountProgressSummary, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing account summary: user_id=%d", userID)

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", userID)
	}

	decks, err := s.decks.ListStudied(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	// Bounded fan-out, one slot per deck. A failed deck degrades to its
	// zero-valued row so the dashboard always gets one row per deck.
	summaries := make([]models.DeckProgressSummary, len(decks))
	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup
	for i, deck := range decks {
		wg.Add(1)
		go func(i int, deck models.Deck) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			deckCtx, cancel := context.WithTimeout(ctx, deckSummaryTimeout)
			defer cancel()

			summary, err := s.computeDeckSummary(deckCtx, userID, deck, now)
			if err != nil {
				logger.FromContext(ctx).Warn("deck summary failed, reporting zero values: deck_id=%d: %v", deck.ID, err)
				summaries[i] = models.DeckProgressSummary{DeckID: deck.ID, Title: deck.Title}
				return
			}
			summaries[i] = *summary
		}(i, deck)
	}
	wg.Wait()

	account := models.AccountProgressSummary{
		DailyGoal: user.DailyGoal,
		Decks:     summaries,
	}
	if account.DailyGoal <= 0 {
		account.DailyGoal = s.opts.DefaultDailyGoal
	}

	var correct, incorrect int
	for _, d := range summaries {
		account.TotalCardsMastered += d.CardsMastered
		correct += d.CardsCorrect
		incorrect += d.CardsIncorrect
	}
	if reviews := correct + incorrect; reviews > 0 {
		account.OverallAccuracy = 100 * float64(correct) / float64(reviews)
	}

	loc := userLocation(user.Timezone)
	account.StreakDays = s.streakDays(ctx, userID, now, loc)

	dayStart := startOfDay(now, loc)
	studiedToday, err := s.states.CountEventsSince(ctx, userID, dayStart)
	if err != nil {
		// Degrade to zero rather than failing the whole summary.
		log.Warn("failed to count today's reviews: %v", err)
		studiedToday = 0
	}
	account.DailyProgress = studiedToday

	log.Debug("account summary ready: decks=%d, streak=%d, daily=%d/%d",
		len(summaries), account.StreakDays, account.DailyProgress, account.DailyGoal)
	return &account, nil
}

// streakDays counts consecutive calendar days, in the user's timezone, that
// have at least one finalized session with studied cards. The count walks
// backward from today; a day without study today does not break the streak
// until a full day has passed.
func (s *progressService) streakDays(ctx context.Context, userID int64, now time.Time, loc *time.Location) int {
	sessions, err := s.sessions.List(ctx, models.SessionFilter{
		UserID: userID,
		Status: models.SessionFinalized,
	})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load sessions for streak, reporting 0: %v", err)
		return 0
	}

	studiedDays := make(map[string]bool)
	for _, session := range sessions {
		if session.CardsStudied == 0 || session.EndedAt == nil {
			continue
		}
		studiedDays[session.EndedAt.In(loc).Format("2006-01-02")] = true
	}

	day := startOfDay(now, loc)
	if !studiedDays[day.Format("2006-01-02")] {
		// Today has no completed session yet; the streak stands until
		// yesterday is also empty.
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for studiedDays[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func userLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

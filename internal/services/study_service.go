package services

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
	"github.com/nils/studyflash/internal/srs"
	"github.com/nils/studyflash/internal/worker"
)

// casAttempts bounds the read-recompute-save loop for one answer before the
// write is handed off to the reconcile queue.
const casAttempts = 3

// JobQueue accepts background jobs without blocking the caller.
type JobQueue interface {
	TrySubmit(job worker.Job) bool
}

// AnswerResult is what a single answered card hands back to the caller. The
// session and review state are always populated, even when PendingSync
// indicates the write has not been confirmed durable yet.
type AnswerResult struct {
	Session      models.StudySession `json:"session"`
	NextReviewAt *time.Time          `json:"next_review_at"`
	IntervalDays int                 `json:"interval_days"`
	Correct      bool                `json:"correct"`
	PendingSync  bool                `json:"pending_sync"`
}

// StudyService orchestrates study sessions: the due queue, answer
// submission, and session finalization.
type StudyService interface {
	StartSession(ctx context.Context, userID, deckID int64, now time.Time) (*models.StudySession, error)
	DueCards(ctx context.Context, userID, deckID int64, now time.Time) (*models.DueQueue, error)
	SubmitAnswer(ctx context.Context, userID int64, sessionID string, cardID int64, quality int, now time.Time) (*AnswerResult, error)
	EvaluateAnswer(ctx context.Context, userID int64, sessionID string, cardID int64, answer string) (bool, error)
	FinalizeSession(ctx context.Context, userID int64, sessionID string, now time.Time) (*models.StudySession, error)
	AbandonSession(ctx context.Context, userID int64, sessionID string, now time.Time) (*models.StudySession, error)
	RecentSessions(ctx context.Context, userID int64, limit int) ([]models.StudySession, error)
	SweepStaleSessions(ctx context.Context, maxAge time.Duration, now time.Time) (int, error)
}

type studyService struct {
	decks    repository.DeckRepository
	cards    repository.CardRepository
	states   repository.ReviewStateRepository
	sessions repository.SessionRepository
	matcher  srs.Matcher
	queue    JobQueue
}

// NewStudyService creates a new StudyService. The matcher evaluates free-text
// answers; the queue receives reconcile jobs for unconfirmed review-state
// writes and may be nil in tests.
func NewStudyService(
	decks repository.DeckRepository,
	cards repository.CardRepository,
	states repository.ReviewStateRepository,
	sessions repository.SessionRepository,
	matcher srs.Matcher,
	queue JobQueue,
) StudyService {
	return &studyService{
		decks:    decks,
		cards:    cards,
		states:   states,
		sessions: sessions,
		matcher:  matcher,
		queue:    queue,
	}
}

// visibleDeck loads the deck and enforces visibility: a deck can be studied
// by its owner or by anyone when it is public. Invisible and missing decks
// are indistinguishable to the caller.
func (s *studyService) visibleDeck(ctx context.Context, userID, deckID int64) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil || (deck.OwnerID != userID && !deck.IsPublic) {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	return deck, nil
}

func (s *studyService) StartSession(ctx context.Context, userID, deckID int64, now time.Time) (*models.StudySession, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting session: user_id=%d, deck_id=%d", userID, deckID)

	if _, err := s.visibleDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	session := models.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		DeckID:    deckID,
		Status:    models.SessionActive,
		StartedAt: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		log.Error("failed to persist session: %v", err)
		return nil, errors.NewUnavailableError(err)
	}

	log.Info("session started: id=%s", session.ID)
	return &session, nil
}

func (s *studyService) DueCards(ctx context.Context, userID, deckID int64, now time.Time) (*models.DueQueue, error) {
	log := logger.FromContext(ctx)
	log.Debug("building due queue: user_id=%d, deck_id=%d", userID, deckID)

	if _, err := s.visibleDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	states, err := s.states.ListByDeck(ctx, userID, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	stateByCard := make(map[int64]models.ReviewState, len(states))
	for _, st := range states {
		stateByCard[st.CardID] = st
	}

	all := make([]models.DueCard, 0, len(cards))
	due := make([]models.DueCard, 0, len(cards))
	for _, card := range cards {
		state, ok := stateByCard[card.ID]
		if !ok {
			state = models.NewReviewState(userID, card.ID)
		}
		dc := models.DueCard{Card: card, ReviewState: state}
		all = append(all, dc)
		if state.Due(now) {
			due = append(due, dc)
		}
	}

	queue := &models.DueQueue{Cards: due}
	if len(due) == 0 && len(all) > 0 {
		// Nothing is due but the learner still wants to study: serve the whole
		// deck with its current states and flag the fallback so the caller can
		// tell it apart from a finished review cycle.
		log.Debug("no cards due, falling back to full deck (%d cards)", len(all))
		queue.Cards = all
		queue.Fallback = true
	}
	sortQueue(queue.Cards)

	log.Debug("due queue ready: %d cards, fallback=%t", len(queue.Cards), queue.Fallback)
	return queue, nil
}

// sortQueue fixes the presentation order: due date ascending with
// never-reviewed cards first, ties broken by card id. The order is computed
// once per queue and never reshuffled mid-session.
func sortQueue(cards []models.DueCard) {
	sort.Slice(cards, func(i, j int) bool {
		ti := timeOrZero(cards[i].ReviewState.NextReviewAt)
		tj := timeOrZero(cards[j].ReviewState.NextReviewAt)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return cards[i].ID < cards[j].ID
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// activeSession loads the session, enforces ownership, and requires it to be
// in the active state.
func (s *studyService) activeSession(ctx context.Context, userID int64, sessionID string) (*models.StudySession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if session == nil || session.UserID != userID {
		return nil, errors.NewNotFoundError("session", sessionID)
	}
	if !session.IsActive() {
		return nil, errors.NewStateConflictError("session is not active")
	}
	return session, nil
}

func (s *studyService) SubmitAnswer(ctx context.Context, userID int64, sessionID string, cardID int64, quality int, now time.Time) (*AnswerResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting answer: session_id=%s, card_id=%d, quality=%d", sessionID, cardID, quality)

	// Validation happens before any state is touched.
	if quality < srs.MinQuality || quality > srs.MaxQuality {
		return nil, errors.NewValidationError("quality", "must be between 0 and 5")
	}

	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if card == nil || card.DeckID != session.DeckID {
		return nil, errors.NewNotFoundError("card", cardID)
	}

	correct := quality >= srs.PassThreshold
	pending := false

	next, err := s.applyReview(ctx, userID, cardID, quality, now)
	if err != nil {
		// The computed state is still valid for this call; the durable write
		// is retried off the request path with a fresh read.
		log.Warn("review state write unconfirmed, queueing reconcile: %v", err)
		pending = true
		s.enqueueReconcile(userID, cardID, quality, now)
	}

	recorded, err := s.sessions.RecordAnswer(ctx, sessionID, correct)
	if err != nil {
		log.Warn("session counter write unconfirmed: %v", err)
		pending = true
	} else if !recorded {
		// The session turned terminal between our read and the update.
		return nil, errors.NewStateConflictError("session is not active")
	}

	if err := s.states.InsertEvent(ctx, models.ReviewEvent{
		UserID:     userID,
		CardID:     cardID,
		Quality:    quality,
		ReviewedAt: now,
	}); err != nil {
		// History is best-effort; a lost event never fails the answer.
		log.Warn("failed to store review event: %v", err)
	}

	session.CardsStudied++
	if correct {
		session.CardsCorrect++
	} else {
		session.CardsIncorrect++
	}

	log.Info("answer recorded: session_id=%s, card_id=%d, correct=%t, next_interval=%dd, pending_sync=%t",
		sessionID, cardID, correct, next.IntervalDays, pending)
	return &AnswerResult{
		Session:      *session,
		NextReviewAt: next.NextReviewAt,
		IntervalDays: next.IntervalDays,
		Correct:      correct,
		PendingSync:  pending,
	}, nil
}

// applyReview runs the scheduler against the freshly read prior state and
// persists the result under compare-and-set. A version conflict re-reads and
// recomputes; replaying a stale computed state would double-apply a review.
// On store failure the optimistically computed state is returned together
// with the error so the caller can keep the in-memory flow going.
func (s *studyService) applyReview(ctx context.Context, userID, cardID int64, quality int, now time.Time) (models.ReviewState, error) {
	var computed models.ReviewState
	var lastErr error

	for attempt := 0; attempt < casAttempts; attempt++ {
		prior, err := s.states.Get(ctx, userID, cardID)
		if err != nil {
			if computed.TotalReviews == 0 {
				computed, _ = srs.Schedule(models.NewReviewState(userID, cardID), quality, now)
			}
			return computed, err
		}

		state := models.NewReviewState(userID, cardID)
		if prior != nil {
			state = *prior
		}
		computed, err = srs.Schedule(state, quality, now)
		if err != nil {
			return models.ReviewState{}, err
		}

		err = s.states.Save(ctx, computed)
		if err == nil {
			return computed, nil
		}
		if !stderrors.Is(err, repository.ErrVersionConflict) {
			return computed, err
		}
		lastErr = err
	}
	return computed, lastErr
}

func (s *studyService) enqueueReconcile(userID, cardID int64, quality int, now time.Time) {
	if s.queue == nil {
		return
	}
	job := &reviewSyncJob{
		svc:     s,
		userID:  userID,
		cardID:  cardID,
		quality: quality,
		at:      now,
	}
	if !s.queue.TrySubmit(job) {
		logger.Default().Error("reconcile queue full, review for card %d may need manual sync", cardID)
	}
}

func (s *studyService) EvaluateAnswer(ctx context.Context, userID int64, sessionID string, cardID int64, answer string) (bool, error) {
	log := logger.FromContext(ctx)
	log.Debug("evaluating answer: session_id=%s, card_id=%d", sessionID, cardID)

	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return false, err
	}
	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return false, errors.NewInternalError(err)
	}
	if card == nil || card.DeckID != session.DeckID {
		return false, errors.NewNotFoundError("card", cardID)
	}

	return s.matcher.Evaluate(answer, card.Back), nil
}

func (s *studyService) FinalizeSession(ctx context.Context, userID int64, sessionID string, now time.Time) (*models.StudySession, error) {
	return s.closeSession(ctx, userID, sessionID, models.SessionFinalized, now)
}

func (s *studyService) AbandonSession(ctx context.Context, userID int64, sessionID string, now time.Time) (*models.StudySession, error) {
	return s.closeSession(ctx, userID, sessionID, models.SessionAbandoned, now)
}

func (s *studyService) closeSession(ctx context.Context, userID int64, sessionID, status string, now time.Time) (*models.StudySession, error) {
	log := logger.FromContext(ctx)
	log.Debug("closing session: id=%s, status=%s", sessionID, status)

	session, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	closed := session.Close(status, now)
	ok, err := s.sessions.Close(ctx, closed)
	if err != nil {
		// The learner still sees a finished session; the store catches up on
		// the next sweep or restart.
		log.Error("failed to persist session close, returning in-memory result: %v", err)
		return &closed, nil
	}
	if !ok {
		return nil, errors.NewStateConflictError("session already finalized")
	}

	log.Info("session %s: studied=%d correct=%d incorrect=%d duration=%dm",
		status, closed.CardsStudied, closed.CardsCorrect, closed.CardsIncorrect, closed.DurationMinutes)
	return &closed, nil
}

func (s *studyService) RecentSessions(ctx context.Context, userID int64, limit int) ([]models.StudySession, error) {
	if limit <= 0 {
		limit = 20
	}
	sessions, err := s.sessions.List(ctx, models.SessionFilter{UserID: userID, Limit: limit})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return sessions, nil
}

func (s *studyService) SweepStaleSessions(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	log := logger.FromContext(ctx)

	stale, err := s.sessions.StaleActive(ctx, now.Add(-maxAge))
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, session := range stale {
		closed := session.Close(models.SessionAbandoned, now)
		ok, err := s.sessions.Close(ctx, closed)
		if err != nil {
			log.Error("failed to abandon stale session %s: %v", session.ID, err)
			continue
		}
		if ok {
			swept++
		}
	}
	if swept > 0 {
		log.Info("swept %d stale sessions", swept)
	}
	return swept, nil
}

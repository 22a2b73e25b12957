package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nils/studyflash/internal/models"
)

// ErrVersionConflict is returned by ReviewStateRepository.Save when the stored
// version no longer matches the expected one, i.e. another writer got there
// first. Callers must re-read and recompute, never retry the stale state.
var ErrVersionConflict = errors.New("review state version conflict")

// UserRepository handles user data access
type UserRepository interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Insert(ctx context.Context, user models.User) (int64, error)
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id int64) (*models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) (int64, error)
	ListOwned(ctx context.Context, userID int64) ([]models.Deck, error)
	// ListStudied returns every deck the user owns plus public decks the user
	// has review history on. This is the account-summary fan-out set.
	ListStudied(ctx context.Context, userID int64) ([]models.Deck, error)
}

// CardRepository handles card data access
type CardRepository interface {
	Get(ctx context.Context, id int64) (*models.Card, error)
	Insert(ctx context.Context, card models.Card) (int64, error)
	ListByDeck(ctx context.Context, deckID int64) ([]models.Card, error)
	CountByDeck(ctx context.Context, deckID int64) (int, error)
}

// ReviewStateRepository handles per-(user, card) scheduling records and the
// per-answer review event log.
type ReviewStateRepository interface {
	// Get returns nil (no error) when the card has never been reviewed.
	Get(ctx context.Context, userID, cardID int64) (*models.ReviewState, error)
	// Save persists the state via compare-and-set on state.Version; the row is
	// created when the expected version is 0 and no row exists yet.
	Save(ctx context.Context, state models.ReviewState) error
	ListByDeck(ctx context.Context, userID, deckID int64) ([]models.ReviewState, error)
	InsertEvent(ctx context.Context, event models.ReviewEvent) error
	CountEventsSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// SessionRepository handles study session data access
type SessionRepository interface {
	Get(ctx context.Context, id string) (*models.StudySession, error)
	Insert(ctx context.Context, session models.StudySession) error
	// RecordAnswer bumps the counters of an active session; it is a no-op
	// returning false for terminal sessions.
	RecordAnswer(ctx context.Context, id string, correct bool) (bool, error)
	// Close writes the terminal status, end time, and duration. It reports
	// false when the session was not active (double-finalize).
	Close(ctx context.Context, session models.StudySession) (bool, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error)
	StaleActive(ctx context.Context, cutoff time.Time) ([]models.StudySession, error)
}

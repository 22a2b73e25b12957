package testutil

import (
	"context"
	"testing"

	"github.com/nils/studyflash/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// The database is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// SeedUser inserts a user row and returns its id.
func SeedUser(t *testing.T, database *db.DB, username string) int64 {
	t.Helper()

	res, err := database.ExecContext(context.Background(),
		`INSERT INTO users (username, timezone, daily_goal) VALUES (?, 'UTC', 20)`, username)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// SeedDeck inserts a deck row and returns its id.
func SeedDeck(t *testing.T, database *db.DB, ownerID int64, title string, public bool) int64 {
	t.Helper()

	res, err := database.ExecContext(context.Background(),
		`INSERT INTO decks (owner_id, title, is_public) VALUES (?, ?, ?)`, ownerID, title, public)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// SeedCard inserts a card row and returns its id.
func SeedCard(t *testing.T, database *db.DB, deckID int64, front, back string) int64 {
	t.Helper()

	res, err := database.ExecContext(context.Background(),
		`INSERT INTO cards (deck_id, front, back) VALUES (?, ?, ?)`, deckID, front, back)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// SeedDeckWithCards creates a deck with n cards and returns the deck id plus
// the card ids in insertion order.
func SeedDeckWithCards(t *testing.T, database *db.DB, ownerID int64, title string, n int) (int64, []int64) {
	t.Helper()

	deckID := SeedDeck(t, database, ownerID, title, false)
	cardIDs := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		cardIDs = append(cardIDs, SeedCard(t, database, deckID, "front", "back"))
	}
	return deckID, cardIDs
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

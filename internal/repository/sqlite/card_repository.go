package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%d", id)

	var c models.Card
	err := r.db.QueryRowContext(ctx, `
SELECT id, deck_id, front, back, created_at
FROM cards
WHERE id = ?
`, id).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (deck_id, front, back)
VALUES (?, ?, ?)
`, c.DeckID, c.Front, c.Back)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *cardRepository) ListByDeck(ctx context.Context, deckID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d", deckID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, deck_id, front, back, created_at
FROM cards
WHERE deck_id = ?
ORDER BY id
`, deckID)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) CountByDeck(ctx context.Context, deckID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deckID).Scan(&n)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("card_repo").Error("failed to count cards: %v", err)
		return 0, err
	}
	return n, nil
}

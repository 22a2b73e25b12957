package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%d", id)

	var d models.Deck
	err := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, title, description, is_public, created_at
FROM decks
WHERE id = ?
`, id).Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.IsPublic, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: owner_id=%d, title=%s", d.OwnerID, d.Title)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO decks (owner_id, title, description, is_public)
VALUES (?, ?, ?, ?)
`, d.OwnerID, d.Title, d.Description, d.IsPublic)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *deckRepository) ListOwned(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing owned decks: user_id=%d", userID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, owner_id, title, description, is_public, created_at
FROM decks
WHERE owner_id = ?
ORDER BY created_at, id
`, userID)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanDecks(rows)
}

func (r *deckRepository) ListStudied(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing studied decks: user_id=%d", userID)

	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT d.id, d.owner_id, d.title, d.description, d.is_public, d.created_at
FROM decks d
LEFT JOIN cards c ON c.deck_id = d.id
LEFT JOIN review_states rs ON rs.card_id = c.id AND rs.user_id = ?
WHERE d.owner_id = ? OR rs.user_id IS NOT NULL
ORDER BY d.created_at, d.id
`, userID, userID)
	if err != nil {
		log.Error("failed to list studied decks: %v", err)
		return nil, err
	}
	defer rows.Close()
	decks, err := scanDecks(rows)
	if err != nil {
		return nil, err
	}
	log.Debug("found %d studied decks", len(decks))
	return decks, nil
}

func scanDecks(rows *sql.Rows) ([]models.Deck, error) {
	var decks []models.Deck
	for rows.Next() {
		var d models.Deck
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &d.IsPublic, &d.CreatedAt); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

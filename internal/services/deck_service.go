package services

import (
	"context"
	"strings"

	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

// DeckService handles deck and card management
type DeckService interface {
	CreateDeck(ctx context.Context, userID int64, title, description string, public bool) (*models.Deck, error)
	GetDeck(ctx context.Context, userID, deckID int64) (*models.Deck, error)
	ListDecks(ctx context.Context, userID int64) ([]models.Deck, error)
	AddCard(ctx context.Context, userID, deckID int64, front, back string) (*models.Card, error)
	ListCards(ctx context.Context, userID, deckID int64) ([]models.Card, error)
}

type deckService struct {
	decks repository.DeckRepository
	cards repository.CardRepository
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository) DeckService {
	return &deckService{decks: decks, cards: cards}
}

func (s *deckService) CreateDeck(ctx context.Context, userID int64, title, description string, public bool) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewValidationError("title", "must not be empty")
	}

	deck := models.Deck{
		OwnerID:     userID,
		Title:       title,
		Description: description,
		IsPublic:    public,
	}
	id, err := s.decks.Insert(ctx, deck)
	if err != nil {
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	deck.ID = id

	log.Info("deck created: id=%d, title=%s", id, title)
	return &deck, nil
}

func (s *deckService) GetDeck(ctx context.Context, userID, deckID int64) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if deck == nil || (deck.OwnerID != userID && !deck.IsPublic) {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context, userID int64) ([]models.Deck, error) {
	decks, err := s.decks.ListOwned(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) AddCard(ctx context.Context, userID, deckID int64, front, back string) (*models.Card, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(front) == "" || strings.TrimSpace(back) == "" {
		return nil, errors.NewValidationError("card", "front and back must not be empty")
	}

	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	// Only the owner can add cards, even to public decks.
	if deck == nil || deck.OwnerID != userID {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	card := models.Card{DeckID: deckID, Front: front, Back: back}
	id, err := s.cards.Insert(ctx, card)
	if err != nil {
		log.Error("failed to add card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	card.ID = id
	return &card, nil
}

func (s *deckService) ListCards(ctx context.Context, userID, deckID int64) ([]models.Card, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

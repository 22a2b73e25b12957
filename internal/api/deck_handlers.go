package api

import (
	"net/http"
)

type createDeckRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.CreateDeck(r.Context(), user.ID, req.Title, req.Description, req.IsPublic)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := pathID(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.DeckService.GetDeck(r.Context(), user.ID, deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deck)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	decks, err := s.DeckService.ListDecks(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"decks": decks})
}

type addCardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := pathID(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req addCardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.DeckService.AddCard(r.Context(), user.ID, deckID, req.Front, req.Back)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := pathID(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	cards, err := s.DeckService.ListCards(r.Context(), user.ID, deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

package api

import (
	"net/http"
	"time"
)

func (s *Server) handleDeckProgress(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := pathID(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	summary, err := s.ProgressService.DeckSummary(r.Context(), user.ID, deckID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAccountProgress(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	summary, err := s.ProgressService.AccountSummary(r.Context(), user.ID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/api/users", s.handleCreateUser)

	r.Group(func(r chi.Router) {
		r.Use(s.userMiddleware)

		r.Get("/api/decks", s.handleListDecks)
		r.Post("/api/decks", s.handleCreateDeck)
		r.Get("/api/decks/{deckID}", s.handleGetDeck)
		r.Get("/api/decks/{deckID}/cards", s.handleListCards)
		r.Post("/api/decks/{deckID}/cards", s.handleAddCard)
		r.Get("/api/decks/{deckID}/due", s.handleDueCards)

		r.Post("/api/sessions", s.handleStartSession)
		r.Get("/api/sessions", s.handleRecentSessions)
		r.Post("/api/sessions/{sessionID}/answer", s.handleSubmitAnswer)
		r.Post("/api/sessions/{sessionID}/evaluate", s.handleEvaluateAnswer)
		r.Post("/api/sessions/{sessionID}/finalize", s.handleFinalizeSession)
		r.Post("/api/sessions/{sessionID}/abandon", s.handleAbandonSession)

		r.Get("/api/progress/decks/{deckID}", s.handleDeckProgress)
		r.Get("/api/progress/account", s.handleAccountProgress)
	})

	return r
}

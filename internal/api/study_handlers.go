package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nils/studyflash/internal/logger"
)

type startSessionRequest struct {
	DeckID int64 `json:"deck_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	user := userFromContext(r.Context())

	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("start session requested: deck_id=%d", req.DeckID)
	session, err := s.StudyService.StartSession(r.Context(), user.ID, req.DeckID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	deckID, err := pathID(r, "deckID")
	if err != nil {
		handleError(w, r, err)
		return
	}

	queue, err := s.StudyService.DueCards(r.Context(), user.ID, deckID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, queue)
}

type submitAnswerRequest struct {
	CardID  int64 `json:"card_id"`
	Quality int   `json:"quality"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log = log.WithFields(map[string]any{
		"session_id": sessionID,
		"card_id":    req.CardID,
		"quality":    req.Quality,
	})
	log.Debug("answer submitted")

	result, err := s.StudyService.SubmitAnswer(logger.NewContext(r.Context(), log), user.ID, sessionID, req.CardID, req.Quality, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type evaluateAnswerRequest struct {
	CardID int64  `json:"card_id"`
	Answer string `json:"answer"`
}

func (s *Server) handleEvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	var req evaluateAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	correct, err := s.StudyService.EvaluateAnswer(r.Context(), user.ID, sessionID, req.CardID, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"correct": correct})
}

func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := s.StudyService.FinalizeSession(r.Context(), user.ID, sessionID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	session, err := s.StudyService.AbandonSession(r.Context(), user.ID, sessionID, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	sessions, err := s.StudyService.RecentSessions(r.Context(), user.ID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

package api

import (
	"net/http"
)

type createUserRequest struct {
	Username  string `json:"username"`
	Timezone  string `json:"timezone"`
	DailyGoal int    `json:"daily_goal"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	user, err := s.UserService.CreateUser(r.Context(), req.Username, req.Timezone, req.DailyGoal)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

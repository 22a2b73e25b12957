package api

import (
	"github.com/nils/studyflash/internal/services"
)

// Server wires the HTTP handlers to the engine's services.
type Server struct {
	UserService     services.UserService
	DeckService     services.DeckService
	StudyService    services.StudyService
	ProgressService services.ProgressService
}

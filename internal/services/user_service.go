package services

import (
	"context"
	"strings"

	"github.com/nils/studyflash/internal/errors"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

// UserService handles user lookup and registration. Authentication proper is
// an external collaborator; the engine only needs resolvable user identities.
type UserService interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, username, timezone string, dailyGoal int) (*models.User, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, username, timezone string, dailyGoal int) (*models.User, error) {
	log := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username", "must not be empty")
	}
	if timezone == "" {
		timezone = "UTC"
	}

	user := models.User{Username: username, Timezone: timezone, DailyGoal: dailyGoal}
	id, err := s.users.Insert(ctx, user)
	if err != nil {
		log.Error("failed to create user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	user.ID = id

	log.Info("user created: id=%d, username=%s", id, username)
	return &user, nil
}

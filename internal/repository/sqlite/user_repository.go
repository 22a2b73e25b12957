package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("getting user: id=%d", id)

	var u models.User
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, timezone, daily_goal, created_at
FROM users
WHERE id = ?
`, id).Scan(&u.ID, &u.Username, &u.Timezone, &u.DailyGoal, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Insert(ctx context.Context, u models.User) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("inserting user: username=%s", u.Username)

	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, timezone, daily_goal)
VALUES (?, ?, ?)
`, u.Username, u.Timezone, u.DailyGoal)
	if err != nil {
		log.Error("failed to insert user: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

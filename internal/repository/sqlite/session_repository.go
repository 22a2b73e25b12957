package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, deck_id, status, cards_studied, cards_correct, cards_incorrect, duration_minutes, started_at, ended_at`

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("getting session: id=%s", id)

	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("session not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	return s, nil
}

func (r *sessionRepository) Insert(ctx context.Context, s models.StudySession) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting session: id=%s, user_id=%d, deck_id=%d", s.ID, s.UserID, s.DeckID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO study_sessions (id, user_id, deck_id, status, started_at)
VALUES (?, ?, ?, ?, ?)
`, s.ID, s.UserID, s.DeckID, s.Status, s.StartedAt)
	if err != nil {
		log.Error("failed to insert session: %v", err)
	}
	return err
}

func (r *sessionRepository) RecordAnswer(ctx context.Context, id string, correct bool) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("recording answer: session_id=%s, correct=%t", id, correct)

	correctInc := 0
	incorrectInc := 0
	if correct {
		correctInc = 1
	} else {
		incorrectInc = 1
	}

	// The status guard keeps terminal sessions immutable even if two callers
	// race finalize against a late answer.
	res, err := r.db.ExecContext(ctx, `
UPDATE study_sessions
SET cards_studied = cards_studied + 1,
    cards_correct = cards_correct + ?,
    cards_incorrect = cards_incorrect + ?
WHERE id = ? AND status = ?
`, correctInc, incorrectInc, id, models.SessionActive)
	if err != nil {
		log.Error("failed to record answer: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sessionRepository) Close(ctx context.Context, s models.StudySession) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("closing session: id=%s, status=%s, duration=%dm", s.ID, s.Status, s.DurationMinutes)

	res, err := r.db.ExecContext(ctx, `
UPDATE study_sessions
SET status = ?, ended_at = ?, duration_minutes = ?
WHERE id = ? AND status = ?
`, s.Status, nullTime(s.EndedAt), s.DurationMinutes, s.ID, models.SessionActive)
	if err != nil {
		log.Error("failed to close session: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		log.Debug("session already terminal: id=%s", s.ID)
	}
	return n > 0, nil
}

func (r *sessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing sessions: user_id=%d, deck_id=%d, status=%s", filter.UserID, filter.DeckID, filter.Status)

	query := sqlBuilder.Select(
		"id", "user_id", "deck_id", "status", "cards_studied", "cards_correct",
		"cards_incorrect", "duration_minutes", "started_at", "ended_at",
	).From("study_sessions")

	// Dynamic WHERE clauses
	if filter.UserID != 0 {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.DeckID != 0 {
		query = query.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"started_at": *filter.Since})
	}

	dir := "DESC"
	if filter.OrderDir == "asc" {
		dir = "ASC"
	}
	query = query.OrderBy("started_at " + dir)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build session query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (r *sessionRepository) StaleActive(ctx context.Context, cutoff time.Time) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("finding stale active sessions before %s", cutoff.Format(time.RFC3339))

	rows, err := r.db.QueryContext(ctx, `
SELECT `+sessionColumns+`
FROM study_sessions
WHERE status = ? AND started_at < ?
ORDER BY started_at
`, models.SessionActive, cutoff)
	if err != nil {
		log.Error("failed to find stale sessions: %v", err)
		return nil, err
	}
	defer rows.Close()
	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	log.Debug("found %d stale active sessions", len(sessions))
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.StudySession, error) {
	var s models.StudySession
	var endedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.DeckID, &s.Status, &s.CardsStudied, &s.CardsCorrect,
		&s.CardsIncorrect, &s.DurationMinutes, &s.StartedAt, &endedAt)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return &s, nil
}

func scanSessions(rows *sql.Rows) ([]models.StudySession, error) {
	var sessions []models.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

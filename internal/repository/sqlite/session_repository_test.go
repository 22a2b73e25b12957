package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nils/studyflash/internal/db"
	"github.com/nils/studyflash/internal/models"
	"github.com/nils/studyflash/internal/repository"
	"github.com/nils/studyflash/internal/repository/sqlite"
	"github.com/nils/studyflash/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type SessionRepositorySuite struct {
	suite.Suite
	db     *db.DB
	repo   repository.SessionRepository
	userID int64
	deckID int64
}

func (s *SessionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewSessionRepository(s.db.DB)
	s.userID = testutil.SeedUser(s.T(), s.db, "tester")
	s.deckID = testutil.SeedDeck(s.T(), s.db, s.userID, "capitals", false)
}

func (s *SessionRepositorySuite) newSession(startedAt time.Time) models.StudySession {
	return models.StudySession{
		ID:        uuid.NewString(),
		UserID:    s.userID,
		DeckID:    s.deckID,
		Status:    models.SessionActive,
		StartedAt: startedAt,
	}
}

func (s *SessionRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	session := s.newSession(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	s.Require().NoError(s.repo.Insert(ctx, session))

	stored, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Assert().Equal(session.ID, stored.ID)
	s.Assert().Equal(models.SessionActive, stored.Status)
	s.Assert().Equal(0, stored.CardsStudied)
	s.Assert().Nil(stored.EndedAt)
}

func (s *SessionRepositorySuite) TestGetMissingReturnsNil() {
	stored, err := s.repo.Get(context.Background(), uuid.NewString())
	s.Require().NoError(err)
	s.Assert().Nil(stored)
}

func (s *SessionRepositorySuite) TestRecordAnswerCounters() {
	ctx := context.Background()
	session := s.newSession(time.Now().UTC())
	s.Require().NoError(s.repo.Insert(ctx, session))

	for _, correct := range []bool{true, true, false} {
		ok, err := s.repo.RecordAnswer(ctx, session.ID, correct)
		s.Require().NoError(err)
		s.Assert().True(ok)
	}

	stored, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Assert().Equal(3, stored.CardsStudied)
	s.Assert().Equal(2, stored.CardsCorrect)
	s.Assert().Equal(1, stored.CardsIncorrect)
}

func (s *SessionRepositorySuite) TestRecordAnswerOnTerminalSession() {
	ctx := context.Background()
	session := s.newSession(time.Now().UTC())
	s.Require().NoError(s.repo.Insert(ctx, session))

	closed := session.Close(models.SessionFinalized, time.Now().UTC())
	ok, err := s.repo.Close(ctx, closed)
	s.Require().NoError(err)
	s.Require().True(ok)

	ok, err = s.repo.RecordAnswer(ctx, session.ID, true)
	s.Require().NoError(err)
	s.Assert().False(ok)

	stored, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Assert().Equal(0, stored.CardsStudied)
}

func (s *SessionRepositorySuite) TestCloseIsIdempotentGuarded() {
	ctx := context.Background()
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session := s.newSession(started)
	s.Require().NoError(s.repo.Insert(ctx, session))

	closed := session.Close(models.SessionFinalized, started.Add(25*time.Minute))
	ok, err := s.repo.Close(ctx, closed)
	s.Require().NoError(err)
	s.Assert().True(ok)

	stored, err := s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Assert().Equal(models.SessionFinalized, stored.Status)
	s.Assert().Equal(25, stored.DurationMinutes)
	s.Require().NotNil(stored.EndedAt)

	// Closing again must not rewrite the terminal row.
	again := session.Close(models.SessionAbandoned, started.Add(60*time.Minute))
	ok, err = s.repo.Close(ctx, again)
	s.Require().NoError(err)
	s.Assert().False(ok)

	stored, err = s.repo.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Assert().Equal(models.SessionFinalized, stored.Status)
	s.Assert().Equal(25, stored.DurationMinutes)
}

func (s *SessionRepositorySuite) TestListFiltersAndOrder() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first := s.newSession(base)
	second := s.newSession(base.Add(time.Hour))
	third := s.newSession(base.Add(2 * time.Hour))
	for _, session := range []models.StudySession{first, second, third} {
		s.Require().NoError(s.repo.Insert(ctx, session))
	}

	_, err := s.repo.Close(ctx, second.Close(models.SessionFinalized, base.Add(90*time.Minute)))
	s.Require().NoError(err)

	sessions, err := s.repo.List(ctx, models.SessionFilter{UserID: s.userID})
	s.Require().NoError(err)
	s.Require().Len(sessions, 3)
	// Newest first by default.
	s.Assert().Equal(third.ID, sessions[0].ID)
	s.Assert().Equal(first.ID, sessions[2].ID)

	sessions, err = s.repo.List(ctx, models.SessionFilter{UserID: s.userID, Status: models.SessionFinalized})
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Assert().Equal(second.ID, sessions[0].ID)

	sessions, err = s.repo.List(ctx, models.SessionFilter{UserID: s.userID, Limit: 2, OrderDir: "asc"})
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Assert().Equal(first.ID, sessions[0].ID)
}

func (s *SessionRepositorySuite) TestStaleActive() {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	old := s.newSession(now.Add(-13 * time.Hour))
	fresh := s.newSession(now.Add(-time.Hour))
	closed := s.newSession(now.Add(-14 * time.Hour))
	for _, session := range []models.StudySession{old, fresh, closed} {
		s.Require().NoError(s.repo.Insert(ctx, session))
	}
	_, err := s.repo.Close(ctx, closed.Close(models.SessionAbandoned, now))
	s.Require().NoError(err)

	stale, err := s.repo.StaleActive(ctx, now.Add(-12*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Assert().Equal(old.ID, stale[0].ID)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}

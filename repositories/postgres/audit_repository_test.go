package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crmbridge/external-service/models"
)

func newMockRepository(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	return &AuditRepository{db: db, logger: zap.NewNop()}, mock
}

func TestAuditRepositoryInsert(t *testing.T) {
	t.Run("inserts an allowed event", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		event := models.NewAuthEvent("/api/v1/users/me", "req-1")
		event.Outcome = models.AuthOutcomeAllowed
		subjectID := int64(42)
		event.SubjectID = &subjectID

		mock.ExpectExec("INSERT INTO auth_events").
			WithArgs(event.ID, event.Route, event.RequestID, event.Outcome, event.Reason, event.SubjectID, event.Timestamp).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(context.Background(), event)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		event := models.NewAuthEvent("/api/v1/users/me", "req-1")
		event.Outcome = models.AuthOutcomeRejected
		event.Reason = "expired"

		mock.ExpectExec("INSERT INTO auth_events").
			WillReturnError(assert.AnError)

		err := repo.Insert(context.Background(), event)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert auth event")
	})
}

func TestAuditRepositoryGetByID(t *testing.T) {
	columns := []string{"id", "route", "request_id", "outcome", "reason", "subject_id", "timestamp"}

	t.Run("returns the stored event", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		subjectID := int64(42)
		now := time.Now().UTC()

		rows := sqlmock.NewRows(columns).
			AddRow(id, "/api/v1/users/me", "req-1", "allowed", "", subjectID, now)
		mock.ExpectQuery("SELECT id, route, request_id, outcome, reason, subject_id, timestamp").
			WithArgs(id).
			WillReturnRows(rows)

		event, err := repo.GetByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, event.ID)
		assert.Equal(t, models.AuthOutcomeAllowed, event.Outcome)
		require.NotNil(t, event.SubjectID)
		assert.Equal(t, int64(42), *event.SubjectID)
	})

	t.Run("missing event reports not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		mock.ExpectQuery("SELECT id, route, request_id, outcome, reason, subject_id, timestamp").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns))

		event, err := repo.GetByID(context.Background(), id)

		assert.Nil(t, event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestAuditRepositoryListRecent(t *testing.T) {
	columns := []string{"id", "route", "request_id", "outcome", "reason", "subject_id", "timestamp"}

	t.Run("returns events newest first", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		now := time.Now().UTC()
		rows := sqlmock.NewRows(columns).
			AddRow(uuid.New(), "/api/v1/users/me", "req-2", "rejected", "expired", nil, now).
			AddRow(uuid.New(), "/api/v1/users/me", "req-1", "allowed", "", int64(42), now.Add(-time.Minute))
		mock.ExpectQuery("ORDER BY timestamp DESC").
			WithArgs(10).
			WillReturnRows(rows)

		events, err := repo.ListRecent(context.Background(), 10)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, models.AuthOutcomeRejected, events[0].Outcome)
		assert.Equal(t, "expired", events[0].Reason)
		assert.Nil(t, events[0].SubjectID)
	})

	t.Run("non-positive limit falls back to the default", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery("ORDER BY timestamp DESC").
			WithArgs(50).
			WillReturnRows(sqlmock.NewRows(columns))

		events, err := repo.ListRecent(context.Background(), 0)

		require.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crmbridge/external-service/models"
	"github.com/crmbridge/external-service/repositories"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new auth event
func (r *AuditRepository) Insert(ctx context.Context, event *models.AuthEvent) error {
	query := `
		INSERT INTO auth_events (
			id, route, request_id, outcome, reason, subject_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Route,
		event.RequestID,
		event.Outcome,
		event.Reason,
		event.SubjectID,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert auth event: %w", err)
	}

	r.logger.Debug("auth event inserted",
		zap.String("id", event.ID.String()),
		zap.String("outcome", string(event.Outcome)))
	return nil
}

// GetByID retrieves an auth event by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuthEvent, error) {
	query := `
		SELECT id, route, request_id, outcome, reason, subject_id, timestamp
		FROM auth_events
		WHERE id = $1
	`

	event := &models.AuthEvent{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Route,
		&event.RequestID,
		&event.Outcome,
		&event.Reason,
		&event.SubjectID,
		&event.Timestamp,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("auth event %s not found", id)
		}
		return nil, fmt.Errorf("failed to get auth event: %w", err)
	}

	return event, nil
}

// ListRecent retrieves the most recent auth events, newest first
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, route, request_id, outcome, reason, subject_id, timestamp
		FROM auth_events
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuthEvent
	for rows.Next() {
		event := &models.AuthEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.Route,
			&event.RequestID,
			&event.Outcome,
			&event.Reason,
			&event.SubjectID,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auth events: %w", err)
	}

	return events, nil
}

package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/crmbridge/external-service/models"
)

// AuditRepository defines the interface for auth event persistence
type AuditRepository interface {
	// Insert inserts a new auth event
	Insert(ctx context.Context, event *models.AuthEvent) error

	// GetByID retrieves an auth event by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuthEvent, error)

	// ListRecent retrieves the most recent auth events, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.AuthEvent, error)
}

package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/middleware"
	"github.com/crmbridge/external-service/models"
	"github.com/crmbridge/external-service/repositories"
)

// AuthAuditor records authentication decisions in the audit store.
// Inserts run asynchronously and best-effort: a store failure is logged and
// never affects the auth outcome.
type AuthAuditor struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuthAuditor creates a new auth auditor.
func NewAuthAuditor(repo repositories.AuditRepository, logger *zap.Logger) *AuthAuditor {
	return &AuthAuditor{
		repo:   repo,
		logger: logger,
	}
}

// RecordDecision implements middleware.DecisionRecorder.
func (a *AuthAuditor) RecordDecision(_ context.Context, d middleware.Decision) {
	event := models.NewAuthEvent(d.Route, d.RequestID)
	if d.Allowed {
		event.Outcome = models.AuthOutcomeAllowed
		event.SubjectID = &d.SubjectID
	} else {
		event.Outcome = models.AuthOutcomeRejected
		event.Reason = d.Reason
	}

	// Detached from the request context: the decision is already made and
	// the response may be written before the insert lands.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.repo.Insert(ctx, event); err != nil {
			a.logger.Warn("audit event insert failed",
				zap.String("route", event.Route),
				zap.Error(err))
		}
	}()
}

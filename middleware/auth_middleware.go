package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/crmbridge/external-service/issuer"
	"github.com/crmbridge/external-service/utils"
)

// TokenValidator defines the interface for validating service tokens
type TokenValidator interface {
	// Validate verifies a raw token and returns the authenticated principal
	Validate(ctx context.Context, token string) (*issuer.Principal, error)
}

// Decision describes the outcome of one authentication attempt, for
// recording in the audit trail.
type Decision struct {
	Route     string
	RequestID string
	Allowed   bool
	Reason    string
	SubjectID int64
}

// DecisionRecorder records authentication decisions. Implementations must
// be best-effort: recording never influences the auth outcome.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, d Decision)
}

// AuthMiddleware gates protected routes on a valid service token
type AuthMiddleware struct {
	validator TokenValidator
	recorder  DecisionRecorder
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. recorder may be nil.
func NewAuthMiddleware(validator TokenValidator, recorder DecisionRecorder, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		recorder:  recorder,
		logger:    logger,
	}
}

// RequireAuth is a middleware that requires a valid service token. It fails
// closed: a missing header still goes through the validator (rejected
// deterministically as malformed), and any panic during validation is
// treated as rejection, never as implicit allow. Failures are reported
// externally with one generic message; the specific failure kind goes to
// the log only.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		// When the header is absent, token is "" and the validator rejects
		// it on the malformed path rather than being bypassed.
		token, _ := ExtractBearerToken(r)

		principal, err := m.validate(ctx, token)
		if err != nil {
			reason := failureKind(err)
			m.logger.Warn("request rejected",
				zap.String("request_id", requestID),
				zap.String("route", r.URL.Path),
				zap.String("reason", reason))
			m.record(ctx, Decision{
				Route:     r.URL.Path,
				RequestID: requestID,
				Allowed:   false,
				Reason:    reason,
			})
			_ = utils.WriteUnauthorized(w, "Invalid or missing token")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.Int64("subject_id", principal.SubjectID))
		m.record(ctx, Decision{
			Route:     r.URL.Path,
			RequestID: requestID,
			Allowed:   true,
			SubjectID: principal.SubjectID,
		})

		ctx = WithPrincipal(ctx, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is a middleware that requires a specific role claim.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipalFromContext(r.Context())
			if principal == nil {
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}
			if principal.Role != role {
				m.logger.Warn("insufficient permissions",
					zap.String("route", r.URL.Path),
					zap.String("required_role", role))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) validate(ctx context.Context, token string) (principal *issuer.Principal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			principal, err = nil, fmt.Errorf("validator panic: %v", rec)
		}
	}()
	return m.validator.Validate(ctx, token)
}

func (m *AuthMiddleware) record(ctx context.Context, d Decision) {
	if m.recorder == nil {
		return
	}
	m.recorder.RecordDecision(ctx, d)
}

// failureKind names the validation failure for logs and audit records.
// Raw token and key material never appear here.
func failureKind(err error) string {
	switch {
	case errors.Is(err, issuer.ErrKeyUnavailable):
		return "key_unavailable"
	case errors.Is(err, issuer.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, issuer.ErrTokenExpired):
		return "expired"
	case errors.Is(err, issuer.ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, issuer.ErrServiceMismatch):
		return "service_mismatch"
	case errors.Is(err, issuer.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	default:
		return "error"
	}
}

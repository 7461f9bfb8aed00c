package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/issuer"
	"github.com/crmbridge/external-service/utils"
)

// Coordinator drives the SSO handshake with the issuing authority.
type Coordinator interface {
	LoginURL(redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (*issuer.ExchangeResult, error)
}

// TokenValidator validates service tokens and returns the principal.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*issuer.Principal, error)
}

// Handler handles the SSO login and callback flow.
type Handler struct {
	coordinator Coordinator
	validator   TokenValidator
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(coordinator Coordinator, validator TokenValidator, logger *zap.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		validator:   validator,
		logger:      logger,
	}
}

type callbackParams struct {
	Code        string `validate:"required,max=512"`
	RedirectURI string `validate:"required,max=2048"`
}

// HandleLogin redirects the caller to the issuer's user-facing SSO entry point.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		_ = utils.WriteBadRequest(w, "Missing redirect_uri parameter", nil)
		return
	}

	http.Redirect(w, r, h.coordinator.LoginURL(redirectURI), http.StatusFound)
}

// HandleCallback trades the one-time code for a service token, verifies the
// token, and returns the exchange result. The token is not stored here;
// propagating it onto later requests is the caller's responsibility.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	params := callbackParams{
		Code:        r.URL.Query().Get("code"),
		RedirectURI: r.URL.Query().Get("redirect_uri"),
	}
	if err := utils.ValidateStruct(params); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid callback parameters", utils.GetValidationFields(err))
		return
	}

	result, err := h.coordinator.Exchange(r.Context(), params.Code, params.RedirectURI)
	if err != nil {
		h.writeExchangeError(w, err)
		return
	}

	// The issuer signed this token moments ago; verify it anyway so a broken
	// issuer cannot hand our callers an unusable credential.
	if _, err := h.validator.Validate(r.Context(), result.ServiceToken); err != nil {
		h.logger.Error("exchanged token failed validation", zap.Error(err))
		_ = utils.WriteBadGateway(w, "Issuer returned an invalid token")
		return
	}

	_ = utils.WriteOK(w, result)
}

func (h *Handler) writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, issuer.ErrExchangeRejected):
		h.logger.Warn("sso code rejected by issuer", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Authorization code rejected", nil)
	case errors.Is(err, issuer.ErrExchangeUnreachable):
		h.logger.Error("issuer unreachable during exchange", zap.Error(err))
		_ = utils.WriteBadGateway(w, "Issuer unavailable")
	case errors.Is(err, issuer.ErrExchangeMalformedResponse):
		h.logger.Error("issuer returned malformed exchange response", zap.Error(err))
		_ = utils.WriteBadGateway(w, "Unexpected issuer response")
	default:
		h.logger.Error("sso exchange failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
	}
}

package services

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/issuer"
)

// CodeExchanger performs the backend-to-backend code-for-token call.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*issuer.ExchangeResult, error)
}

// SSOCoordinator orchestrates the one-time-code-for-token handshake with the
// issuing authority: it builds the user-facing login redirect and trades the
// code a caller brings back for a service token. The token in the exchange
// result is handed to the caller once and never retained here.
type SSOCoordinator struct {
	exchanger   CodeExchanger
	entryURL    string
	serviceName string
	logger      *zap.Logger
}

// NewSSOCoordinator creates a new SSO coordinator. entryURL is the issuing
// authority's user-facing base address.
func NewSSOCoordinator(exchanger CodeExchanger, entryURL, serviceName string, logger *zap.Logger) *SSOCoordinator {
	return &SSOCoordinator{
		exchanger:   exchanger,
		entryURL:    strings.TrimSuffix(entryURL, "/"),
		serviceName: serviceName,
		logger:      logger,
	}
}

// LoginURL builds the redirect target at the issuer's user-facing entry
// point, carrying the caller's redirect URI and our service identifier. The
// target is always the issuer, never this service's backend address.
func (c *SSOCoordinator) LoginURL(redirectURI string) string {
	params := url.Values{
		"redirect_uri": {redirectURI},
		"service":      {c.serviceName},
	}
	return c.entryURL + "/auth/sso?" + params.Encode()
}

// Exchange trades the one-time code plus the original redirect URI for a
// service token. The redirect URI is URL-decoded once if it arrives encoded,
// so the value sent to the issuer matches what was encoded at login time.
func (c *SSOCoordinator) Exchange(ctx context.Context, code, redirectURI string) (*issuer.ExchangeResult, error) {
	uri := redirectURI
	if strings.Contains(uri, "%") {
		decoded, err := url.QueryUnescape(uri)
		if err == nil {
			uri = decoded
		} else {
			c.logger.Warn("redirect URI looks encoded but does not decode, using as-is",
				zap.Error(err))
		}
	}

	result, err := c.exchanger.ExchangeCode(ctx, code, uri)
	if err != nil {
		return nil, err
	}

	c.logger.Info("sso code exchanged",
		zap.Int64("subject_id", result.SubjectID),
		zap.String("service_name", result.ServiceName))
	return result, nil
}

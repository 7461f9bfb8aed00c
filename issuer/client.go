package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the issuing authority's backend endpoints:
// verification key retrieval, SSO code exchange and user profiles.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds configuration for the issuer client.
type ClientConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// NewClient creates a new issuer client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

type publicKeyEnvelope struct {
	Data struct {
		PublicKey string `json:"publicKey"`
	} `json:"data"`
}

// PublicKey fetches the PEM-encoded verification key from the issuer.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/public-key", nil)
	if err != nil {
		return "", fmt.Errorf("create public key request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("public key request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public key request failed: status %d", resp.StatusCode)
	}

	var envelope publicKeyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode public key response: %w", err)
	}
	if envelope.Data.PublicKey == "" {
		return "", fmt.Errorf("public key response contained no key")
	}

	return envelope.Data.PublicKey, nil
}

type exchangeRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type exchangeEnvelope struct {
	Data struct {
		ServiceToken string `json:"serviceToken"`
		UserID       int64  `json:"userId"`
		ServiceName  string `json:"serviceName"`
	} `json:"data"`
}

// ExchangeCode trades a one-time SSO code plus the original redirect URI for
// a service token. Failure causes stay distinguishable: ErrExchangeRejected
// when the issuer refuses the code, ErrExchangeUnreachable on transport or
// server-side failure, ErrExchangeMalformedResponse on an unexpected shape.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*ExchangeResult, error) {
	body, err := json.Marshal(exchangeRequest{Code: code, RedirectURI: redirectURI})
	if err != nil {
		return nil, fmt.Errorf("encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/sso/exchange", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrExchangeUnreachable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrExchangeUnreachable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d", ErrExchangeRejected, resp.StatusCode)
	}

	var envelope exchangeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeMalformedResponse, err)
	}
	if envelope.Data.ServiceToken == "" {
		return nil, fmt.Errorf("%w: no serviceToken in response", ErrExchangeMalformedResponse)
	}

	return &ExchangeResult{
		ServiceToken: envelope.Data.ServiceToken,
		SubjectID:    envelope.Data.UserID,
		ServiceName:  envelope.Data.ServiceName,
	}, nil
}

type profileEnvelope struct {
	Data UserProfile `json:"data"`
}

// Profile fetches the user profile for the bearer of the given service token.
func (c *Client) Profile(ctx context.Context, serviceToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request failed: status %d", resp.StatusCode)
	}

	var envelope profileEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	return &envelope.Data, nil
}

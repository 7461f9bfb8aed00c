package issuer

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// KeyProvider supplies the current RSA verification key.
type KeyProvider interface {
	Get(ctx context.Context) (*rsa.PublicKey, error)
}

// Validator verifies service tokens against the issuer's verification key
// and the configured service name policy. Validation holds no locks and
// performs no I/O beyond the key lookup.
type Validator struct {
	keys KeyProvider

	// expectedService enables the service name check when non-empty.
	expectedService string
}

// NewValidator creates a new service token validator.
func NewValidator(keys KeyProvider, expectedService string) *Validator {
	return &Validator{
		keys:            keys,
		expectedService: expectedService,
	}
}

// Validate verifies the raw token and returns the authenticated principal.
// Checks run in order and short-circuit at the first failure: signature
// (RS256 pinned), expiry, token type, then the service name policy.
func (v *Validator) Validate(ctx context.Context, rawToken string) (*Principal, error) {
	key, err := v.keys.Get(ctx)
	if err != nil {
		return nil, err
	}

	claims := &ServiceTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		// The algorithm is pinned to RS256; anything else is rejected
		// before the key is ever used.
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Type != TokenTypeService {
		return nil, fmt.Errorf("%w: %q", ErrWrongTokenType, claims.Type)
	}

	if v.expectedService != "" {
		if claims.ServiceName == "" {
			return nil, fmt.Errorf("%w: token carries no serviceName", ErrServiceMismatch)
		}
		if !serviceNameMatches(v.expectedService, claims.ServiceName) {
			return nil, fmt.Errorf("%w: got %q, expected %q", ErrServiceMismatch, claims.ServiceName, v.expectedService)
		}
	}

	return claims.Principal(), nil
}

// serviceNameMatches accepts an exact match or a case-sensitive substring
// match in either direction, tolerating naming variants such as
// "external-service" inside "crm-external-service".
func serviceNameMatches(expected, actual string) bool {
	return expected == actual ||
		strings.Contains(actual, expected) ||
		strings.Contains(expected, actual)
}

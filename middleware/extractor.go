package middleware

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMissingToken is returned by RequireBearerToken when the request carries
// no usable Authorization header.
var ErrMissingToken = errors.New("missing bearer token")

// ExtractBearerToken pulls the raw bearer value from the request's
// Authorization header, whitespace-trimmed and with the "Bearer " prefix
// removed. It is a pure function of the request and holds no state across
// calls; a process-wide "current token" would leak one caller's credential
// into another caller's request under concurrent traffic.
func ExtractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireBearerToken wraps ExtractBearerToken and fails with ErrMissingToken
// when the header is absent or malformed.
func RequireBearerToken(r *http.Request) (string, error) {
	token, ok := ExtractBearerToken(r)
	if !ok {
		return "", ErrMissingToken
	}
	return token, nil
}

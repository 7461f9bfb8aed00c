package issuer

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeService is the required value of the type claim on service tokens.
const TokenTypeService = "service"

// ServiceTokenClaims represents the claims carried by an RS256-signed service token.
type ServiceTokenClaims struct {
	jwt.RegisteredClaims
	UserID      int64  `json:"userId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Type        string `json:"type"`
	ServiceName string `json:"serviceName,omitempty"`
}

// Principal is the authenticated identity derived from validated claims.
// It is request-scoped: attached to the request context by the auth
// middleware and never persisted or cached.
type Principal struct {
	SubjectID   int64  `json:"subjectId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	ServiceName string `json:"serviceName,omitempty"`
}

// Principal builds the normalized principal for the claims.
func (c *ServiceTokenClaims) Principal() *Principal {
	return &Principal{
		SubjectID:   c.UserID,
		Email:       c.Email,
		Role:        c.Role,
		ServiceName: c.ServiceName,
	}
}

// UserProfile is the issuer's user profile object consumed by identity
// resolution. Field precedence for deriving a login is decided by the
// resolver, not here.
type UserProfile struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ExchangeResult is the outcome of a successful SSO code exchange. The
// service token inside it is returned to the caller once and not retained.
type ExchangeResult struct {
	ServiceToken string `json:"serviceToken"`
	SubjectID    int64  `json:"subjectId"`
	ServiceName  string `json:"serviceName"`
}

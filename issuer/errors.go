package issuer

import "errors"

var (
	// ErrKeyUnavailable is returned when no verification key can be obtained,
	// neither pre-provisioned nor fetched from the issuer
	ErrKeyUnavailable = errors.New("verification key unavailable")

	// ErrTokenMalformed is returned when the token cannot be parsed
	ErrTokenMalformed = errors.New("malformed service token")

	// ErrSignatureInvalid is returned when the signature does not verify,
	// including tokens signed with an unexpected algorithm
	ErrSignatureInvalid = errors.New("invalid token signature")

	// ErrTokenExpired is returned when the token is past its expiry
	ErrTokenExpired = errors.New("service token expired")

	// ErrWrongTokenType is returned when the type claim is not "service"
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrServiceMismatch is returned when the serviceName claim does not
	// match the expected service name
	ErrServiceMismatch = errors.New("service name mismatch")

	// ErrExchangeRejected is returned when the issuer refuses the SSO code
	ErrExchangeRejected = errors.New("issuer rejected the exchange code")

	// ErrExchangeUnreachable is returned when the issuer cannot be reached
	// or fails server-side during the exchange
	ErrExchangeUnreachable = errors.New("issuer unreachable")

	// ErrExchangeMalformedResponse is returned when the issuer answers the
	// exchange with an unexpected shape
	ErrExchangeMalformedResponse = errors.New("malformed exchange response")
)

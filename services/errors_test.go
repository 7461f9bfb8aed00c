package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("formats with and without a cause", func(t *testing.T) {
		bare := NewDomainError(ErrorTypeValidation, "bad input", nil)
		assert.Equal(t, "validation: bad input", bare.Error())

		wrapped := NewDomainError(ErrorTypeExternal, "issuer call failed", assert.AnError)
		assert.Contains(t, wrapped.Error(), "issuer call failed")
		assert.ErrorIs(t, wrapped, assert.AnError)
	})

	t.Run("Is matches on type and message", func(t *testing.T) {
		err := fmt.Errorf("resolving: %w", ErrIdentityUnresolved)

		assert.ErrorIs(t, err, ErrIdentityUnresolved)
		assert.NotErrorIs(t, err, NewDomainError(ErrorTypeInternal, "different message", nil))
		assert.NotErrorIs(t, err, NewDomainError(ErrorTypeExternal, "identity unresolved", nil))
	})
}

func TestErrorTypePredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"validation", NewDomainError(ErrorTypeValidation, "bad input", nil), IsValidationError},
		{"unauthorized", NewDomainError(ErrorTypeUnauthorized, "no access", nil), IsUnauthorizedError},
		{"external", NewDomainError(ErrorTypeExternal, "issuer down", nil), IsExternalError},
		{"internal", ErrIdentityUnresolved, IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(tt.err))
			assert.True(t, tt.predicate(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.predicate(errors.New("plain error")))
		})
	}

	t.Run("predicates discriminate between types", func(t *testing.T) {
		err := NewDomainError(ErrorTypeValidation, "bad input", nil)

		assert.True(t, IsValidationError(err))
		assert.False(t, IsInternalError(err))
		assert.False(t, IsExternalError(err))
	})
}

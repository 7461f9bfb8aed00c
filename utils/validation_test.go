package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callbackForm struct {
	Code        string `validate:"required,max=512"`
	RedirectURI string `validate:"required,url"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		err := ValidateStruct(callbackForm{Code: "C", RedirectURI: "https://x/callback"})
		assert.NoError(t, err)
	})

	t.Run("missing fields are reported", func(t *testing.T) {
		err := ValidateStruct(callbackForm{})

		require.Error(t, err)
		fields := GetValidationFields(err)
		assert.Equal(t, "Code is required", fields["Code"])
		assert.Equal(t, "RedirectURI is required", fields["RedirectURI"])
	})

	t.Run("url tag is enforced", func(t *testing.T) {
		err := ValidateStruct(callbackForm{Code: "C", RedirectURI: "not a url"})

		require.Error(t, err)
		assert.Equal(t, "RedirectURI must be a valid URL", GetValidationFields(err)["RedirectURI"])
	})

	t.Run("max tag includes the limit", func(t *testing.T) {
		err := ValidateStruct(callbackForm{
			Code:        strings.Repeat("a", 513),
			RedirectURI: "https://x/callback",
		})

		require.Error(t, err)
		assert.Equal(t, "Code must be at most 512", GetValidationFields(err)["Code"])
	})
}

func TestGetValidationFields(t *testing.T) {
	t.Run("non-validation errors yield nil", func(t *testing.T) {
		assert.Nil(t, GetValidationFields(assert.AnError))
	})
}

package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteOK(w, map[string]string{"login": "jdoe"})

	require.NoError(t, err)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]interface{}{"login": "jdoe"}, resp.Data)
}

func TestWriteErrorResponses(t *testing.T) {
	t.Run("bad request carries details", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteBadRequest(w, "Invalid callback parameters", map[string]string{"Code": "Code is required"})

		require.NoError(t, err)
		assert.Equal(t, 400, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "bad_request", resp.Error)
		assert.Equal(t, "Code is required", resp.Details["Code"])
	})

	t.Run("unauthorized defaults the message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteUnauthorized(w, ""))

		assert.Equal(t, 401, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "unauthorized", resp.Error)
		assert.Equal(t, "Authentication required", resp.Message)
	})

	t.Run("unauthorized keeps a custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteUnauthorized(w, "Invalid or missing token"))

		resp := decodeError(t, w)
		assert.Equal(t, "Invalid or missing token", resp.Message)
	})

	t.Run("forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteForbidden(w, ""))

		assert.Equal(t, 403, w.Code)
		assert.Equal(t, "forbidden", decodeError(t, w).Error)
	})

	t.Run("bad gateway", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteBadGateway(w, "Issuer unavailable"))

		assert.Equal(t, 502, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "bad_gateway", resp.Error)
		assert.Equal(t, "Issuer unavailable", resp.Message)
	})

	t.Run("internal server error", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteInternalServerError(w, ""))

		assert.Equal(t, 500, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w).Message)
	})
}

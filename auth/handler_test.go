package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crmbridge/external-service/issuer"
)

// MockCoordinator is a mock implementation of Coordinator
type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) LoginURL(redirectURI string) string {
	args := m.Called(redirectURI)
	return args.String(0)
}

func (m *MockCoordinator) Exchange(ctx context.Context, code, redirectURI string) (*issuer.ExchangeResult, error) {
	args := m.Called(ctx, code, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuer.ExchangeResult), args.Error(1)
}

// MockValidator is a mock implementation of TokenValidator
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, token string) (*issuer.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuer.Principal), args.Error(1)
}

func TestHandleLogin(t *testing.T) {
	logger := zap.NewNop()

	t.Run("redirects to the issuer entry point", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		coordinator.On("LoginURL", "https://x/callback").
			Return("https://sso.issuer.example/auth/sso?redirect_uri=https%3A%2F%2Fx%2Fcallback&service=svc")
		handler := NewHandler(coordinator, new(MockValidator), logger)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/login?redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleLogin(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "sso.issuer.example")
		coordinator.AssertExpectations(t)
	})

	t.Run("missing redirect_uri is a bad request", func(t *testing.T) {
		handler := NewHandler(new(MockCoordinator), new(MockValidator), logger)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/login", nil)
		w := httptest.NewRecorder()

		handler.HandleLogin(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCallback(t *testing.T) {
	logger := zap.NewNop()

	t.Run("exchanges the code and returns the result", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		validator := new(MockValidator)
		handler := NewHandler(coordinator, validator, logger)

		result := &issuer.ExchangeResult{ServiceToken: "T", SubjectID: 42, ServiceName: "svc"}
		coordinator.On("Exchange", mock.Anything, "C", "https://x/callback").Return(result, nil)
		validator.On("Validate", mock.Anything, "T").
			Return(&issuer.Principal{SubjectID: 42, Role: "integration"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=C&redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleCallback(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data issuer.ExchangeResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "T", body.Data.ServiceToken)
		assert.Equal(t, int64(42), body.Data.SubjectID)
		assert.Equal(t, "svc", body.Data.ServiceName)

		coordinator.AssertExpectations(t)
		validator.AssertExpectations(t)
	})

	t.Run("missing parameters are a bad request", func(t *testing.T) {
		handler := NewHandler(new(MockCoordinator), new(MockValidator), logger)

		for _, target := range []string{
			"/auth/sso/callback",
			"/auth/sso/callback?code=C",
			"/auth/sso/callback?redirect_uri=https://x/callback",
		} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			w := httptest.NewRecorder()

			handler.HandleCallback(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, "target %s", target)
		}
	})

	t.Run("rejected code maps to 400", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		coordinator.On("Exchange", mock.Anything, "C", "https://x/callback").
			Return(nil, issuer.ErrExchangeRejected)
		handler := NewHandler(coordinator, new(MockValidator), logger)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=C&redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleCallback(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unreachable issuer maps to 502", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		coordinator.On("Exchange", mock.Anything, "C", "https://x/callback").
			Return(nil, issuer.ErrExchangeUnreachable)
		handler := NewHandler(coordinator, new(MockValidator), logger)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=C&redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleCallback(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("malformed issuer response maps to 502", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		coordinator.On("Exchange", mock.Anything, "C", "https://x/callback").
			Return(nil, issuer.ErrExchangeMalformedResponse)
		handler := NewHandler(coordinator, new(MockValidator), logger)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=C&redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleCallback(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("exchanged token that fails validation maps to 502", func(t *testing.T) {
		coordinator := new(MockCoordinator)
		validator := new(MockValidator)
		handler := NewHandler(coordinator, validator, logger)

		coordinator.On("Exchange", mock.Anything, "C", "https://x/callback").
			Return(&issuer.ExchangeResult{ServiceToken: "bad"}, nil)
		validator.On("Validate", mock.Anything, "bad").Return(nil, issuer.ErrSignatureInvalid)

		req := httptest.NewRequest(http.MethodGet, "/auth/sso/callback?code=C&redirect_uri=https://x/callback", nil)
		w := httptest.NewRecorder()

		handler.HandleCallback(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

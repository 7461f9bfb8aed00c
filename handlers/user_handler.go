package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/app"
	"github.com/crmbridge/external-service/middleware"
	"github.com/crmbridge/external-service/services"
	"github.com/crmbridge/external-service/utils"
)

// CurrentUserResponse is the response body for GET /api/v1/users/me
type CurrentUserResponse struct {
	SubjectID   int64  `json:"subjectId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	ServiceName string `json:"serviceName,omitempty"`
	Login       string `json:"login"`
}

// GetCurrentUserHandler returns the authenticated principal along with the
// resolved login identifier used for downstream correlation.
func GetCurrentUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middleware.GetPrincipalFromContext(r.Context())
		if principal == nil {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		// The token is re-read from the request rather than from any shared
		// state, so one caller's credential can never serve another's call.
		token, err := middleware.RequireBearerToken(r)
		if err != nil {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		login, err := deps.Identity.ResolveLogin(r.Context(), token, principal.SubjectID, principal.Email)
		if err != nil {
			if errors.Is(err, services.ErrIdentityUnresolved) {
				deps.Logger.Error("login resolution exhausted all strategies",
					zap.Int64("subject_id", principal.SubjectID))
			}
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, CurrentUserResponse{
			SubjectID:   principal.SubjectID,
			Email:       principal.Email,
			Role:        principal.Role,
			ServiceName: principal.ServiceName,
			Login:       login,
		})
	}
}

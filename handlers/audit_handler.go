package handlers

import (
	"net/http"
	"strconv"

	"github.com/crmbridge/external-service/app"
	"github.com/crmbridge/external-service/utils"
)

// maxAuditPageSize bounds one audit listing so a caller cannot request an
// arbitrarily large scan.
const maxAuditPageSize = 500

// ListAuthEventsHandler lists recent authentication decisions from the
// audit store.
func ListAuthEventsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.AuditEvents == nil {
			_ = utils.WriteBadRequest(w, "Audit trail is not enabled", nil)
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		if limit > maxAuditPageSize {
			limit = maxAuditPageSize
		}

		events, err := deps.AuditEvents.ListRecent(r.Context(), limit)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, events)
	}
}

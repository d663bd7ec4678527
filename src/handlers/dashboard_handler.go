package handlers

import (
	"net/http"

	"github.com/username/finanzas/backend/src/logger"
	"github.com/username/finanzas/backend/src/services"
	"github.com/username/finanzas/backend/src/utils"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// HandleGetDashboard serves the month-over-month summary with ETag support
// so unchanged dashboards cost the client nothing.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	data, err := h.dashboard.GetDashboard(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	etag, err := utils.GenerateETag(data)
	if err != nil {
		logger.L.Warn("failed to generate dashboard ETag", "error", err, "userID", userID)
	} else {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	utils.SendJSON(w, http.StatusOK, data)
}

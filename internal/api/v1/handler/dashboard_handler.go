package handler

import (
	"net/http"

	"stepable/internal/service"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /dashboard", authMw(http.HandlerFunc(h.getDashboard)))
}

// getDashboard godoc
// @Summary Get the home dashboard of the current user
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.Dashboard
// @Router /dashboard [get]
func (h *DashboardHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	d, err := h.dashboardService.Summary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

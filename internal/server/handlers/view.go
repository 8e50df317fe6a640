package handlers

import (
	"net/http"

	"github.com/agentstation/zonewatch/internal/server/cache"
	"github.com/agentstation/zonewatch/internal/server/query"
	"github.com/agentstation/zonewatch/internal/server/response"
)

// HandleGetView handles GET /api/v1/view.
// @Summary Latest view
// @Description Latest published building view with optional filtering
// @Tags view
// @Produce json
// @Param building query string false "Focus on one building id (All for every building)"
// @Param name_contains query string false "Filter by partial building name"
// @Param name query string false "Building name glob or regex patterns (comma-separated)"
// @Param activity query string false "Filter by activity level (comma-separated)"
// @Param source query string false "live: every axis live, fallback: any axis from the catalog"
// @Param min_peak query integer false "Minimum peak occupancy"
// @Param max_peak query integer false "Maximum peak occupancy"
// @Param sort query string false "Sort field (id, name, activity, peak, dwell)"
// @Param order query string false "Sort order (asc, desc)"
// @Success 200 {object} response.Response{data=merger.View}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/view [get].
func (h *Handlers) HandleGetView(w http.ResponseWriter, r *http.Request) {
	f, err := query.ParseBuildingFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	view, ok := h.client.View()
	if !ok {
		response.NotFound(w, "No view published yet", "Apply a filter or wait for the first refresh")
		return
	}

	cacheKey := cache.ViewKey(view.Generation, f.Key())
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	result, err := f.Apply(view)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.cache.Set(cacheKey, result)

	response.OK(w, result)
}

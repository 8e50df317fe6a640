package handlers

import (
	"net/http"

	"github.com/agentstation/zonewatch/internal/server/response"
)

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Health check endpoint (liveness probe)
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "zonewatch-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready.
// The service is ready once a view has been published.
// @Summary Readiness check
// @Description Readiness check: at least one reconciled view is available
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	view, ok := h.client.View()
	if !ok {
		response.ServiceUnavailable(w, "No view published yet")
		return
	}

	response.OK(w, map[string]any{
		"status":     "ready",
		"generation": view.Generation,
		"zones":      len(h.client.Catalog().ListZones()),
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
	})
}

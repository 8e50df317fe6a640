package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/zonewatch/internal/server/response"
)

// HandleStats handles GET /api/v1/stats.
// @Summary Server statistics
// @Description Runtime, filter and cache statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	published := map[string]any{"generation": 0}
	if view, ok := h.client.View(); ok {
		published = map[string]any{
			"generation":   view.Generation,
			"zone":         view.ZoneKey,
			"hours":        view.WindowHours,
			"published_at": view.PublishedAt,
			"failed_axes":  view.Summary.FailedAxes,
		}
	}

	response.OK(w, map[string]any{
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"filter":    h.client.Filter(),
		"published": published,
		"match_by":  h.client.MatchMode(),
		"cache":     h.cache.GetStats(),
	})
}

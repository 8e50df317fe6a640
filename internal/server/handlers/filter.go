package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/agentstation/zonewatch/internal/server/response"
	"github.com/agentstation/zonewatch/pkg/coordinator"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/filter"
)

// maxFilterBody bounds the PUT /filter request body.
const maxFilterBody = 4 << 10

// filterRequest is the body of PUT /api/v1/filter. Omitted fields keep
// their current value; window accepts labels such as "12h".
type filterRequest struct {
	Zone   string `json:"zone"`
	Hours  int    `json:"hours"`
	Window string `json:"window"`
}

// HandleGetFilter handles GET /api/v1/filter.
// @Summary Current filter
// @Description Current zone, window and generation
// @Tags filter
// @Produce json
// @Success 200 {object} response.Response{data=filter.Snapshot}
// @Security ApiKeyAuth
// @Router /api/v1/filter [get].
func (h *Handlers) HandleGetFilter(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"filter":  h.client.Filter(),
		"windows": h.client.Windows(),
	})
}

// HandlePutFilter handles PUT /api/v1/filter.
// @Summary Apply a filter
// @Description Change zone and/or window. Starts a reconciliation cycle for the new generation.
// @Tags filter
// @Accept json
// @Produce json
// @Param wait query boolean false "Block until the cycle completes or is superseded"
// @Success 200 {object} response.Response{data=object}
// @Success 202 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Failure 504 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/filter [put].
func (h *Handlers) HandlePutFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFilterBody)).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		var err error
		if wait, err = strconv.ParseBool(raw); err != nil {
			response.BadRequest(w, "Invalid wait parameter", err.Error())
			return
		}
	}

	current := h.client.Filter()
	zoneKey := req.Zone
	if zoneKey == "" {
		zoneKey = current.ZoneKey
	}
	hours := req.Hours
	if hours == 0 && req.Window != "" {
		parsed, err := filter.ParseWindow(req.Window)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		hours = parsed
	}
	if hours == 0 {
		hours = current.WindowHours
	}

	cycle, err := h.client.Apply(r.Context(), zoneKey, hours)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	if !wait {
		response.Accepted(w, cycleInfo(cycle))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()
	state, err := cycle.Wait(ctx)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if state == coordinator.Superseded {
		response.ErrorFromType(w, fmt.Errorf("generation %d: %w", cycle.Generation, errors.ErrSuperseded))
		return
	}

	response.OK(w, cycleInfo(cycle))
}

// HandleGetCycle handles GET /api/v1/cycles/{generation}.
// @Summary Cycle state
// @Description State of a tracked reconciliation cycle
// @Tags filter
// @Produce json
// @Param generation path integer true "Generation"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/cycles/{generation} [get].
func (h *Handlers) HandleGetCycle(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["generation"]
	gen, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid generation", err.Error())
		return
	}

	cycle, ok := h.client.Cycle(gen)
	if !ok {
		response.NotFound(w, "Cycle not found", "generation "+raw+" is unknown or no longer tracked")
		return
	}

	response.OK(w, cycleInfo(cycle))
}

// cycleInfo renders a cycle, including its view once complete.
func cycleInfo(cycle *coordinator.Cycle) map[string]any {
	info := map[string]any{
		"generation":  cycle.Generation,
		"zone":        cycle.ZoneKey,
		"hours":       cycle.WindowHours,
		"state":       cycle.State(),
		"settled":     cycle.Settled(),
		"started_at":  cycle.StartedAt,
		"duration_ms": cycle.Duration().Milliseconds(),
	}
	if view, ok := cycle.View(); ok {
		info["view"] = view
	}
	return info
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/agentstation/zonewatch/internal/server/cache"
	"github.com/agentstation/zonewatch/internal/server/response"
)

// HandleListZones handles GET /api/v1/zones.
// @Summary List zones
// @Description List all catalog zones with their building counts
// @Tags zones
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/zones [get].
func (h *Handlers) HandleListZones(w http.ResponseWriter, _ *http.Request) {
	// Check cache
	if cached, found := h.cache.Get(cache.ZonesKey()); found {
		response.OK(w, cached)
		return
	}

	entries := h.client.Catalog().ListZones()

	zones := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		zones = append(zones, map[string]any{
			"key":       e.Key,
			"id":        e.Zone.ID,
			"name":      e.Zone.Name,
			"buildings": len(e.Zone.Buildings),
		})
	}

	result := map[string]any{
		"zones": zones,
		"count": len(zones),
	}

	// The catalog is immutable, so the listing can live for the full TTL
	h.cache.Set(cache.ZonesKey(), result)

	response.OK(w, result)
}

// HandleGetZoneBuildings handles GET /api/v1/zones/{key}/buildings.
// @Summary Get zone buildings
// @Description List the catalog buildings of a zone with their fallback values
// @Tags zones
// @Produce json
// @Param key path string true "Zone key"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/zones/{key}/buildings [get].
func (h *Handlers) HandleGetZoneBuildings(w http.ResponseWriter, r *http.Request) {
	zoneKey := mux.Vars(r)["key"]

	cacheKey := cache.BuildingsKey(zoneKey)
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	zone, err := h.client.Catalog().Zone(zoneKey)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	result := map[string]any{
		"zone": map[string]any{
			"key":  zone.Key,
			"id":   zone.ID,
			"name": zone.Name,
		},
		"buildings": zone.Buildings,
		"count":     len(zone.Buildings),
	}

	h.cache.Set(cacheKey, result)

	response.OK(w, result)
}

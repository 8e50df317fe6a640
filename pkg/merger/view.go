package merger

import (
	"time"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Source marks where an axis value of a BuildingView came from.
type Source string

// Value sources.
const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// BuildingView is the rendered unit for one building in one cycle.
// It is replaced wholesale every cycle and never mutated in place.
type BuildingView struct {
	Building        catalog.Building        `json:"building" yaml:"building"`
	ActivityLevel   catalog.ActivityLevel   `json:"activity_level" yaml:"activity_level"`
	PeakOccupancy   int                     `json:"peak_occupancy" yaml:"peak_occupancy"`
	AvgDwellMinutes int                     `json:"avg_dwell_minutes" yaml:"avg_dwell_minutes"`
	Color           string                  `json:"color" yaml:"color"`
	Sources         map[metrics.Axis]Source `json:"sources" yaml:"sources"`
}

// Source returns the source of an axis value.
func (b BuildingView) Source(axis metrics.Axis) Source {
	if s, ok := b.Sources[axis]; ok {
		return s
	}
	return SourceFallback
}

// Live reports whether every axis of the building carries a live value.
func (b BuildingView) Live() bool {
	for _, axis := range metrics.Axes() {
		if b.Source(axis) != SourceLive {
			return false
		}
	}
	return true
}

// Summary counts how a cycle's values were sourced.
type Summary struct {
	Live       map[metrics.Axis]int `json:"live" yaml:"live"`
	Fallback   map[metrics.Axis]int `json:"fallback" yaml:"fallback"`
	FailedAxes []metrics.Axis       `json:"failed_axes,omitempty" yaml:"failed_axes,omitempty"`
	Orphans    int                  `json:"orphans" yaml:"orphans"`
	Malformed  int                  `json:"malformed" yaml:"malformed"`
	Duplicates int                  `json:"duplicates" yaml:"duplicates"`
}

// View is the published result of one reconciliation cycle.
type View struct {
	Generation  uint64         `json:"generation" yaml:"generation"`
	ZoneKey     string         `json:"zone" yaml:"zone"`
	ZoneName    string         `json:"zone_name" yaml:"zone_name"`
	WindowHours int            `json:"hours" yaml:"hours"`
	Buildings   []BuildingView `json:"buildings" yaml:"buildings"`
	Summary     Summary        `json:"summary" yaml:"summary"`
	PublishedAt time.Time      `json:"published_at" yaml:"published_at"`
}

// Building returns the view of one building.
func (v View) Building(id string) (BuildingView, bool) {
	for _, b := range v.Buildings {
		if b.Building.ID == id {
			return b, true
		}
	}
	return BuildingView{}, false
}

// Focus projects the view onto a single building. An empty selector or
// "All" keeps every building.
func (v View) Focus(buildingID string) (View, error) {
	if buildingID == "" || buildingID == metrics.AllBuildings {
		return v, nil
	}
	b, ok := v.Building(buildingID)
	if !ok {
		return View{}, errors.NewNotFoundError("building", buildingID)
	}
	out := v
	out.Buildings = []BuildingView{b}
	return out, nil
}

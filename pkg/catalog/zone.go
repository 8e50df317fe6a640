package catalog

import (
	"strings"

	"github.com/agentstation/zonewatch/pkg/errors"
)

// ActivityLevel is the qualitative activity classification of a building.
type ActivityLevel string

// Activity levels reported by the activity-level endpoint.
const (
	ActivityHigh   ActivityLevel = "High"
	ActivityMedium ActivityLevel = "Medium"
	ActivityLow    ActivityLevel = "Low"
)

// String returns the string representation of an activity level.
func (a ActivityLevel) String() string {
	return string(a)
}

// Valid reports whether a is one of the known activity levels.
func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivityHigh, ActivityMedium, ActivityLow:
		return true
	}
	return false
}

// Color returns the presentation colour associated with an activity level.
func (a ActivityLevel) Color() string {
	switch a {
	case ActivityHigh:
		return "red"
	case ActivityMedium:
		return "yellow"
	case ActivityLow:
		return "green"
	}
	return ""
}

// Fallback holds the static metric values used when no live value exists.
type Fallback struct {
	PeakOccupancy   int           `json:"peak_occupancy" yaml:"peak_occupancy"`
	AvgDwellMinutes int           `json:"avg_dwell_minutes" yaml:"avg_dwell_minutes"`
	ActivityLevel   ActivityLevel `json:"activity_level" yaml:"activity_level"`
}

// Building is an individually tracked physical unit within a zone.
// ID is its identity; Name is a display label.
type Building struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
	Fallback Fallback `json:"fallback" yaml:"fallback"`
}

// PresentationColor returns the explicit colour, or the one derived from the
// fallback activity level when none is configured.
func (b Building) PresentationColor() string {
	if b.Color != "" {
		return b.Color
	}
	return b.Fallback.ActivityLevel.Color()
}

// Zone is a top-level spatial grouping containing an ordered list of buildings.
type Zone struct {
	Key       string     `json:"key" yaml:"key"`
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Buildings []Building `json:"buildings" yaml:"buildings"`
}

// Building returns the building with the given id.
func (z Zone) Building(id string) (Building, bool) {
	for _, b := range z.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return Building{}, false
}

// ZoneEntry pairs a zone key with its zone, as returned by ListZones.
type ZoneEntry struct {
	Key  string
	Zone Zone
}

// clone returns a deep copy of the zone.
func (z Zone) clone() Zone {
	out := z
	out.Buildings = append([]Building(nil), z.Buildings...)
	return out
}

// validate checks the zone for missing identifiers and duplicate buildings.
func (z Zone) validate() error {
	if strings.TrimSpace(z.Key) == "" {
		return errors.NewValidationError("zone.key", z.Key, "cannot be empty")
	}
	if strings.TrimSpace(z.Name) == "" {
		return errors.NewValidationError("zone.name", z.Key, "cannot be empty")
	}

	seen := make(map[string]struct{}, len(z.Buildings))
	for i, b := range z.Buildings {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return errors.NewValidationError("building.id", i, "cannot be empty in zone "+z.Key)
		}
		// Records are matched on the trimmed id.
		if _, dup := seen[id]; dup {
			return errors.NewValidationError("building.id", b.ID, "duplicate in zone "+z.Key)
		}
		seen[id] = struct{}{}

		if b.Fallback.ActivityLevel != "" && !b.Fallback.ActivityLevel.Valid() {
			return errors.NewValidationError("building.fallback.activity_level", b.Fallback.ActivityLevel,
				"must be High, Medium or Low")
		}
		if b.Fallback.PeakOccupancy < 0 || b.Fallback.AvgDwellMinutes < 0 {
			return errors.NewValidationError("building.fallback", b.ID, "metrics cannot be negative")
		}
	}
	return nil
}

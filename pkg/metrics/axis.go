// Package metrics defines the shared vocabulary of a reconciliation cycle:
// the metric axes, the records a live fetch returns, and the per-axis
// settlements gathered for one generation.
package metrics

import (
	"strings"

	"github.com/agentstation/zonewatch/pkg/errors"
)

// Axis is one of the independently fetched metric types.
type Axis string

// Metric axes, named after their endpoint paths.
const (
	AxisActivityLevel Axis = "activity-level"
	AxisPeakOccupancy Axis = "peak-occupancy"
	AxisAvgDwellTime  Axis = "avg-dwell-time"
)

// Axes returns every axis in canonical order.
func Axes() []Axis {
	return []Axis{AxisActivityLevel, AxisPeakOccupancy, AxisAvgDwellTime}
}

// String returns the string representation of an axis.
func (a Axis) String() string {
	return string(a)
}

// Valid reports whether a is a known axis.
func (a Axis) Valid() bool {
	switch a {
	case AxisActivityLevel, AxisPeakOccupancy, AxisAvgDwellTime:
		return true
	}
	return false
}

// ValueField is the JSON field carrying the axis value in endpoint responses.
func (a Axis) ValueField() string {
	switch a {
	case AxisActivityLevel:
		return "activityLevel"
	case AxisPeakOccupancy:
		return "peakOccupancy"
	case AxisAvgDwellTime:
		return "avgDwellMinutes"
	}
	return ""
}

// ParseAxis parses an axis name such as "peak-occupancy" or "peak_occupancy".
func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !a.Valid() {
		return "", errors.NewValidationError("axis", s, "must be activity-level, peak-occupancy or avg-dwell-time")
	}
	return a, nil
}

// Package query provides query parameter parsing and filtering for view endpoints.
package query

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/zonewatch/internal/matcher"
	"github.com/agentstation/zonewatch/internal/sources/endpoints"
	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Sort fields.
const (
	SortCatalog  = "" // catalog order
	SortID       = "id"
	SortName     = "name"
	SortActivity = "activity"
	SortPeak     = "peak"
	SortDwell    = "dwell"
)

// BuildingFilter contains the filter criteria for the buildings of a view.
type BuildingFilter struct {
	// Building focuses the view on one building id; "All" or empty keeps all
	Building string

	// NameContains is a case-insensitive substring match on the display name
	NameContains string

	// Names keeps buildings whose display name matches any glob or regex pattern
	Names matcher.Set

	// Activity keeps buildings whose effective level is in the set
	Activity []catalog.ActivityLevel

	// Source keeps buildings whose every axis came from the given source
	Source merger.Source

	// Peak occupancy range; zero means unbounded
	MinPeak int
	MaxPeak int

	Sort  string
	Order string
}

// ParseBuildingFilter extracts building filter parameters from an HTTP request.
func ParseBuildingFilter(r *http.Request) (BuildingFilter, error) {
	q := r.URL.Query()

	f := BuildingFilter{
		Building:     q.Get("building"),
		NameContains: q.Get("name_contains"),
		Sort:         strings.ToLower(q.Get("sort")),
		Order:        strings.ToLower(q.Get("order")),
	}

	if names := q.Get("name"); names != "" {
		patterns := strings.Split(names, ",")
		set, err := matcher.NewSet(patterns)
		if err != nil {
			return f, errors.NewValidationError("name", names, err.Error())
		}
		f.Names = set
	}

	if activity := q.Get("activity"); activity != "" {
		for _, part := range strings.Split(activity, ",") {
			level := endpoints.NormalizeActivity(part)
			if !level.Valid() {
				return f, errors.NewValidationError("activity", part, "expected High, Medium or Low")
			}
			f.Activity = append(f.Activity, level)
		}
	}

	switch src := merger.Source(strings.ToLower(q.Get("source"))); src {
	case "", merger.SourceLive, merger.SourceFallback:
		f.Source = src
	default:
		return f, errors.NewValidationError("source", src, "expected live or fallback")
	}

	var err error
	if f.MinPeak, err = parseNonNegative(q.Get("min_peak"), "min_peak"); err != nil {
		return f, err
	}
	if f.MaxPeak, err = parseNonNegative(q.Get("max_peak"), "max_peak"); err != nil {
		return f, err
	}

	switch f.Sort {
	case SortCatalog, SortID, SortName, SortActivity, SortPeak, SortDwell:
	default:
		return f, errors.NewValidationError("sort", f.Sort, "expected id, name, activity, peak or dwell")
	}
	if f.Order != "" && f.Order != "asc" && f.Order != "desc" {
		return f, errors.NewValidationError("order", f.Order, "expected asc or desc")
	}

	return f, nil
}

// Apply focuses, filters and sorts a view. The input view is not modified.
func (f BuildingFilter) Apply(view merger.View) (merger.View, error) {
	view, err := view.Focus(f.Building)
	if err != nil {
		return view, err
	}

	results := make([]merger.BuildingView, 0, len(view.Buildings))
	for _, b := range view.Buildings {
		if f.matches(b) {
			results = append(results, b)
		}
	}

	if f.Sort != SortCatalog {
		f.sort(results)
	}

	view.Buildings = results
	return view, nil
}

// matches checks if a building matches the filter criteria.
func (f BuildingFilter) matches(b merger.BuildingView) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(b.Building.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if !f.Names.Match(b.Building.Name) {
		return false
	}
	if len(f.Activity) > 0 && !slices.Contains(f.Activity, b.ActivityLevel) {
		return false
	}
	if f.MinPeak > 0 && b.PeakOccupancy < f.MinPeak {
		return false
	}
	if f.MaxPeak > 0 && b.PeakOccupancy > f.MaxPeak {
		return false
	}
	switch f.Source {
	case merger.SourceLive:
		return b.Live()
	case merger.SourceFallback:
		return !b.Live()
	}
	return true
}

// sort orders buildings by the sort field, stable on catalog order.
func (f BuildingFilter) sort(buildings []merger.BuildingView) {
	compare := func(a, b merger.BuildingView) int {
		switch f.Sort {
		case SortID:
			return cmp.Compare(a.Building.ID, b.Building.ID)
		case SortName:
			return cmp.Compare(strings.ToLower(a.Building.Name), strings.ToLower(b.Building.Name))
		case SortActivity:
			return cmp.Compare(activityRank(a.ActivityLevel), activityRank(b.ActivityLevel))
		case SortPeak:
			return cmp.Compare(a.PeakOccupancy, b.PeakOccupancy)
		case SortDwell:
			return cmp.Compare(a.AvgDwellMinutes, b.AvgDwellMinutes)
		}
		return 0
	}
	if f.Order == "desc" {
		asc := compare
		compare = func(a, b merger.BuildingView) int { return asc(b, a) }
	}
	slices.SortStableFunc(buildings, compare)
}

// Key returns a canonical cache key fragment for the filter.
func (f BuildingFilter) Key() string {
	levels := make([]string, len(f.Activity))
	for i, l := range f.Activity {
		levels[i] = string(l)
	}
	slices.Sort(levels)
	building := f.Building
	if building == metrics.AllBuildings {
		building = ""
	}
	return strings.Join([]string{
		building,
		strings.ToLower(f.NameContains),
		strings.Join(f.Names.Patterns(), ","),
		strings.Join(levels, ","),
		string(f.Source),
		strconv.Itoa(f.MinPeak),
		strconv.Itoa(f.MaxPeak),
		f.Sort,
		f.Order,
	}, "|")
}

func activityRank(level catalog.ActivityLevel) int {
	switch level {
	case catalog.ActivityLow:
		return 1
	case catalog.ActivityMedium:
		return 2
	case catalog.ActivityHigh:
		return 3
	}
	return 0
}

// parseNonNegative parses an optional non-negative integer.
func parseNonNegative(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, errors.NewValidationError(field, s, "expected a non-negative integer")
	}
	return i, nil
}

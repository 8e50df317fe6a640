// Package merger folds the per-axis settlements of one generation into the
// building views of a zone.
//
// Merging is pure and total: every catalog building appears exactly once, in
// catalog order, with each axis taking the live value when one was returned
// and the catalog fallback otherwise. Records that match no building are
// ignored.
package merger

import (
	"strings"
	"time"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// MatchMode selects how live records are matched to catalog buildings.
type MatchMode string

// Match modes. Name matching is a compatibility mode for endpoints that
// key records by display name.
const (
	MatchByID   MatchMode = "id"
	MatchByName MatchMode = "name"
)

// ParseMatchMode parses "id" or "name".
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchByID:
		return MatchByID, nil
	case MatchByName:
		return MatchByName, nil
	}
	return "", errors.NewValidationError("match_by", s, "must be id or name")
}

// Merger merges settlement sets against the catalog.
type Merger struct {
	match MatchMode
	now   func() time.Time
}

// Option configures a Merger.
type Option func(*Merger)

// WithMatchMode selects id or name matching.
func WithMatchMode(mode MatchMode) Option {
	return func(m *Merger) {
		if mode != "" {
			m.match = mode
		}
	}
}

// WithClock overrides the clock used to stamp published views.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		m.now = now
	}
}

// New creates a merger. The default match mode is MatchByID.
func New(opts ...Option) *Merger {
	m := &Merger{match: MatchByID, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchMode returns the configured match mode.
func (m *Merger) MatchMode() MatchMode {
	return m.match
}

// Merge returns one view per catalog building of the zone, in catalog order.
func (m *Merger) Merge(zone catalog.Zone, set metrics.SettlementSet) []BuildingView {
	views, _ := m.merge(zone, set)
	return views
}

// Build merges a settlement set into a complete, timestamped View.
func (m *Merger) Build(zone catalog.Zone, hours int, generation uint64, set metrics.SettlementSet) View {
	views, summary := m.merge(zone, set)
	return View{
		Generation:  generation,
		ZoneKey:     zone.Key,
		ZoneName:    zone.Name,
		WindowHours: hours,
		Buildings:   views,
		Summary:     summary,
		PublishedAt: m.now().UTC(),
	}
}

func (m *Merger) merge(zone catalog.Zone, set metrics.SettlementSet) ([]BuildingView, Summary) {
	summary := Summary{
		Live:       make(map[metrics.Axis]int, 3),
		Fallback:   make(map[metrics.Axis]int, 3),
		FailedAxes: set.Failed(),
	}

	known := make(map[string]struct{}, len(zone.Buildings))
	for _, b := range zone.Buildings {
		known[m.key(b)] = struct{}{}
	}

	indexes := make(map[metrics.Axis]map[string]metrics.Record, 3)
	for _, axis := range metrics.Axes() {
		indexes[axis] = m.index(axis, set.Records(axis), known, &summary)
	}

	views := make([]BuildingView, len(zone.Buildings))
	for i, b := range zone.Buildings {
		key := m.key(b)
		v := BuildingView{
			Building:        b,
			ActivityLevel:   b.Fallback.ActivityLevel,
			PeakOccupancy:   b.Fallback.PeakOccupancy,
			AvgDwellMinutes: b.Fallback.AvgDwellMinutes,
			Sources: map[metrics.Axis]Source{
				metrics.AxisActivityLevel: SourceFallback,
				metrics.AxisPeakOccupancy: SourceFallback,
				metrics.AxisAvgDwellTime:  SourceFallback,
			},
		}

		if r, ok := indexes[metrics.AxisActivityLevel][key]; ok {
			v.ActivityLevel, _ = r.ActivityLevel()
			v.Sources[metrics.AxisActivityLevel] = SourceLive
		}
		if r, ok := indexes[metrics.AxisPeakOccupancy][key]; ok {
			v.PeakOccupancy, _ = r.Int()
			v.Sources[metrics.AxisPeakOccupancy] = SourceLive
		}
		if r, ok := indexes[metrics.AxisAvgDwellTime][key]; ok {
			v.AvgDwellMinutes, _ = r.Int()
			v.Sources[metrics.AxisAvgDwellTime] = SourceLive
		}

		v.Color = b.Color
		if v.Color == "" {
			v.Color = v.ActivityLevel.Color()
		}

		for axis, src := range v.Sources {
			if src == SourceLive {
				summary.Live[axis]++
			} else {
				summary.Fallback[axis]++
			}
		}
		views[i] = v
	}

	return views, summary
}

// index keys the valid records of one axis by match key. The first record
// for a key wins; malformed and orphan records are counted and skipped.
func (m *Merger) index(axis metrics.Axis, records []metrics.Record, known map[string]struct{}, summary *Summary) map[string]metrics.Record {
	idx := make(map[string]metrics.Record, len(records))
	for i, r := range records {
		if err := metrics.Validate(axis, i, r); err != nil {
			summary.Malformed++
			continue
		}
		key := m.normalize(r.Key)
		if _, ok := known[key]; !ok {
			summary.Orphans++
			continue
		}
		if _, dup := idx[key]; dup {
			summary.Duplicates++
			continue
		}
		idx[key] = r
	}
	return idx
}

func (m *Merger) key(b catalog.Building) string {
	if m.match == MatchByName {
		return m.normalize(b.Name)
	}
	return m.normalize(b.ID)
}

// normalize trims ids; names are also case folded and space collapsed.
func (m *Merger) normalize(s string) string {
	if m.match == MatchByName {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return strings.TrimSpace(s)
}

package output

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/zonewatch/internal/cmd/emoji"
	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// ZonesToData renders catalog zones.
func ZonesToData(entries []catalog.ZoneEntry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Key,
			e.Zone.ID,
			e.Zone.Name,
			strconv.Itoa(len(e.Zone.Buildings)),
		})
	}
	return Data{
		Headers:         []string{"Key", "ID", "Name", "Buildings"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// ViewToData renders the buildings of a view. Wide adds per-axis sources
// and the presentation color.
func ViewToData(view merger.View, wide bool) Data {
	headers := []string{"ID", "Building", "Activity", "Peak", "Dwell (min)"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight}
	if wide {
		headers = append(headers, "Color")
		align = append(align, AlignLeft)
		for _, axis := range metrics.Axes() {
			headers = append(headers, axisTitle(axis))
			align = append(align, AlignCenter)
		}
	}

	rows := make([][]string, 0, len(view.Buildings))
	for _, b := range view.Buildings {
		row := []string{
			b.Building.ID,
			b.Building.Name,
			mark(b, metrics.AxisActivityLevel, b.ActivityLevel.String()),
			mark(b, metrics.AxisPeakOccupancy, strconv.Itoa(b.PeakOccupancy)),
			mark(b, metrics.AxisAvgDwellTime, strconv.Itoa(b.AvgDwellMinutes)),
		}
		if wide {
			row = append(row, b.Color)
			for _, axis := range metrics.Axes() {
				row = append(row, string(b.Source(axis)))
			}
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// SummaryToData renders the reconciliation summary of a view.
func SummaryToData(view merger.View) Data {
	rows := [][]string{
		{"Generation", strconv.FormatUint(view.Generation, 10)},
		{"Zone", view.ZoneName + " (" + view.ZoneKey + ")"},
		{"Window", strconv.Itoa(view.WindowHours) + "h"},
		{"Orphans", strconv.Itoa(view.Summary.Orphans)},
		{"Malformed", strconv.Itoa(view.Summary.Malformed)},
		{"Duplicates", strconv.Itoa(view.Summary.Duplicates)},
	}
	if len(view.Summary.FailedAxes) > 0 {
		failed := make([]string, len(view.Summary.FailedAxes))
		for i, a := range view.Summary.FailedAxes {
			failed[i] = a.String()
		}
		rows = append(rows, []string{"Failed axes", strings.Join(failed, ", ")})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// mark flags catalog-sourced values with an asterisk.
func mark(b merger.BuildingView, axis metrics.Axis, value string) string {
	if b.Source(axis) == merger.SourceFallback {
		return value + emoji.Fallback
	}
	return value
}

func axisTitle(axis metrics.Axis) string {
	return cases.Title(language.English).String(strings.ReplaceAll(axis.String(), "-", " "))
}

// BuildingsToData renders catalog buildings with their fallback values.
func BuildingsToData(buildings []catalog.Building) Data {
	rows := make([][]string, 0, len(buildings))
	for _, b := range buildings {
		rows = append(rows, []string{
			b.ID,
			b.Name,
			b.PresentationColor(),
			b.Fallback.ActivityLevel.String(),
			strconv.Itoa(b.Fallback.PeakOccupancy),
			strconv.Itoa(b.Fallback.AvgDwellMinutes),
		})
	}
	return Data{
		Headers:         []string{"ID", "Name", "Color", "Activity", "Peak", "Dwell (min)"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight},
	}
}

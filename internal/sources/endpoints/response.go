package endpoints

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// keyFields are the record fields that may carry the building key, in
// order of preference.
var keyFields = []string{"building", "buildingId", "building_id", "id"}

// valueFields lists the accepted spellings of each axis value field.
var valueFields = map[metrics.Axis][]string{
	metrics.AxisActivityLevel: {"activityLevel", "activity_level", "activity"},
	metrics.AxisPeakOccupancy: {"peakOccupancy", "peak_occupancy", "peak"},
	metrics.AxisAvgDwellTime:  {"avgDwellMinutes", "avg_dwell_minutes", "avgDwellTime", "dwell"},
}

// rawResponse is either a bare array of records or an object with a data array.
type rawResponse struct {
	items []map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *rawResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Data []map[string]json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		r.items = wrapped.Data
		return nil
	}
	return json.Unmarshal(trimmed, &r.items)
}

// records converts raw items into records for an axis.
func (r rawResponse) records(axis metrics.Axis) ([]metrics.Record, error) {
	fields, ok := valueFields[axis]
	if !ok {
		return nil, errors.NewValidationError("axis", axis, "unknown axis")
	}

	out := make([]metrics.Record, 0, len(r.items))
	for _, item := range r.items {
		rec := metrics.Record{Key: parseKey(item)}
		if raw, ok := first(item, fields); ok {
			rec.Value = parseValue(axis, raw)
		}
		out = append(out, rec)
	}
	return out, nil
}

func first(item map[string]json.RawMessage, fields []string) (json.RawMessage, bool) {
	for _, f := range fields {
		if raw, ok := item[f]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return raw, true
		}
	}
	return nil, false
}

// parseKey accepts string or numeric building keys.
func parseKey(item map[string]json.RawMessage) string {
	raw, ok := first(item, keyFields)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// parseValue decodes an axis value. Values that cannot be interpreted are
// returned as-is so the merger can count them as malformed.
func parseValue(axis metrics.Axis, raw json.RawMessage) any {
	if axis == metrics.AxisActivityLevel {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return NormalizeActivity(s)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return intOrFloat(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return intOrFloat(f)
		}
		return s
	}
	return string(raw)
}

func intOrFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		return int(f)
	}
	return f
}

// NormalizeActivity maps "high", " HIGH " and "High" to catalog.ActivityHigh.
// Unknown levels are returned title-cased and fail validation downstream.
func NormalizeActivity(s string) catalog.ActivityLevel {
	// A Caser is stateful, so each call gets its own.
	caser := cases.Title(language.English)
	return catalog.ActivityLevel(caser.String(strings.ToLower(strings.TrimSpace(s))))
}

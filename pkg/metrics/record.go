package metrics

import (
	"context"
	"math"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
)

// AllBuildings is the building selector meaning "every building in the zone".
const AllBuildings = "All"

// Record is one live value returned by a fetch for a single axis.
// Key is the building id, or the building name under name matching.
// Value is a catalog.ActivityLevel or an int depending on the axis.
type Record struct {
	Key   string `json:"building"`
	Value any    `json:"value"`
}

// ActivityLevel returns the record value as an activity level.
func (r Record) ActivityLevel() (catalog.ActivityLevel, bool) {
	switch v := r.Value.(type) {
	case catalog.ActivityLevel:
		return v, v.Valid()
	case string:
		level := catalog.ActivityLevel(v)
		return level, level.Valid()
	}
	return "", false
}

// Int returns the record value as a non-negative integer.
func (r Record) Int() (int, bool) {
	switch v := r.Value.(type) {
	case int:
		return v, v >= 0
	case int64:
		return int(v), v >= 0
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

// Validate checks that a record carries a key and a value of the type the
// axis expects. The returned error is a MalformedRecordError.
func Validate(axis Axis, index int, r Record) error {
	if r.Key == "" {
		return errors.NewMalformedRecordError(axis.String(), index, "missing building key")
	}
	if r.Value == nil {
		return errors.NewMalformedRecordError(axis.String(), index, "missing value")
	}

	var ok bool
	switch axis {
	case AxisActivityLevel:
		_, ok = r.ActivityLevel()
	case AxisPeakOccupancy, AxisAvgDwellTime:
		_, ok = r.Int()
	}
	if !ok {
		return errors.NewMalformedRecordError(axis.String(), index, "unexpected value type or range")
	}
	return nil
}

// Query scopes a fetch to one zone, one window and a building selector.
type Query struct {
	Zone     string
	Hours    int
	Building string
}

// Fetcher retrieves the live records of one axis.
type Fetcher interface {
	Axis() Axis
	Fetch(ctx context.Context, q Query) ([]Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc struct {
	AxisName Axis
	Func     func(ctx context.Context, q Query) ([]Record, error)
}

// Axis implements Fetcher.
func (f FetcherFunc) Axis() Axis { return f.AxisName }

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) ([]Record, error) {
	return f.Func(ctx, q)
}

package metrics

import (
	"time"
)

// Settlement is the outcome of one axis fetch: either records or an error.
type Settlement struct {
	Axis     Axis
	Records  []Record
	Err      error
	Duration time.Duration
}

// Ok returns a successful settlement.
func Ok(axis Axis, records []Record) Settlement {
	return Settlement{Axis: axis, Records: records}
}

// Failed returns a failed settlement.
func Failed(axis Axis, err error) Settlement {
	return Settlement{Axis: axis, Err: err}
}

// OK reports whether the fetch succeeded.
func (s Settlement) OK() bool {
	return s.Err == nil
}

// SettlementSet collects the settlements gathered for one generation.
// A missing axis is treated like a failed one.
type SettlementSet map[Axis]Settlement

// NewSettlementSet builds a set from settlements; later entries for the
// same axis replace earlier ones.
func NewSettlementSet(settlements ...Settlement) SettlementSet {
	set := make(SettlementSet, len(settlements))
	for _, s := range settlements {
		set[s.Axis] = s
	}
	return set
}

// Records returns the live records of an axis, or nil when it failed or is absent.
func (s SettlementSet) Records(axis Axis) []Record {
	st, ok := s[axis]
	if !ok || !st.OK() {
		return nil
	}
	return st.Records
}

// Failed returns the axes that failed or never settled, in canonical order.
func (s SettlementSet) Failed() []Axis {
	var failed []Axis
	for _, axis := range Axes() {
		if st, ok := s[axis]; !ok || !st.OK() {
			failed = append(failed, axis)
		}
	}
	return failed
}

// Complete reports whether every axis has settled.
func (s SettlementSet) Complete() bool {
	for _, axis := range Axes() {
		if _, ok := s[axis]; !ok {
			return false
		}
	}
	return true
}

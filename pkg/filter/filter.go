// Package filter holds the viewer's zone and time window selection together
// with the generation counter that identifies each reconciliation cycle.
//
// Every accepted mutation bumps the generation exactly once; a rejected
// mutation changes nothing. Only mutations write the counter, and reads are
// lock free.
package filter

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/constants"
	"github.com/agentstation/zonewatch/pkg/errors"
)

// Snapshot is the filter state captured by one accepted mutation.
type Snapshot struct {
	ZoneKey     string `json:"zone" yaml:"zone"`
	WindowHours int    `json:"hours" yaml:"hours"`
	Generation  uint64 `json:"generation" yaml:"generation"`
}

// State is the current zone and window selection.
type State struct {
	catalog catalog.Catalog
	windows []int

	mu          sync.Mutex
	zoneKey     string
	windowHours int
	generation  atomic.Uint64
}

// Option configures a State.
type Option func(*State) error

// WithWindows replaces the selectable window set.
func WithWindows(hours ...int) Option {
	return func(s *State) error {
		if len(hours) == 0 {
			return errors.NewValidationError("windows", hours, "at least one window is required")
		}
		for _, h := range hours {
			if h <= 0 {
				return errors.NewValidationError("windows", h, "must be positive")
			}
		}
		s.windows = slices.Clone(hours)
		slices.Sort(s.windows)
		s.windows = slices.Compact(s.windows)
		return nil
	}
}

// WithInitial sets the selection in place before the first mutation.
// The initial selection is generation 0 and is never reconciled by itself.
func WithInitial(zoneKey string, hours int) Option {
	return func(s *State) error {
		s.zoneKey = zoneKey
		s.windowHours = hours
		return nil
	}
}

// New creates a filter state bound to a catalog. Without WithInitial the
// first catalog zone and the default window are selected.
func New(cat catalog.Catalog, opts ...Option) (*State, error) {
	s := &State{
		catalog: cat,
		windows: constants.DefaultWindows(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.zoneKey == "" {
		if zones := cat.ListZones(); len(zones) > 0 {
			s.zoneKey = zones[0].Key
		}
	}
	if s.windowHours == 0 {
		s.windowHours = s.defaultWindow()
	}

	if err := s.validate(s.zoneKey, s.windowHours); err != nil {
		return nil, err
	}
	return s, nil
}

// SetZone selects a zone, keeping the current window.
func (s *State) SetZone(zoneKey string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(zoneKey, s.windowHours)
}

// SetWindowHours selects a window, keeping the current zone.
func (s *State) SetWindowHours(hours int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(s.zoneKey, hours)
}

// Set selects both zone and window as a single mutation.
func (s *State) Set(zoneKey string, hours int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(zoneKey, hours)
}

// Reapply bumps the generation for the current selection so a fresh
// cycle can be requested without changing filters.
func (s *State) Reapply() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.generation.Add(1)
	return Snapshot{ZoneKey: s.zoneKey, WindowHours: s.windowHours, Generation: gen}
}

// Current returns the current generation.
func (s *State) Current() uint64 {
	return s.generation.Load()
}

// Snapshot returns the current selection and generation.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ZoneKey: s.zoneKey, WindowHours: s.windowHours, Generation: s.generation.Load()}
}

// Windows returns the selectable windows in ascending order.
func (s *State) Windows() []int {
	return slices.Clone(s.windows)
}

// apply validates then commits a mutation. Callers hold s.mu.
func (s *State) apply(zoneKey string, hours int) (Snapshot, error) {
	if err := s.validate(zoneKey, hours); err != nil {
		return Snapshot{}, err
	}

	s.zoneKey = zoneKey
	s.windowHours = hours
	gen := s.generation.Add(1)

	return Snapshot{ZoneKey: zoneKey, WindowHours: hours, Generation: gen}, nil
}

// validate checks the window first, then the zone.
func (s *State) validate(zoneKey string, hours int) error {
	if !slices.Contains(s.windows, hours) {
		return errors.NewInvalidWindowError(hours, slices.Clone(s.windows))
	}
	if _, err := s.catalog.Zone(zoneKey); err != nil {
		return err
	}
	return nil
}

func (s *State) defaultWindow() int {
	if slices.Contains(s.windows, constants.DefaultWindowHours) {
		return constants.DefaultWindowHours
	}
	return s.windows[len(s.windows)-1]
}

// ParseWindow parses a window label such as "12h", "12" or "12 hours".
// Membership in the window set is checked by the mutation itself.
func ParseWindow(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	for _, suffix := range []string{"hours", "hour", "hrs", "hr", "h"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	hours, err := strconv.Atoi(s)
	if err != nil || hours <= 0 {
		return 0, errors.NewValidationError("window", label, "expected a positive number of hours such as 12h")
	}
	return hours, nil
}

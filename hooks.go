package zonewatch

import (
	"sync"

	"github.com/agentstation/zonewatch/pkg/filter"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Hook function types for reconciliation events
type (
	// FilterChangedHook is called after a filter mutation is accepted
	FilterChangedHook func(snapshot filter.Snapshot)

	// ViewPublishedHook is called with every published view, in generation order
	ViewPublishedHook func(view merger.View)

	// AxisFailedHook is called when an axis of the live generation fails
	AxisFailedHook func(failure AxisFailure)
)

// AxisFailure describes one failed axis fetch.
type AxisFailure struct {
	Generation uint64
	ZoneKey    string
	Axis       metrics.Axis
	Err        error
}

// Hooks registers callbacks for reconciliation events.
type Hooks interface {
	// OnFilterChanged registers a callback for accepted filter mutations
	OnFilterChanged(fn FilterChangedHook)

	// OnViewPublished registers a callback for published views
	OnViewPublished(fn ViewPublishedHook)

	// OnAxisFailed registers a callback for failed axis fetches
	OnAxisFailed(fn AxisFailedHook)
}

// hooks manages event callbacks
type hooks struct {
	mu              sync.RWMutex
	onFilterChanged []FilterChangedHook
	onViewPublished []ViewPublishedHook
	onAxisFailed    []AxisFailedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnFilterChanged registers a callback for accepted filter mutations
func (c *client) OnFilterChanged(fn FilterChangedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onFilterChanged = append(c.hooks.onFilterChanged, fn)
}

// OnViewPublished registers a callback for published views
func (c *client) OnViewPublished(fn ViewPublishedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onViewPublished = append(c.hooks.onViewPublished, fn)
}

// OnAxisFailed registers a callback for failed axis fetches
func (c *client) OnAxisFailed(fn AxisFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onAxisFailed = append(c.hooks.onAxisFailed, fn)
}

func (h *hooks) triggerFilterChanged(snap filter.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onFilterChanged {
		hook(snap)
	}
}

func (h *hooks) triggerViewPublished(view merger.View) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onViewPublished {
		hook(view)
	}
}

func (h *hooks) triggerAxisFailed(gen uint64, zoneKey string, axis metrics.Axis, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onAxisFailed {
		hook(AxisFailure{Generation: gen, ZoneKey: zoneKey, Axis: axis, Err: err})
	}
}

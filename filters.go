package zonewatch

import (
	"context"
	"fmt"

	"github.com/agentstation/zonewatch/pkg/coordinator"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/filter"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/merger"
)

// Compile-time interface check to ensure proper implementation.
var _ Filterer = (*client)(nil)

// Filterer mutates the filter state. Every accepted mutation bumps the
// generation and starts a reconciliation cycle for it; rejected mutations
// leave the state and generation untouched and issue no fetch.
type Filterer interface {
	// Filter returns the current selection and generation.
	Filter() filter.Snapshot

	// Windows returns the selectable window sizes in hours.
	Windows() []int

	// SetZone selects a zone, keeping the current window.
	SetZone(ctx context.Context, zoneKey string) (*coordinator.Cycle, error)

	// SetWindow selects a window, keeping the current zone.
	SetWindow(ctx context.Context, hours int) (*coordinator.Cycle, error)

	// Apply selects zone and window as a single mutation.
	Apply(ctx context.Context, zoneKey string, hours int) (*coordinator.Cycle, error)

	// Refresh re-applies the current selection and waits for its view.
	Refresh(ctx context.Context) (merger.View, error)
}

// Filter returns the current selection and generation.
func (c *client) Filter() filter.Snapshot {
	return c.filter.Snapshot()
}

// Windows returns the selectable window sizes in hours.
func (c *client) Windows() []int {
	return c.filter.Windows()
}

// SetZone selects a zone, keeping the current window.
func (c *client) SetZone(ctx context.Context, zoneKey string) (*coordinator.Cycle, error) {
	return c.mutate(ctx, func() (filter.Snapshot, error) {
		return c.filter.SetZone(zoneKey)
	})
}

// SetWindow selects a window, keeping the current zone.
func (c *client) SetWindow(ctx context.Context, hours int) (*coordinator.Cycle, error) {
	return c.mutate(ctx, func() (filter.Snapshot, error) {
		return c.filter.SetWindowHours(hours)
	})
}

// Apply selects zone and window as a single mutation.
func (c *client) Apply(ctx context.Context, zoneKey string, hours int) (*coordinator.Cycle, error) {
	return c.mutate(ctx, func() (filter.Snapshot, error) {
		return c.filter.Set(zoneKey, hours)
	})
}

// Refresh re-applies the current selection under a new generation and waits
// for the cycle to finish. Axis failures never surface here: they degrade to
// catalog values in the returned view. A refresh overtaken by a newer
// mutation returns ErrSuperseded.
func (c *client) Refresh(ctx context.Context) (merger.View, error) {
	cycle, err := c.mutate(ctx, func() (filter.Snapshot, error) {
		return c.filter.Reapply(), nil
	})
	if err != nil {
		return merger.View{}, err
	}

	state, err := cycle.Wait(ctx)
	if err != nil {
		return merger.View{}, err
	}
	if state == coordinator.Superseded {
		return merger.View{}, fmt.Errorf("generation %d: %w", cycle.Generation, errors.ErrSuperseded)
	}

	view, _ := cycle.View()
	return view, nil
}

// mutate applies a filter mutation and starts the cycle for the resulting
// generation. Cycles outlive the caller's context; only its values are kept.
func (c *client) mutate(ctx context.Context, fn func() (filter.Snapshot, error)) (*coordinator.Cycle, error) {
	c.startMu.Lock()
	snap, err := fn()
	if err != nil {
		c.startMu.Unlock()
		logging.FromContext(ctx).Debug().Err(err).Msg("Filter mutation rejected")
		return nil, err
	}

	zone, err := c.catalog.Zone(snap.ZoneKey)
	if err != nil {
		c.startMu.Unlock()
		return nil, err
	}

	cycle, err := c.coord.Start(context.WithoutCancel(ctx), zone, snap.WindowHours, snap.Generation)
	c.startMu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("zone", snap.ZoneKey).
		Int("hours", snap.WindowHours).
		Uint64("generation", snap.Generation).
		Msg("Filter applied")

	c.hooks.triggerFilterChanged(snap)
	return cycle, nil
}

package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// State is the lifecycle state of one generation's cycle.
type State int

// Cycle states. Complete and Superseded are terminal.
const (
	Pending State = iota
	Complete
	Superseded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Superseded:
		return "superseded"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cycle tracks the reconciliation of a single generation.
type Cycle struct {
	Generation  uint64
	ZoneKey     string
	WindowHours int
	StartedAt   time.Time

	mu         sync.Mutex
	state      State
	settled    metrics.SettlementSet
	view       *merger.View
	finishedAt time.Time
	done       chan struct{}
	doneOnce   sync.Once
}

func newCycle(gen uint64, zoneKey string, hours int, now time.Time) *Cycle {
	return &Cycle{
		Generation:  gen,
		ZoneKey:     zoneKey,
		WindowHours: hours,
		StartedAt:   now,
		settled:     make(metrics.SettlementSet, 3),
		done:        make(chan struct{}),
	}
}

// State returns the current state.
func (c *Cycle) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the cycle reaches a terminal state.
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycle is terminal or ctx is done.
func (c *Cycle) Wait(ctx context.Context) (State, error) {
	select {
	case <-c.done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// View returns the published view of a complete cycle.
func (c *Cycle) View() (merger.View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return merger.View{}, false
	}
	return *c.view, true
}

// Settled returns the axes that settled while the cycle was live, in canonical order.
func (c *Cycle) Settled() []metrics.Axis {
	c.mu.Lock()
	defer c.mu.Unlock()
	var axes []metrics.Axis
	for _, axis := range metrics.Axes() {
		if _, ok := c.settled[axis]; ok {
			axes = append(axes, axis)
		}
	}
	return axes
}

// Duration returns how long the cycle ran, or has been running.
func (c *Cycle) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finishedAt.IsZero() {
		return time.Since(c.StartedAt)
	}
	return c.finishedAt.Sub(c.StartedAt)
}

// settle records an axis outcome. It reports false once the cycle is terminal.
func (c *Cycle) settle(s metrics.Settlement) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Pending {
		return false
	}
	c.settled[s.Axis] = s
	return true
}

// settlements returns a copy of the settlement set.
func (c *Cycle) settlements() metrics.SettlementSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := make(metrics.SettlementSet, len(c.settled))
	for k, v := range c.settled {
		set[k] = v
	}
	return set
}

// finish moves the cycle to a terminal state. Only the first call wins.
// Waiters are woken by release.
func (c *Cycle) finish(state State, view *merger.View, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Pending {
		return false
	}
	c.state = state
	c.view = view
	c.finishedAt = now
	return true
}

func (c *Cycle) release() {
	c.doneOnce.Do(func() { close(c.done) })
}

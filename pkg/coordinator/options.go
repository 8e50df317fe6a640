package coordinator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Publisher is called with every published view, in generation order.
type Publisher func(view merger.View)

// AxisFailureHandler is called when an axis of the live generation fails.
type AxisFailureHandler func(gen uint64, zoneKey string, axis metrics.Axis, err error)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMerger sets the merger used for complete settlement sets.
func WithMerger(m *merger.Merger) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.merger = m
		}
	}
}

// WithAxisTimeout bounds every axis fetch.
func WithAxisTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.axisTimeout = d
		}
	}
}

// WithPublisher registers the callback for published views.
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// WithAxisFailureHandler registers the callback for failed axes.
func WithAxisFailureHandler(h AxisFailureHandler) Option {
	return func(c *Coordinator) {
		c.onAxisFailed = h
	}
}

// WithRecorder sets the measurement sink.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHistory sets how many finished cycles stay queryable through Cycle.
func WithHistory(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.history = n
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

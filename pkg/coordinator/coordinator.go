// Package coordinator runs reconciliation cycles: for each generation it
// issues the three metric fetches concurrently, lets every axis settle on its
// own, and publishes the merged view only while that generation is still the
// live one.
//
// Supersession is logical. Late results of a replaced generation are ignored
// rather than cancelled at the transport, and the superseded check runs both
// when each axis settles and again right before publishing.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/constants"
	pkgerrors "github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

const tracerName = "github.com/agentstation/zonewatch/pkg/coordinator"

// GenerationSource reports the live generation.
type GenerationSource interface {
	Current() uint64
}

// GenerationFunc adapts a function to GenerationSource.
type GenerationFunc func() uint64

// Current implements GenerationSource.
func (f GenerationFunc) Current() uint64 { return f() }

// Coordinator issues and tracks reconciliation cycles.
type Coordinator struct {
	generations  GenerationSource
	fetchers     map[metrics.Axis]metrics.Fetcher
	merger       *merger.Merger
	axisTimeout  time.Duration
	publisher    Publisher
	onAxisFailed AxisFailureHandler
	recorder     Recorder
	logger       *zerolog.Logger
	tracer       trace.Tracer
	history      int
	now          func() time.Time

	mu     sync.Mutex
	cycles map[uint64]*Cycle
	order  []uint64
	pruned uint64

	publishMu     sync.Mutex
	latest        *merger.View
	lastPublished uint64

	notifyMu     sync.Mutex
	lastNotified uint64
}

// New creates a coordinator. Each fetcher serves one axis; an axis without a
// fetcher settles as failed every cycle.
func New(generations GenerationSource, fetchers []metrics.Fetcher, opts ...Option) (*Coordinator, error) {
	if generations == nil {
		return nil, pkgerrors.NewValidationError("generations", nil, "a generation source is required")
	}

	c := &Coordinator{
		generations: generations,
		fetchers:    make(map[metrics.Axis]metrics.Fetcher, len(fetchers)),
		merger:      merger.New(),
		axisTimeout: constants.DefaultAxisTimeout,
		recorder:    nopRecorder{},
		logger:      logging.Default(),
		tracer:      otel.Tracer(tracerName),
		history:     constants.MaxCycleHistory,
		now:         time.Now,
		cycles:      make(map[uint64]*Cycle),
	}

	for _, f := range fetchers {
		axis := f.Axis()
		if !axis.Valid() {
			return nil, pkgerrors.NewValidationError("fetcher.axis", axis, "unknown axis")
		}
		if _, dup := c.fetchers[axis]; dup {
			return nil, pkgerrors.NewValidationError("fetcher.axis", axis, "more than one fetcher for axis")
		}
		c.fetchers[axis] = f
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins the cycle for a generation and returns without waiting.
// A generation is reconciled at most once; a second Start for the same
// generation fails with ErrDuplicateGeneration. A generation that is no
// longer live is marked superseded without issuing any fetch.
func (c *Coordinator) Start(ctx context.Context, zone catalog.Zone, hours int, generation uint64) (*Cycle, error) {
	c.mu.Lock()
	if _, exists := c.cycles[generation]; exists || (c.pruned > 0 && generation <= c.pruned) {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: generation %d", pkgerrors.ErrDuplicateGeneration, generation)
	}
	cycle := newCycle(generation, zone.Key, hours, c.now())
	c.cycles[generation] = cycle
	c.order = append(c.order, generation)

	var older []*Cycle
	for gen, cy := range c.cycles {
		if gen < generation {
			older = append(older, cy)
		}
	}
	c.pruneLocked()
	c.mu.Unlock()

	for _, cy := range older {
		if c.superseded(cy.Generation) {
			c.supersede(cy)
		}
	}

	c.recorder.CycleStarted()
	if c.superseded(generation) {
		c.supersede(cycle)
		return cycle, nil
	}

	go c.run(ctx, zone, cycle)
	return cycle, nil
}

// Refresh runs the cycle for a generation and waits for it to become terminal.
func (c *Coordinator) Refresh(ctx context.Context, zone catalog.Zone, hours int, generation uint64) (*Cycle, error) {
	cycle, err := c.Start(ctx, zone, hours, generation)
	if err != nil {
		return nil, err
	}
	if _, err := cycle.Wait(ctx); err != nil {
		return cycle, err
	}
	return cycle, nil
}

// Latest returns the most recently published view.
func (c *Coordinator) Latest() (merger.View, bool) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if c.latest == nil {
		return merger.View{}, false
	}
	return *c.latest, true
}

// LastPublished returns the generation of the most recently published view.
func (c *Coordinator) LastPublished() uint64 {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.lastPublished
}

// Cycle returns a tracked cycle. A pending cycle whose generation is no
// longer live is reported as superseded.
func (c *Coordinator) Cycle(generation uint64) (*Cycle, bool) {
	c.mu.Lock()
	cycle, ok := c.cycles[generation]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	if c.superseded(generation) {
		c.supersede(cycle)
	}
	return cycle, true
}

// MatchMode returns the merger's match mode.
func (c *Coordinator) MatchMode() merger.MatchMode {
	return c.merger.MatchMode()
}

func (c *Coordinator) run(ctx context.Context, zone catalog.Zone, cycle *Cycle) {
	gen := cycle.Generation
	ctx, span := c.tracer.Start(ctx, "zonewatch.cycle", trace.WithAttributes(
		attribute.String("zone", zone.Key),
		attribute.Int("hours", cycle.WindowHours),
		attribute.Int64("generation", int64(gen)), //nolint:gosec // generations stay far below MaxInt64
	))
	defer span.End()

	ctx = logging.WithGeneration(logging.WithZone(logging.WithLogger(ctx, c.logger), zone.Key), gen)
	ctx = logging.WithField(ctx, "hours", cycle.WindowHours)
	logger := logging.FromContext(ctx)

	query := metrics.Query{Zone: zone.Name, Hours: cycle.WindowHours, Building: metrics.AllBuildings}
	axes := metrics.Axes()
	results := make(chan metrics.Settlement, len(axes))

	// Each axis settles on its own; a failure never cancels its siblings.
	var wg conc.WaitGroup
	for _, axis := range axes {
		wg.Go(func() {
			results <- c.fetchAxis(ctx, axis, query)
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for s := range results {
		if c.superseded(gen) || !cycle.settle(s) {
			c.recorder.StaleDiscarded(s.Axis)
			logger.Debug().Str("axis", s.Axis.String()).Msg("Discarded settlement of superseded generation")
			c.supersede(cycle)
			continue
		}

		c.recorder.AxisSettled(s.Axis, s.Duration, s.Err)
		if s.Err != nil {
			logger.Warn().Err(s.Err).Str("axis", s.Axis.String()).Msg("Axis fetch failed, using fallback values")
			if c.onAxisFailed != nil {
				c.onAxisFailed(gen, zone.Key, s.Axis, s.Err)
			}
			continue
		}
		logger.Debug().
			Str("axis", s.Axis.String()).
			Int("records", len(s.Records)).
			Dur("duration", s.Duration).
			Msg("Axis settled")
	}

	if cycle.State() != Pending {
		span.SetAttributes(attribute.String("state", Superseded.String()))
		return
	}

	view := c.merger.Build(zone, cycle.WindowHours, gen, cycle.settlements())
	if c.publish(cycle, view, logger) {
		span.SetAttributes(attribute.String("state", Complete.String()))
		return
	}
	span.SetAttributes(attribute.String("state", Superseded.String()))
}

// publish runs the final superseded check and publishes under the publish
// lock. Waiters on the cycle are released only after the publisher ran.
func (c *Coordinator) publish(cycle *Cycle, view merger.View, logger *zerolog.Logger) bool {
	c.publishMu.Lock()
	if c.superseded(cycle.Generation) || cycle.Generation <= c.lastPublished {
		c.publishMu.Unlock()
		c.supersede(cycle)
		return false
	}
	if !cycle.finish(Complete, &view, c.now()) {
		c.publishMu.Unlock()
		return false
	}
	c.latest = &view
	c.lastPublished = cycle.Generation
	c.publishMu.Unlock()
	defer cycle.release()

	logger.Info().
		Int("buildings", len(view.Buildings)).
		Int("failed_axes", len(view.Summary.FailedAxes)).
		Msg("Published view")

	c.recorder.ViewPublished(view)
	c.recorder.CycleFinished(Complete, cycle.Duration())
	c.notify(view)
	return true
}

// notify calls the publisher outside the publish lock, never going backwards.
func (c *Coordinator) notify(view merger.View) {
	if c.publisher == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if view.Generation <= c.lastNotified {
		return
	}
	c.lastNotified = view.Generation
	c.publisher(view)
}

func (c *Coordinator) fetchAxis(ctx context.Context, axis metrics.Axis, q metrics.Query) metrics.Settlement {
	start := c.now()
	ctx = logging.WithAxis(ctx, axis.String())
	ctx, span := c.tracer.Start(ctx, "zonewatch.fetch", trace.WithAttributes(attribute.String("axis", axis.String())))
	defer span.End()

	var (
		records []metrics.Record
		err     error
	)

	if f, ok := c.fetchers[axis]; ok {
		actx, cancel := context.WithTimeout(ctx, c.axisTimeout)
		var pc panics.Catcher
		pc.Try(func() {
			records, err = f.Fetch(actx, q)
		})
		if r := pc.Recovered(); r != nil {
			err = r.AsError()
		}
		if err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", pkgerrors.ErrTimeout, c.axisTimeout, err)
		}
		cancel()
	} else {
		err = errors.New("no fetcher configured")
	}

	if err != nil {
		if !pkgerrors.IsAxisFetch(err) {
			err = pkgerrors.NewAxisFetchError(axis.String(), q.Zone, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "axis fetch failed")
		s := metrics.Failed(axis, err)
		s.Duration = c.now().Sub(start)
		return s
	}

	s := metrics.Ok(axis, records)
	s.Duration = c.now().Sub(start)
	return s
}

func (c *Coordinator) superseded(gen uint64) bool {
	return gen != c.generations.Current()
}

func (c *Coordinator) supersede(cycle *Cycle) {
	if !cycle.finish(Superseded, nil, c.now()) {
		return
	}
	defer cycle.release()

	c.recorder.CycleFinished(Superseded, cycle.Duration())
	c.logger.Debug().
		Uint64("generation", cycle.Generation).
		Str("zone", cycle.ZoneKey).
		Msg("Cycle superseded")
}

// pruneLocked drops the oldest finished cycles beyond the history size.
// Callers hold c.mu.
func (c *Coordinator) pruneLocked() {
	if len(c.order) <= c.history {
		return
	}
	kept := c.order[:0]
	excess := len(c.order) - c.history
	for _, gen := range c.order {
		cy := c.cycles[gen]
		if excess > 0 && cy.State() != Pending {
			delete(c.cycles, gen)
			c.pruned = max(c.pruned, gen)
			excess--
			continue
		}
		kept = append(kept, gen)
	}
	c.order = kept
}

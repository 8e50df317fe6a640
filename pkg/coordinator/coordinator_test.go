package coordinator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/coordinator"
	pkgerrors "github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// respondFunc answers one axis fetch.
type respondFunc func(ctx context.Context, q metrics.Query) ([]metrics.Record, error)

func fetcher(axis metrics.Axis, fn respondFunc) metrics.Fetcher {
	return metrics.FetcherFunc{AxisName: axis, Func: fn}
}

func records(recs ...metrics.Record) respondFunc {
	return func(context.Context, metrics.Query) ([]metrics.Record, error) {
		return recs, nil
	}
}

func failing(err error) respondFunc {
	return func(context.Context, metrics.Query) ([]metrics.Record, error) {
		return nil, err
	}
}

// gatedByZone blocks fetches for one zone name until release is closed.
func gatedByZone(zone string, release <-chan struct{}, fn respondFunc) respondFunc {
	return func(ctx context.Context, q metrics.Query) ([]metrics.Record, error) {
		if q.Zone == zone {
			<-release
		}
		return fn(ctx, q)
	}
}

// countingRecorder counts recorder events.
type countingRecorder struct {
	started, settled, stale, published atomic.Int64
	onSettled                          func(n int64)
}

func (r *countingRecorder) CycleStarted() { r.started.Add(1) }
func (r *countingRecorder) AxisSettled(metrics.Axis, time.Duration, error) {
	n := r.settled.Add(1)
	if r.onSettled != nil {
		r.onSettled(n)
	}
}
func (r *countingRecorder) StaleDiscarded(metrics.Axis)                    { r.stale.Add(1) }
func (r *countingRecorder) CycleFinished(coordinator.State, time.Duration) {}
func (r *countingRecorder) ViewPublished(merger.View)                      { r.published.Add(1) }

// publishLog collects published generations.
type publishLog struct {
	mu   sync.Mutex
	gens []uint64
}

func (p *publishLog) publish(v merger.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gens = append(p.gens, v.Generation)
}

func (p *publishLog) generations() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.gens...)
}

func newCoordinator(t *testing.T, gen *atomic.Uint64, fetchers []metrics.Fetcher, opts ...coordinator.Option) *coordinator.Coordinator {
	t.Helper()
	opts = append([]coordinator.Option{coordinator.WithLogger(logging.NewNopLogger())}, opts...)
	c, err := coordinator.New(coordinator.GenerationFunc(gen.Load), fetchers, opts...)
	require.NoError(t, err)
	return c
}

func waitDone(t *testing.T, cycle *coordinator.Cycle) coordinator.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := cycle.Wait(ctx)
	require.NoError(t, err, "cycle %d did not finish", cycle.Generation)
	return state
}

func TestRefreshPublishesCompleteCycle(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	log := &publishLog{}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, records(metrics.Record{Key: "B1", Value: catalog.ActivityLow})),
		fetcher(metrics.AxisPeakOccupancy, records(metrics.Record{Key: "B1", Value: 12})),
		fetcher(metrics.AxisAvgDwellTime, records(metrics.Record{Key: "B1", Value: 4})),
	}, coordinator.WithPublisher(log.publish))

	_, ok := c.Latest()
	assert.False(t, ok)

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, coordinator.Complete, cycle.State())
	assert.Equal(t, metrics.Axes(), cycle.Settled())

	view, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), view.Generation)
	assert.Equal(t, 3, view.WindowHours)
	assert.True(t, view.Buildings[0].Live())

	cycleView, ok := cycle.View()
	require.True(t, ok)
	assert.Equal(t, view, cycleView)
	assert.Equal(t, []uint64{1}, log.generations())
	assert.Equal(t, uint64(1), c.LastPublished())
}

func TestQueryScope(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)

	var mu sync.Mutex
	var queries []metrics.Query
	capture := func(_ context.Context, q metrics.Query) ([]metrics.Record, error) {
		mu.Lock()
		defer mu.Unlock()
		queries = append(queries, q)
		return nil, nil
	}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, capture),
		fetcher(metrics.AxisPeakOccupancy, capture),
		fetcher(metrics.AxisAvgDwellTime, capture),
	})
	_, err := c.Refresh(context.Background(), catalog.TestZoneB(t), 12, 1)
	require.NoError(t, err)

	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, metrics.Query{Zone: "Zone B", Hours: 12, Building: "All"}, q)
	}
}

func TestZoneAPeakFailureScenario(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)

	var failedAxis atomic.Value
	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, records(
			metrics.Record{Key: "B1", Value: catalog.ActivityMedium},
			metrics.Record{Key: "B3", Value: catalog.ActivityHigh},
		)),
		fetcher(metrics.AxisPeakOccupancy, failing(errors.New("connection reset"))),
		fetcher(metrics.AxisAvgDwellTime, records(
			metrics.Record{Key: "B1", Value: 31},
			metrics.Record{Key: "B3", Value: 44},
		)),
	}, coordinator.WithAxisFailureHandler(func(g uint64, zoneKey string, axis metrics.Axis, err error) {
		assert.Equal(t, uint64(1), g)
		assert.Equal(t, "zone-a", zoneKey)
		assert.True(t, pkgerrors.IsAxisFetch(err))
		failedAxis.Store(axis)
	}))

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)
	require.Equal(t, coordinator.Complete, cycle.State())
	assert.Equal(t, metrics.AxisPeakOccupancy, failedAxis.Load())

	view, _ := c.Latest()
	require.Len(t, view.Buildings, 4)
	for _, b := range view.Buildings {
		assert.Equal(t, merger.SourceFallback, b.Source(metrics.AxisPeakOccupancy), b.Building.ID)
		assert.Equal(t, b.Building.Fallback.PeakOccupancy, b.PeakOccupancy, b.Building.ID)

		matched := b.Building.ID == "B1" || b.Building.ID == "B3"
		want := merger.SourceFallback
		if matched {
			want = merger.SourceLive
		}
		assert.Equal(t, want, b.Source(metrics.AxisActivityLevel), b.Building.ID)
		assert.Equal(t, want, b.Source(metrics.AxisAvgDwellTime), b.Building.ID)
	}

	b3, _ := view.Building("B3")
	assert.Equal(t, catalog.ActivityHigh, b3.ActivityLevel)
	assert.Equal(t, 44, b3.AvgDwellMinutes)
	assert.Equal(t, []metrics.Axis{metrics.AxisPeakOccupancy}, view.Summary.FailedAxes)
}

func TestRapidZoneChangeDiscardsLateResults(t *testing.T) {
	var gen atomic.Uint64
	release := make(chan struct{})
	log := &publishLog{}
	rec := &countingRecorder{}

	live := func(key string, value any) respondFunc {
		return gatedByZone("Zone A", release, records(metrics.Record{Key: key, Value: value}))
	}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, live("B5", catalog.ActivityHigh)),
		fetcher(metrics.AxisPeakOccupancy, live("B5", 300)),
		fetcher(metrics.AxisAvgDwellTime, live("B5", 60)),
	}, coordinator.WithPublisher(log.publish), coordinator.WithRecorder(rec))

	gen.Store(5)
	cycle5, err := c.Start(context.Background(), catalog.TestZoneA(t), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, coordinator.Pending, cycle5.State())

	// The viewer switches to Zone B before generation 5 resolves.
	gen.Store(6)
	cycle6, err := c.Start(context.Background(), catalog.TestZoneB(t), 1, 6)
	require.NoError(t, err)

	assert.Equal(t, coordinator.Superseded, waitDone(t, cycle5))
	assert.Equal(t, coordinator.Complete, waitDone(t, cycle6))

	// Now let generation 5's fetches resolve late.
	close(release)
	assert.Eventually(t, func() bool { return rec.stale.Load() == 3 }, 5*time.Second, 5*time.Millisecond)

	view, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(6), view.Generation)
	assert.Equal(t, "zone-b", view.ZoneKey)
	assert.Equal(t, []uint64{6}, log.generations())

	_, ok = cycle5.View()
	assert.False(t, ok, "superseded cycle must not carry a view")
	assert.Empty(t, cycle5.Settled())
}

func TestGenerationMonotonicWin(t *testing.T) {
	t.Run("newer completes first", func(t *testing.T) {
		var gen atomic.Uint64
		release := make(chan struct{})
		log := &publishLog{}
		rec := &countingRecorder{}
		slowA := gatedByZone("Zone A", release, records())

		c := newCoordinator(t, &gen, []metrics.Fetcher{
			fetcher(metrics.AxisActivityLevel, slowA),
			fetcher(metrics.AxisPeakOccupancy, slowA),
			fetcher(metrics.AxisAvgDwellTime, slowA),
		}, coordinator.WithPublisher(log.publish), coordinator.WithRecorder(rec))

		gen.Store(1)
		g1, err := c.Start(context.Background(), catalog.TestZoneA(t), 24, 1)
		require.NoError(t, err)
		gen.Store(2)
		g2, err := c.Start(context.Background(), catalog.TestZoneB(t), 24, 2)
		require.NoError(t, err)

		waitDone(t, g2)
		close(release)
		waitDone(t, g1)
		assert.Eventually(t, func() bool { return rec.stale.Load() == 3 }, 5*time.Second, 5*time.Millisecond)

		assert.Equal(t, uint64(2), c.LastPublished())
		assert.Equal(t, []uint64{2}, log.generations())
	})

	t.Run("older completes first", func(t *testing.T) {
		var gen atomic.Uint64
		log := &publishLog{}
		fast := records()

		c := newCoordinator(t, &gen, []metrics.Fetcher{
			fetcher(metrics.AxisActivityLevel, fast),
			fetcher(metrics.AxisPeakOccupancy, fast),
			fetcher(metrics.AxisAvgDwellTime, fast),
		}, coordinator.WithPublisher(log.publish))

		gen.Store(1)
		_, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 24, 1)
		require.NoError(t, err)
		gen.Store(2)
		_, err = c.Refresh(context.Background(), catalog.TestZoneB(t), 24, 2)
		require.NoError(t, err)

		view, _ := c.Latest()
		assert.Equal(t, uint64(2), view.Generation)
		assert.Equal(t, []uint64{1, 2}, log.generations())
	})
}

func TestSupersededBetweenSettlementAndPublish(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	log := &publishLog{}

	// The generation moves on right after the final axis passed its own check.
	rec := &countingRecorder{onSettled: func(n int64) {
		if n == 3 {
			gen.Store(2)
		}
	}}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, records()),
		fetcher(metrics.AxisPeakOccupancy, records()),
		fetcher(metrics.AxisAvgDwellTime, records()),
	}, coordinator.WithRecorder(rec), coordinator.WithPublisher(log.publish))

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, coordinator.Superseded, cycle.State())
	assert.Len(t, cycle.Settled(), 3)

	_, ok := c.Latest()
	assert.False(t, ok)
	assert.Empty(t, log.generations())
	assert.Zero(t, rec.published.Load())
}

func TestStaleGenerationIssuesNoFetch(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(9)
	var calls atomic.Int64
	count := func(context.Context, metrics.Query) ([]metrics.Record, error) {
		calls.Add(1)
		return nil, nil
	}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, count),
		fetcher(metrics.AxisPeakOccupancy, count),
		fetcher(metrics.AxisAvgDwellTime, count),
	})

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 8)
	require.NoError(t, err)
	assert.Equal(t, coordinator.Superseded, cycle.State())
	assert.Zero(t, calls.Load())
}

func TestDuplicateGenerationRejected(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	c := newCoordinator(t, &gen, nil)

	_, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)

	_, err = c.Start(context.Background(), catalog.TestZoneA(t), 1, 1)
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateGeneration)
}

func TestMissingFetchersFallBack(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisPeakOccupancy, records(metrics.Record{Key: "B2", Value: 7})),
	})

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)
	view, ok := cycle.View()
	require.True(t, ok)
	assert.Equal(t, []metrics.Axis{metrics.AxisActivityLevel, metrics.AxisAvgDwellTime}, view.Summary.FailedAxes)

	b2, _ := view.Building("B2")
	assert.Equal(t, 7, b2.PeakOccupancy)
}

func TestAxisTimeout(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)

	var timeoutErr atomic.Value
	hang := func(ctx context.Context, _ metrics.Query) ([]metrics.Record, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, records(metrics.Record{Key: "B1", Value: catalog.ActivityLow})),
		fetcher(metrics.AxisPeakOccupancy, hang),
		fetcher(metrics.AxisAvgDwellTime, records()),
	},
		coordinator.WithAxisTimeout(20*time.Millisecond),
		coordinator.WithAxisFailureHandler(func(_ uint64, _ string, _ metrics.Axis, err error) {
			timeoutErr.Store(err)
		}),
	)

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)
	require.Equal(t, coordinator.Complete, cycle.State())

	err, _ = timeoutErr.Load().(error)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTimeout(err))
	assert.True(t, pkgerrors.IsAxisFetch(err))

	view, _ := cycle.View()
	b1, _ := view.Building("B1")
	assert.Equal(t, merger.SourceLive, b1.Source(metrics.AxisActivityLevel))
	assert.Equal(t, merger.SourceFallback, b1.Source(metrics.AxisPeakOccupancy))
}

func TestFetcherPanicIsAxisFailure(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, func(context.Context, metrics.Query) ([]metrics.Record, error) {
			panic("decoder exploded")
		}),
		fetcher(metrics.AxisPeakOccupancy, records(metrics.Record{Key: "B1", Value: 1})),
		fetcher(metrics.AxisAvgDwellTime, records()),
	})

	cycle, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)
	require.Equal(t, coordinator.Complete, cycle.State())

	view, _ := cycle.View()
	assert.Equal(t, []metrics.Axis{metrics.AxisActivityLevel}, view.Summary.FailedAxes)
}

func TestAxisFailureIsLogged(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	tl := logging.NewTestLogger(t)

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisAvgDwellTime, failing(errors.New("bad gateway"))),
	}, coordinator.WithLogger(tl.Logger))

	_, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, 1)
	require.NoError(t, err)

	tl.AssertContains(t, "Axis fetch failed")
	tl.AssertContains(t, `"axis":"avg-dwell-time"`)
	tl.AssertContains(t, `"generation":1`)
	tl.AssertContains(t, "Published view")
}

func TestCycleHistoryIsPruned(t *testing.T) {
	var gen atomic.Uint64
	c := newCoordinator(t, &gen, nil, coordinator.WithHistory(2))

	for g := uint64(1); g <= 4; g++ {
		gen.Store(g)
		_, err := c.Refresh(context.Background(), catalog.TestZoneA(t), 1, g)
		require.NoError(t, err)
	}

	_, ok := c.Cycle(1)
	assert.False(t, ok)
	cycle, ok := c.Cycle(4)
	require.True(t, ok)
	assert.Equal(t, coordinator.Complete, cycle.State())

	_, err := c.Start(context.Background(), catalog.TestZoneA(t), 1, 1)
	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateGeneration)
}

func TestRefreshHonoursCallerContext(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	release := make(chan struct{})
	defer close(release)

	c := newCoordinator(t, &gen, []metrics.Fetcher{
		fetcher(metrics.AxisActivityLevel, gatedByZone("Zone A", release, records())),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	cycle, err := c.Refresh(ctx, catalog.TestZoneA(t), 1, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, cycle)
}

func TestNewValidation(t *testing.T) {
	_, err := coordinator.New(nil, nil)
	assert.True(t, pkgerrors.IsValidationError(err))

	var gen atomic.Uint64
	_, err = coordinator.New(coordinator.GenerationFunc(gen.Load), []metrics.Fetcher{
		fetcher(metrics.AxisPeakOccupancy, records()),
		fetcher(metrics.AxisPeakOccupancy, records()),
	})
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = coordinator.New(coordinator.GenerationFunc(gen.Load), []metrics.Fetcher{
		fetcher("temperature", records()),
	})
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", coordinator.Pending.String())
	assert.Equal(t, "complete", coordinator.Complete.String())
	assert.Equal(t, "superseded", coordinator.Superseded.String())
}

// Package zonewatch provides the main entry point for the zonewatch occupancy
// reconciliation engine. It wires a zone catalog, the filter state and the
// request coordinator into a single client with event hooks and optional
// periodic refresh.
//
// Every accepted filter mutation produces a new generation and starts a
// reconciliation cycle that fetches the three metric axes concurrently.
// Failed axes fall back to catalog values, and results belonging to a
// superseded generation are never published.
//
// Example usage:
//
//	zw, err := zonewatch.New(
//	    zonewatch.WithBaseURL("https://metrics.example.com/api"),
//	    zonewatch.WithAxisTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer zw.AutoRefreshOff()
//
//	zw.OnViewPublished(func(view merger.View) {
//	    log.Printf("generation %d: %d buildings", view.Generation, len(view.Buildings))
//	})
//
//	// Change the filter and wait for the resulting view
//	cycle, err := zw.Apply(ctx, "zone-a", 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := cycle.Wait(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	view, _ := zw.View()
package zonewatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch/internal/sources/endpoints"
	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/coordinator"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/filter"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Viewer provides read access to the published state.
type Viewer interface {
	// Catalog returns the read-only zone catalog.
	Catalog() catalog.Catalog

	// View returns the most recently published view.
	View() (merger.View, bool)

	// Cycle reports a tracked reconciliation cycle by generation.
	Cycle(generation uint64) (*coordinator.Cycle, bool)

	// MatchMode reports how live records are matched to buildings.
	MatchMode() merger.MatchMode
}

// Client manages the filter state and reconciliation cycles with event hooks.
type Client interface {

	// Viewer provides read access to catalog and views
	Viewer

	// Filterer mutates the filter and starts cycles
	Filterer

	// AutoRefresher provides access to periodic refresh controls
	AutoRefresher

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	catalog catalog.Catalog
	filter  *filter.State
	coord   *coordinator.Coordinator
	logger  *zerolog.Logger

	// startMu orders filter mutations with the cycles they start
	startMu sync.Mutex

	// auto refresh state
	refreshMu     sync.Mutex
	refreshCancel context.CancelFunc
	refreshDone   chan struct{}

	hooks *hooks // Event hooks for filter changes and published views
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		logger:  o.logger,
		hooks:   newHooks(),
	}

	if c.catalog, err = o.resolveCatalog(); err != nil {
		return nil, err
	}

	filterOpts := []filter.Option{filter.WithWindows(o.windows...)}
	if o.initialZone != "" || o.initialHours != 0 {
		filterOpts = append(filterOpts, filter.WithInitial(o.initialZone, o.initialHours))
	}
	if c.filter, err = filter.New(c.catalog, filterOpts...); err != nil {
		return nil, fmt.Errorf("creating filter state: %w", err)
	}

	fetchers, err := o.resolveFetchers()
	if err != nil {
		return nil, err
	}

	c.coord, err = coordinator.New(c.filter, fetchers,
		coordinator.WithMerger(merger.New(merger.WithMatchMode(o.matchMode))),
		coordinator.WithAxisTimeout(o.axisTimeout),
		coordinator.WithRecorder(o.recorder),
		coordinator.WithLogger(o.logger),
		coordinator.WithHistory(o.history),
		coordinator.WithPublisher(c.hooks.triggerViewPublished),
		coordinator.WithAxisFailureHandler(c.hooks.triggerAxisFailed),
	)
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}

	snap := c.filter.Snapshot()
	c.logger.Debug().
		Int("zones", len(c.catalog.ListZones())).
		Int("fetchers", len(fetchers)).
		Str("zone", snap.ZoneKey).
		Int("hours", snap.WindowHours).
		Str("match_by", string(o.matchMode)).
		Msg("Client created")

	if o.autoRefreshEnabled {
		if err := c.AutoRefreshOn(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Catalog returns the read-only zone catalog.
func (c *client) Catalog() catalog.Catalog {
	return c.catalog
}

// View returns the most recently published view.
func (c *client) View() (merger.View, bool) {
	return c.coord.Latest()
}

// Cycle reports a tracked reconciliation cycle by generation.
func (c *client) Cycle(generation uint64) (*coordinator.Cycle, bool) {
	return c.coord.Cycle(generation)
}

// MatchMode reports how live records are matched to buildings.
func (c *client) MatchMode() merger.MatchMode {
	return c.coord.MatchMode()
}

// resolveCatalog returns the configured catalog, a catalog file, or the embedded default.
func (o *options) resolveCatalog() (catalog.Catalog, error) {
	switch {
	case o.catalog != nil:
		return o.catalog, nil
	case o.catalogPath != "":
		return catalog.LoadFile(o.catalogPath)
	default:
		return catalog.Embedded()
	}
}

// resolveFetchers returns explicit fetchers or builds HTTP fetchers for the base URL.
func (o *options) resolveFetchers() ([]metrics.Fetcher, error) {
	if len(o.fetchers) > 0 {
		return o.fetchers, nil
	}
	if o.baseURL == "" {
		return nil, errors.NewConfigError("zonewatch", "no metric source configured: set a base URL or fetchers", nil)
	}

	var epOpts []endpoints.Option
	if o.apiKey != "" {
		epOpts = append(epOpts, endpoints.WithAPIKey(o.apiKey, o.authScheme))
	}
	src, err := endpoints.New(o.baseURL, epOpts...)
	if err != nil {
		return nil, err
	}
	return src.Fetchers(), nil
}

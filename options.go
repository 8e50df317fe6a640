package zonewatch

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/constants"
	"github.com/agentstation/zonewatch/pkg/coordinator"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Option is a function that configures a zonewatch Client.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	catalog     catalog.Catalog
	catalogPath string

	fetchers   []metrics.Fetcher
	baseURL    string
	apiKey     string
	authScheme string

	matchMode   merger.MatchMode
	axisTimeout time.Duration
	history     int
	recorder    coordinator.Recorder
	logger      *zerolog.Logger

	windows      []int
	initialZone  string
	initialHours int

	autoRefreshEnabled  bool
	autoRefreshInterval time.Duration
}

// defaults returns the default client options.
func defaults() *options {
	return &options{
		authScheme:          "bearer",
		matchMode:           merger.MatchByID,
		axisTimeout:         constants.DefaultAxisTimeout,
		history:             constants.MaxCycleHistory,
		logger:              logging.Default(),
		windows:             constants.DefaultWindows(),
		autoRefreshInterval: constants.DefaultRefreshInterval,
	}
}

// apply applies the given options in order.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithCatalog configures the zone catalog.
func WithCatalog(cat catalog.Catalog) Option {
	return func(o *options) error {
		if cat == nil {
			return errors.NewValidationError("catalog", nil, "catalog cannot be nil")
		}
		o.catalog = cat
		return nil
	}
}

// WithCatalogPath loads the zone catalog from a YAML file instead of the embedded one.
func WithCatalogPath(path string) Option {
	return func(o *options) error {
		o.catalogPath = path
		return nil
	}
}

// WithFetchers configures the per-axis metric fetchers directly.
// Explicit fetchers take precedence over WithBaseURL.
func WithFetchers(fetchers ...metrics.Fetcher) Option {
	return func(o *options) error {
		o.fetchers = append(o.fetchers, fetchers...)
		return nil
	}
}

// WithBaseURL configures the HTTP metrics service used for all three axes.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		o.baseURL = baseURL
		return nil
	}
}

// WithAPIKey configures authentication for the metrics service.
// The scheme is "bearer", "header:<name>", "query:<param>" or "none".
func WithAPIKey(apiKey, scheme string) Option {
	return func(o *options) error {
		o.apiKey = apiKey
		if scheme != "" {
			o.authScheme = scheme
		}
		return nil
	}
}

// WithMatchBy configures how live records are matched to catalog buildings ("id" or "name").
func WithMatchBy(mode string) Option {
	return func(o *options) error {
		m, err := merger.ParseMatchMode(mode)
		if err != nil {
			return err
		}
		o.matchMode = m
		return nil
	}
}

// WithAxisTimeout bounds every axis fetch.
func WithAxisTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("axis_timeout", d, "timeout must be positive")
		}
		o.axisTimeout = d
		return nil
	}
}

// WithWindows restricts the accepted window sizes in hours.
func WithWindows(hours ...int) Option {
	return func(o *options) error {
		o.windows = hours
		return nil
	}
}

// WithInitialFilter configures the filter before the first mutation.
func WithInitialFilter(zoneKey string, hours int) Option {
	return func(o *options) error {
		o.initialZone = zoneKey
		o.initialHours = hours
		return nil
	}
}

// WithRecorder configures the measurement sink for reconciliation cycles.
func WithRecorder(r coordinator.Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// WithHistory configures how many finished cycles stay queryable.
func WithHistory(n int) Option {
	return func(o *options) error {
		o.history = n
		return nil
	}
}

// WithLogger configures the client logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) error {
		if l != nil {
			o.logger = l
		}
		return nil
	}
}

// WithAutoRefresh configures whether periodic refresh starts with the client.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefreshEnabled = enabled
		return nil
	}
}

// WithAutoRefreshInterval configures how often the current filter is re-applied.
func WithAutoRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoRefreshInterval = interval
		return nil
	}
}

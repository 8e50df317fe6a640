// Package app provides the application context and dependency management
// for the zonewatch CLI. It centralizes configuration, logging and the
// lifecycle of the clients commands create.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/internal/cmd/application"
	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/errors"
)

// App represents the zonewatch application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Clients handed out to commands; stopped on Shutdown
	mu      sync.Mutex
	clients []zonewatch.Client
	catalog catalog.Catalog
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Catalog returns the configured catalog, loading it once.
func (a *App) Catalog() (catalog.Catalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil {
		return a.catalog, nil
	}

	var (
		cat catalog.Catalog
		err error
	)
	if a.config.CatalogPath != "" {
		cat, err = catalog.LoadFile(a.config.CatalogPath)
	} else {
		cat, err = catalog.Embedded()
	}
	if err != nil {
		return nil, errors.WrapResource("load", "catalog", a.config.CatalogPath, err)
	}

	a.catalog = cat
	return cat, nil
}

// Client creates a zonewatch client from the configuration. Every client
// is tracked so Shutdown can stop its auto-refresh loop.
func (a *App) Client(opts ...zonewatch.Option) (zonewatch.Client, error) {
	cat, err := a.Catalog()
	if err != nil {
		return nil, err
	}

	all := append(a.clientOptions(cat), opts...)
	client, err := zonewatch.New(all...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	a.mu.Lock()
	a.clients = append(a.clients, client)
	a.mu.Unlock()

	return client, nil
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	clients := a.clients
	a.clients = nil
	a.mu.Unlock()

	for _, c := range clients {
		if err := c.AutoRefreshOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto-refresh during shutdown")
		}
	}
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions(cat catalog.Catalog) []zonewatch.Option {
	opts := []zonewatch.Option{
		zonewatch.WithCatalog(cat),
		zonewatch.WithLogger(a.logger),
	}

	if a.config.BaseURL != "" {
		opts = append(opts, zonewatch.WithBaseURL(a.config.BaseURL))
	}
	if a.config.APIKey != "" {
		opts = append(opts, zonewatch.WithAPIKey(a.config.APIKey, a.config.AuthScheme))
	}
	if a.config.MatchBy != "" {
		opts = append(opts, zonewatch.WithMatchBy(a.config.MatchBy))
	}
	if a.config.AxisTimeout > 0 {
		opts = append(opts, zonewatch.WithAxisTimeout(a.config.AxisTimeout))
	}

	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithCatalog sets the catalog (useful for testing).
func WithCatalog(cat catalog.Catalog) Option {
	return func(a *App) error {
		a.catalog = cat
		return nil
	}
}

// Package serve provides the HTTP server command for the zonewatch CLI.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/internal/cmd/application"
	"github.com/agentstation/zonewatch/internal/cmd/emoji"
	"github.com/agentstation/zonewatch/internal/server"
	"github.com/agentstation/zonewatch/internal/telemetry"
	"github.com/agentstation/zonewatch/pkg/constants"
)

// Settings carries configuration the serve command reads from the app config.
type Settings struct {
	OTLPEndpoint        string
	AutoRefreshInterval time.Duration
}

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application, settings Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Start the zonewatch REST API server.

Features:
  - Catalog endpoints for zones and their buildings
  - PUT /filter starts a reconciliation cycle (optionally waiting for it)
  - GET /view serves the latest published view with filtering and sorting
  - Periodic refresh of the current filter
  - In-memory caching keyed by generation
  - Rate limiting (requests per minute per IP)
  - API key authentication (optional)
  - CORS support for web applications
  - Prometheus metrics and OTLP tracing
  - Graceful shutdown with connection draining`,
		Example: `  # Start on default port 8080
  zonewatch serve --base-url https://metrics.example.com/api

  # Start on custom port with authentication
  zonewatch serve --port 3000 --auth --api-key secret

  # Refresh every 30 seconds and start on zone-b
  zonewatch serve --refresh 30s --zone zone-b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, args, app)
		},
	}

	// Server configuration flags
	cmd.Flags().Int("port", constants.DefaultPort, "Server port")
	cmd.Flags().String("host", "localhost", "Bind address")

	// CORS flags
	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	// Authentication flags
	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", "X-API-Key", "Authentication header name")
	cmd.Flags().String("api-key", "", "API key clients must present (default $ZONEWATCH_API_KEY)")

	// Performance flags
	cmd.Flags().Int("rate-limit", constants.DefaultRateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Int("cache-ttl", int(constants.CacheTTL.Seconds()), "Cache TTL in seconds")
	cmd.Flags().Bool("compress", true, "Gzip responses")

	// Timeout flags
	defaults := server.DefaultConfig()
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Duration("wait-timeout", defaults.WaitTimeout, "Maximum wait for PUT /filter?wait=true")

	// Engine flags
	cmd.Flags().String("base-url", "", "Metrics API base URL (default $ZONEWATCH_BASE_URL)")
	cmd.Flags().String("zone", "", "Initial zone key (default is the first catalog zone)")
	cmd.Flags().Int("hours", constants.DefaultWindowHours, "Initial time window in hours")
	cmd.Flags().Duration("refresh", settings.AutoRefreshInterval, "Refresh interval for the current filter (0 to disable)")

	// Features flags
	cmd.Flags().Bool("metrics", true, "Enable metrics endpoint")
	cmd.Flags().String("prefix", "/api/v1", "API path prefix")
	cmd.Flags().String("otlp-endpoint", settings.OTLPEndpoint, "OTLP/HTTP traces endpoint (empty disables tracing)")

	return cmd
}

// runServer starts the API server.
func runServer(cmd *cobra.Command, _ []string, app application.Application) error {
	cfg := parseConfig(cmd)
	logger := app.Logger()
	ctx := cmd.Context()

	shutdownTracing, err := telemetry.SetupTracing(ctx, "zonewatch", mustGetString(cmd, "otlp-endpoint"))
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("Trace flush failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	refresh := mustGetDuration(cmd, "refresh")
	opts := []zonewatch.Option{
		zonewatch.WithRecorder(telemetry.NewRecorder(reg)),
		zonewatch.WithAutoRefresh(refresh > 0),
	}
	if refresh > 0 {
		opts = append(opts, zonewatch.WithAutoRefreshInterval(refresh))
	}
	if baseURL := mustGetString(cmd, "base-url"); baseURL != "" {
		opts = append(opts, zonewatch.WithBaseURL(baseURL))
	}

	client, err := app.Client(opts...)
	if err != nil {
		return err
	}

	srv, err := server.New(client, cfg, logger, server.WithGatherer(reg))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Kick off the first cycle so /view has data shortly after startup
	zoneKey := mustGetString(cmd, "zone")
	if zoneKey == "" {
		zoneKey = client.Filter().ZoneKey
	}
	cycle, err := client.Apply(ctx, zoneKey, mustGetInt(cmd, "hours"))
	if err != nil {
		return err
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Str("zone", cycle.ZoneKey).
		Int("hours", cycle.WindowHours).
		Dur("refresh", refresh).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting API server")

	return startWithGracefulShutdown(ctx, srv.HTTPServer(), srv, client, logger)
}

// parseConfig parses command flags into server configuration.
func parseConfig(cmd *cobra.Command) server.Config {
	cfg := server.DefaultConfig()

	cfg.Port = mustGetInt(cmd, "port")
	cfg.Host = mustGetString(cmd, "host")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.CORSEnabled = mustGetBool(cmd, "cors")
	cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	cfg.AuthEnabled = mustGetBool(cmd, "auth")
	cfg.AuthHeader = mustGetString(cmd, "auth-header")
	cfg.APIKey = mustGetString(cmd, "api-key")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.CacheTTL = time.Duration(mustGetInt(cmd, "cache-ttl")) * time.Second
	cfg.Compression = mustGetBool(cmd, "compress")
	cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.WaitTimeout = mustGetDuration(cmd, "wait-timeout")
	cfg.MetricsEnabled = mustGetBool(cmd, "metrics")

	// CORS origins imply CORS
	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}

	// Override with environment variables
	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		if p, err := parsePort(envPort); err == nil {
			cfg.Port = p
		}
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		cfg.Host = envHost
	}

	return cfg
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown runs the HTTP server until ctx is cancelled,
// then drains connections and stops background refresh.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, client zonewatch.Client, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Msg("HTTP server listening")

		fmt.Printf("%s API server listening on %s\n", emoji.Success, httpServer.Addr)
		fmt.Println("   Press Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = client.AutoRefreshOff()
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Printf("\n%s Shutting down API server...\n", emoji.Stop)

		// Fresh context: the parent is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := client.AutoRefreshOff(); err != nil {
			logger.Warn().Err(err).Msg("Stopping auto-refresh failed")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		fmt.Printf("%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

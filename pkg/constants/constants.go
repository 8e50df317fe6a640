// Package constants provides shared constants used throughout the zonewatch codebase.
// This includes timeouts, limits, file permissions, and default filter values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to metric endpoints
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAxisTimeout bounds a single axis fetch within a reconciliation cycle
	DefaultAxisTimeout = 10 * time.Second

	// DefaultRefreshInterval is the default interval between automatic refreshes
	DefaultRefreshInterval = 1 * time.Minute

	// RefreshContextTimeout is the timeout for each automatic refresh cycle
	RefreshContextTimeout = 30 * time.Second

	// ShutdownTimeout is how long the server waits for in-flight requests on shutdown
	ShutdownTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Minute
)

// File permission constants
const (
	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxCycleHistory is how many reconciliation cycles the coordinator retains
	MaxCycleHistory = 32

	// MaxResponseBytes caps the size of a single axis response body
	MaxResponseBytes = 4 << 20

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections = 100

	// MaxConnectionsPerHost is the maximum number of connections per host
	MaxConnectionsPerHost = 10
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute per client on the HTTP API
	DefaultRateLimit = 100
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached catalog responses
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Default values
const (
	// DefaultWindowHours is the time window selected at startup
	DefaultWindowHours = 24

	// DefaultPort is the default HTTP API port
	DefaultPort = 8080
)

// DefaultWindows returns the selectable time windows in hours, ascending.
func DefaultWindows() []int {
	return []int{1, 3, 5, 12, 24}
}

package server

import (
	"time"

	"github.com/agentstation/zonewatch/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Performance settings
	RateLimit   int // Requests per minute per IP (0 to disable)
	CacheTTL    time.Duration
	Compression bool

	// WaitTimeout bounds PUT /filter?wait=true
	WaitTimeout time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           constants.DefaultPort,
		PathPrefix:     "/api/v1",
		CORSEnabled:    false,
		CORSOrigins:    []string{},
		AuthEnabled:    false,
		AuthHeader:     "X-API-Key",
		RateLimit:      constants.DefaultRateLimit,
		CacheTTL:       constants.CacheTTL,
		Compression:    true,
		WaitTimeout:    constants.DefaultAxisTimeout + 5*time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   constants.DefaultAxisTimeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

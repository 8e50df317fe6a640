package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/zonewatch/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string

	// Config file
	ConfigFile string

	// Engine configuration
	CatalogPath         string
	BaseURL             string
	APIKey              string
	AuthScheme          string
	MatchBy             string
	AxisTimeout         time.Duration
	AutoRefreshInterval time.Duration

	// Tracing
	OTLPEndpoint string

	// Logging configuration
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (ZONEWATCH_ prefix)
// 3. .env files
// 4. Config file (~/.zonewatch.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("zonewatch")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("auth_scheme", "bearer")
	v.SetDefault("match_by", "id")
	v.SetDefault("axis_timeout", constants.DefaultAxisTimeout)
	v.SetDefault("auto_refresh_interval", constants.DefaultRefreshInterval)

	// Try to read config file if it exists
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".zonewatch")
	}

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		CatalogPath:         v.GetString("catalog"),
		BaseURL:             v.GetString("base_url"),
		APIKey:              v.GetString("api_key"),
		AuthScheme:          v.GetString("auth_scheme"),
		MatchBy:             v.GetString("match_by"),
		AxisTimeout:         v.GetDuration("axis_timeout"),
		AutoRefreshInterval: v.GetDuration("auto_refresh_interval"),

		OTLPEndpoint: firstNonEmpty(v.GetString("otlp_endpoint"), os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")),

		// Logging configuration
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, catalogPath string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if catalogPath != "" {
		c.CatalogPath = catalogPath
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

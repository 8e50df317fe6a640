package serve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/zonewatch/internal/cmd/application"
)

func TestParseConfig(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, Settings{AutoRefreshInterval: time.Minute})
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9090",
		"--cors-origins", "https://a.example,https://b.example",
		"--rate-limit", "0",
		"--cache-ttl", "10",
		"--compress=false",
	}))

	cfg := parseConfig(cmd)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Compression)
	assert.Equal(t, "/api/v1", cfg.PathPrefix)

	refresh, err := cmd.Flags().GetDuration("refresh")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, refresh)
}

func TestParseConfigEnvOverride(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("HTTP_HOST", "0.0.0.0")

	cmd := NewCommand(&application.Mock{}, Settings{})
	require.NoError(t, cmd.ParseFlags(nil))

	cfg := parseConfig(cmd)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestParsePort(t *testing.T) {
	p, err := parsePort("8081")
	require.NoError(t, err)
	assert.Equal(t, 8081, p)

	_, err = parsePort("0")
	assert.Error(t, err)
	_, err = parsePort("http")
	assert.Error(t, err)
}

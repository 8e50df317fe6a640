// Package handlers provides HTTP request handlers for the zonewatch API.
package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/internal/server/cache"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client      zonewatch.Client
	cache       *cache.Cache
	logger      *zerolog.Logger
	startTime   time.Time
	waitTimeout time.Duration
}

// New creates a new Handlers instance. waitTimeout bounds PUT /filter?wait=true.
func New(client zonewatch.Client, cache *cache.Cache, logger *zerolog.Logger, waitTimeout time.Duration) *Handlers {
	return &Handlers{
		client:      client,
		cache:       cache,
		logger:      logger,
		startTime:   time.Now(),
		waitTimeout: waitTimeout,
	}
}

// Package server provides the HTTP server for the zonewatch API.
//
// This file contains general API documentation annotations for Swag/OpenAPI generation.
// Individual endpoint annotations live in the handler files.
package server

// @title zonewatch API
// @version 1.0
// @description Read and poll API over the zonewatch occupancy reconciliation engine.
// @description
// @description Every filter change starts a reconciliation cycle that fetches activity,
// @description peak occupancy and dwell time concurrently. Failed axes fall back to
// @description catalog values; results of superseded generations are never published.
//
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for authentication (optional, configurable)

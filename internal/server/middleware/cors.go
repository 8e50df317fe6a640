package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	AllowAll       bool
}

// DefaultCORSConfig returns the default CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", RequestIDHeader},
		AllowAll:       false,
	}
}

// CORS middleware adds CORS headers to responses and answers preflight requests.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	origins := config.AllowedOrigins
	if config.AllowAll || len(origins) == 0 {
		origins = []string{"*"}
	}

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods(config.AllowedMethods),
		handlers.AllowedHeaders(config.AllowedHeaders),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
		handlers.MaxAge(86400), // 24 hours
	)
}

// Compress gzip or deflate encodes responses for clients that accept it.
func Compress() func(http.Handler) http.Handler {
	return handlers.CompressHandler
}

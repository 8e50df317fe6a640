package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled     bool
	APIKey      string
	HeaderName  string
	PublicPaths []string
}

// DefaultAuthConfig returns default authentication configuration.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:     false,
		APIKey:      os.Getenv("ZONEWATCH_API_KEY"),
		HeaderName:  "X-API-Key",
		PublicPaths: []string{"/health", "/api/v1/health", "/api/v1/ready", "/metrics"},
	}
}

// Auth middleware validates API keys for protected endpoints.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || r.Method == http.MethodOptions || slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r, config)

			if apiKey == "" || config.APIKey == "" ||
				subtle.ConstantTimeCompare([]byte(apiKey), []byte(config.APIKey)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", apiKey != "").
					Msg("Authentication failed")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":null,"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key","details":"Provide a valid API key in the ` + config.HeaderName + ` header"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKey extracts the API key from the request.
func extractAPIKey(r *http.Request, config AuthConfig) string {
	// Try custom header first (X-API-Key)
	if apiKey := r.Header.Get(config.HeaderName); apiKey != "" {
		return apiKey
	}

	// Support both "Bearer <key>" and raw key
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

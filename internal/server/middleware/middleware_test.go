package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/zonewatch/pkg/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("first"), mark("second"), mark("third"))(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRequestIDAndLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.RequestID(r.Context())
		logging.FromContext(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})
	h := Chain(RequestID(), Logger(tl.Logger))(inner)

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seenID)
		tl.AssertContains(t, `"request_id":"`+id+`"`)
		tl.AssertContains(t, `"status":418`)
		tl.AssertContains(t, "inside handler")
	})

	t.Run("reuses a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)
	h := Recovery(tl.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	tl.AssertContains(t, "Panic recovered")
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("limits per ip", func(t *testing.T) {
		rl := NewRateLimiter(2, &logger)
		defer rl.Stop()
		h := RateLimit(rl)(okHandler())

		codes := make([]int, 0, 3)
		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
			if rec.Code == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
				assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
			}
		}
		assert.Equal(t, []int{200, 200, 429}, codes)

		other := httptest.NewRequest(http.MethodGet, "/", nil)
		other.RemoteAddr = "10.0.0.2:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, other)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("port does not change identity", func(t *testing.T) {
		rl := NewRateLimiter(1, &logger)
		defer rl.Stop()
		ok, _ := rl.allow(clientIP(&http.Request{RemoteAddr: "10.0.0.1:1"}))
		assert.True(t, ok)
		ok, _ = rl.allow(clientIP(&http.Request{RemoteAddr: "10.0.0.1:2"}))
		assert.False(t, ok)
	})

	t.Run("first forwarded hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", clientIP(req))
	})

	t.Run("concurrent", func(t *testing.T) {
		rl := NewRateLimiter(50, &logger)
		defer rl.Stop()

		var allowed sync.WaitGroup
		var mu sync.Mutex
		count := 0
		for range 100 {
			allowed.Add(1)
			go func() {
				defer allowed.Done()
				if ok, _ := rl.allow("10.0.0.9"); ok {
					mu.Lock()
					count++
					mu.Unlock()
				}
			}()
		}
		allowed.Wait()
		assert.Equal(t, 50, count)
	})
}

func TestAuth(t *testing.T) {
	logger := zerolog.Nop()
	cfg := DefaultAuthConfig()
	cfg.Enabled = true
	cfg.APIKey = "secret"
	h := Auth(cfg, &logger)(okHandler())

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"public path", "/health", nil, http.StatusOK},
		{"missing key", "/api/v1/view", nil, http.StatusUnauthorized},
		{"wrong key", "/api/v1/view", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/api/v1/view", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer key", "/api/v1/view", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Auth(DefaultAuthConfig(), &logger)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://dash.example.com"}
	h := CORS(cfg)(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
		req.Header.Set("Origin", "https://dash.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/filter", nil)
		req.Header.Set("Origin", "https://dash.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCompress(t *testing.T) {
	body := strings.Repeat("zone-a ", 200)
	h := Compress()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

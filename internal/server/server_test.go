package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/internal/telemetry"
	"github.com/agentstation/zonewatch/pkg/catalog"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// envelope mirrors response.Response with raw data for per-test decoding.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	*httptest.Server
	srv     *Server
	client  zonewatch.Client
	fetches *atomic.Int64
}

func newTestServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()
	return newGatedTestServer(t, mutate, "", nil)
}

// newGatedTestServer holds every fetch for gatedZone (a zone name) until gate
// is closed or the axis deadline passes.
func newGatedTestServer(t *testing.T, mutate func(*Config), gatedZone string, gate <-chan struct{}) *testServer {
	t.Helper()

	var fetches atomic.Int64
	answer := func(value any) func(context.Context, metrics.Query) ([]metrics.Record, error) {
		return func(ctx context.Context, q metrics.Query) ([]metrics.Record, error) {
			fetches.Add(1)
			if gate != nil && q.Zone == gatedZone {
				select {
				case <-gate:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return []metrics.Record{{Key: "B1", Value: value}, {Key: "B5", Value: value}}, nil
		}
	}

	reg := prometheus.NewRegistry()
	client, err := zonewatch.New(
		zonewatch.WithCatalog(catalog.TestCatalog(t)),
		zonewatch.WithLogger(logging.NewNopLogger()),
		zonewatch.WithRecorder(telemetry.NewRecorder(reg)),
		zonewatch.WithFetchers(
			metrics.FetcherFunc{AxisName: metrics.AxisActivityLevel, Func: answer(catalog.ActivityLow)},
			metrics.FetcherFunc{AxisName: metrics.AxisPeakOccupancy, Func: answer(42)},
			metrics.FetcherFunc{AxisName: metrics.AxisAvgDwellTime, Func: answer(7)},
		),
	)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(client, cfg, logging.NewNopLogger(), WithGatherer(reg))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return &testServer{Server: ts, srv: srv, client: client, fetches: &fetches}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)

	status, _ := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)

	_, err := ts.client.Refresh(context.Background())
	require.NoError(t, err)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/ready", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestZones(t *testing.T) {
	ts := newTestServer(t, nil)

	status, env := ts.do(t, http.MethodGet, "/api/v1/zones", "")
	require.Equal(t, http.StatusOK, status)
	var zones struct {
		Zones []struct {
			Key       string `json:"key"`
			Buildings int    `json:"buildings"`
		} `json:"zones"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &zones))
	assert.Equal(t, 2, zones.Count)
	assert.Equal(t, "zone-a", zones.Zones[0].Key)
	assert.Equal(t, 4, zones.Zones[0].Buildings)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/zones/zone-b/buildings", "")
	assert.Equal(t, http.StatusOK, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/zones/zone-x/buildings", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestPutFilter(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("invalid window issues no fetch", func(t *testing.T) {
		status, env := ts.do(t, http.MethodPut, "/api/v1/filter", `{"zone":"zone-a","hours":2}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)
		assert.Zero(t, ts.fetches.Load())
	})

	t.Run("unknown zone", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPut, "/api/v1/filter", `{"zone":"zone-x"}`)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("bad body", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodPut, "/api/v1/filter", `{"zone":`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("accepted", func(t *testing.T) {
		status, env := ts.do(t, http.MethodPut, "/api/v1/filter", `{"zone":"zone-b","window":"3h"}`)
		require.Equal(t, http.StatusAccepted, status)
		var info struct {
			Generation uint64 `json:"generation"`
			Zone       string `json:"zone"`
			Hours      int    `json:"hours"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &info))
		assert.Equal(t, uint64(1), info.Generation)
		assert.Equal(t, "zone-b", info.Zone)
		assert.Equal(t, 3, info.Hours)

		require.Eventually(t, func() bool {
			status, _ := ts.do(t, http.MethodGet, "/api/v1/cycles/1", "")
			if status != http.StatusOK {
				return false
			}
			_, ok := ts.client.View()
			return ok
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("wait", func(t *testing.T) {
		status, env := ts.do(t, http.MethodPut, "/api/v1/filter?wait=true", `{"zone":"zone-a","hours":1}`)
		require.Equal(t, http.StatusOK, status)
		var info struct {
			Generation uint64 `json:"generation"`
			State      string `json:"state"`
			View       struct {
				Generation uint64 `json:"generation"`
				Buildings  []any  `json:"buildings"`
			} `json:"view"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &info))
		assert.Equal(t, uint64(2), info.Generation)
		assert.Equal(t, "complete", info.State)
		assert.Equal(t, uint64(2), info.View.Generation)
		assert.Len(t, info.View.Buildings, 4)
	})

	t.Run("get filter", func(t *testing.T) {
		status, env := ts.do(t, http.MethodGet, "/api/v1/filter", "")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(env.Data), `"zone":"zone-a"`)
		assert.Contains(t, string(env.Data), `"generation":2`)
	})

	t.Run("unknown cycle", func(t *testing.T) {
		status, _ := ts.do(t, http.MethodGet, "/api/v1/cycles/99", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestPutFilterWait(t *testing.T) {
	t.Run("superseded while waiting", func(t *testing.T) {
		gate := make(chan struct{})
		ts := newGatedTestServer(t, nil, "Zone A", gate)
		t.Cleanup(func() { close(gate) })

		type result struct {
			status int
			code   string
			err    error
		}
		done := make(chan result, 1)
		go func() {
			req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/filter?wait=true", strings.NewReader(`{"zone":"zone-a"}`))
			if err != nil {
				done <- result{err: err}
				return
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				done <- result{err: err}
				return
			}
			defer resp.Body.Close()
			var env envelope
			err = json.NewDecoder(resp.Body).Decode(&env)
			r := result{status: resp.StatusCode, err: err}
			if env.Error != nil {
				r.code = env.Error.Code
			}
			done <- r
		}()

		require.Eventually(t, func() bool {
			return ts.client.Filter().Generation == 1
		}, 5*time.Second, 5*time.Millisecond)

		status, _ := ts.do(t, http.MethodPut, "/api/v1/filter", `{"zone":"zone-b"}`)
		require.Equal(t, http.StatusAccepted, status)

		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.Equal(t, http.StatusConflict, r.status)
			assert.Equal(t, "CONFLICT", r.code)
		case <-time.After(5 * time.Second):
			t.Fatal("waiting request did not return after the newer filter was applied")
		}
	})

	t.Run("wait timeout", func(t *testing.T) {
		gate := make(chan struct{})
		ts := newGatedTestServer(t, func(c *Config) {
			c.WaitTimeout = 50 * time.Millisecond
		}, "Zone A", gate)
		t.Cleanup(func() { close(gate) })

		status, env := ts.do(t, http.MethodPut, "/api/v1/filter?wait=true", `{"zone":"zone-a"}`)
		assert.Equal(t, http.StatusGatewayTimeout, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "TIMEOUT", env.Error.Code)
	})
}

func TestGetView(t *testing.T) {
	ts := newTestServer(t, nil)

	status, _ := ts.do(t, http.MethodGet, "/api/v1/view", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/filter?wait=true", `{"zone":"zone-a","hours":1}`)
	require.Equal(t, http.StatusOK, status)

	status, env := ts.do(t, http.MethodGet, "/api/v1/view?building=B1", "")
	require.Equal(t, http.StatusOK, status)
	var view struct {
		Generation uint64 `json:"generation"`
		Buildings  []struct {
			PeakOccupancy int `json:"peak_occupancy"`
			Building      struct {
				ID string `json:"id"`
			} `json:"building"`
		} `json:"buildings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Buildings, 1)
	assert.Equal(t, "B1", view.Buildings[0].Building.ID)
	assert.Equal(t, 42, view.Buildings[0].PeakOccupancy)
	assert.Equal(t, 1, ts.srv.Cache().GetStats().Views)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/view?source=fallback&sort=peak&order=desc", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/view?building=B9", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/view?sort=colour", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoutingErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	status, env := ts.do(t, http.MethodDelete, "/api/v1/filter", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "METHOD_NOT_ALLOWED", env.Error.Code)

	status, env = ts.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	_, err := ts.client.Refresh(context.Background())
	require.NoError(t, err)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.Contains(body, []byte("zonewatch_cycles_started_total 1")), string(body))
}

func TestAuthAndRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *Config) {
		c.AuthEnabled = true
		c.APIKey = "secret"
		c.RateLimit = 2
	})

	status, _ := ts.do(t, http.MethodGet, "/api/v1/zones", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/zones", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "third request from the same ip")
}

// Package endpoints implements metric fetchers for the three read-only
// occupancy endpoints. Each endpoint is parameterised identically:
//
//	GET {base}/activity-level?zone=<name>&hours=<n>&building=All
//	GET {base}/peak-occupancy?zone=<name>&hours=<n>&building=All
//	GET {base}/avg-dwell-time?zone=<name>&hours=<n>&building=All
//
// Any transport error, non-2xx status or undecodable body is returned as
// an AxisFetchError; individual records that lack a key or value are kept
// and left for the merger to drop and count.
package endpoints

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/zonewatch/internal/transport"
	"github.com/agentstation/zonewatch/pkg/errors"
	"github.com/agentstation/zonewatch/pkg/logging"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

// Client fetches metric records from an endpoint base URL.
type Client struct {
	base      *url.URL
	transport *transport.Client
}

// Option configures a Client.
type Option func(*config)

type config struct {
	apiKey     string
	authScheme string
	transport  *transport.Client
}

// WithAPIKey sets the API key and the scheme used to send it
// ("bearer", "header:<name>", "query:<param>").
func WithAPIKey(apiKey, scheme string) Option {
	return func(c *config) {
		c.apiKey = apiKey
		c.authScheme = scheme
	}
}

// WithTransport replaces the transport client.
func WithTransport(t *transport.Client) Option {
	return func(c *config) {
		c.transport = t
	}
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &config{authScheme: "bearer"}
	for _, opt := range opts {
		opt(cfg)
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewValidationError("base_url", baseURL, "must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("base_url", baseURL, "scheme must be http or https")
	}

	t := cfg.transport
	if t == nil {
		t = transport.New(transport.ParseAuth(cfg.authScheme), transport.WithAPIKey(cfg.apiKey))
	}
	return &Client{base: u, transport: t}, nil
}

// Fetchers returns one fetcher per axis, in canonical axis order.
func (c *Client) Fetchers() []metrics.Fetcher {
	axes := metrics.Axes()
	fetchers := make([]metrics.Fetcher, len(axes))
	for i, axis := range axes {
		fetchers[i] = &Fetcher{client: c, axis: axis}
	}
	return fetchers
}

// URL returns the request URL for an axis and query.
func (c *Client) URL(axis metrics.Axis, q metrics.Query) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + axis.String()

	building := q.Building
	if building == "" {
		building = metrics.AllBuildings
	}
	params := u.Query()
	params.Set("zone", q.Zone)
	params.Set("hours", strconv.Itoa(q.Hours))
	params.Set("building", building)
	u.RawQuery = params.Encode()
	return u.String()
}

// Fetch retrieves the records of one axis.
func (c *Client) Fetch(ctx context.Context, axis metrics.Axis, q metrics.Query) ([]metrics.Record, error) {
	logger := logging.FromContext(ctx)
	endpoint := c.URL(axis, q)

	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return nil, errors.NewAxisFetchError(axis.String(), q.Zone, err)
	}

	var body rawResponse
	if err := transport.DecodeResponse(resp, axis.String(), &body); err != nil {
		return nil, errors.NewAxisFetchError(axis.String(), q.Zone, err)
	}

	records, err := body.records(axis)
	if err != nil {
		return nil, errors.NewAxisFetchError(axis.String(), q.Zone, err)
	}

	logger.Debug().
		Int("records", len(records)).
		Msg("Fetched axis records")
	return records, nil
}

// Fetcher serves one axis of a Client.
type Fetcher struct {
	client *Client
	axis   metrics.Axis
}

// Axis implements metrics.Fetcher.
func (f *Fetcher) Axis() metrics.Axis {
	return f.axis
}

// Fetch implements metrics.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, q metrics.Query) ([]metrics.Record, error) {
	return f.client.Fetch(ctx, f.axis, q)
}

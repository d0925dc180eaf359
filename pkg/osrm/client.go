// Package osrm provides a client for the OSRM Table API, used to fetch
// driving durations when no TravelTime credentials are configured.
package osrm

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Location is a named coordinate pair.
type Location struct {
	ID  string
	Lat float64
	Lng float64
}

// Client fetches driving durations between coordinate sets.
type Client interface {
	// Table returns seconds of driving per source per destination, rounded
	// to whole seconds. Unroutable pairs are absent from the result.
	Table(ctx context.Context, sources, destinations []Location) (map[string]map[string]float64, error)
}

// Option configures the client.
type Option func(*client)

// WithBaseURL sets the OSRM server URL.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithBatchSize limits sources per request. The public demo server caps
// total coordinates per request around 100.
func WithBatchSize(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type client struct {
	baseURL    string
	batchSize  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an OSRM client.
func NewClient(opts ...Option) Client {
	c := &client{
		baseURL:    "http://localhost:5000",
		batchSize:  90,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
}

func (c *client) Table(ctx context.Context, sources, destinations []Location) (map[string]map[string]float64, error) {
	if len(sources) == 0 || len(destinations) == 0 {
		return map[string]map[string]float64{}, nil
	}

	times := make(map[string]map[string]float64, len(sources))
	for start := 0; start < len(sources); start += c.batchSize {
		end := start + c.batchSize
		if end > len(sources) {
			end = len(sources)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "osrm: rate limit")
		}

		durations, err := c.fetchBatch(ctx, sources[start:end], destinations)
		if err != nil {
			return nil, err
		}
		if len(durations) != end-start {
			return nil, eris.Errorf("osrm: got %d duration rows for %d sources", len(durations), end-start)
		}

		for i, src := range sources[start:end] {
			row := map[string]float64{}
			for j, dst := range destinations {
				if j < len(durations[i]) && durations[i][j] != nil {
					row[dst.ID] = math.Round(*durations[i][j])
				}
			}
			times[src.ID] = row
		}
	}
	return times, nil
}

func (c *client) fetchBatch(ctx context.Context, sources, destinations []Location) ([][]*float64, error) {
	coords := make([]string, 0, len(sources)+len(destinations))
	for _, s := range sources {
		coords = append(coords, formatCoord(s))
	}
	for _, d := range destinations {
		coords = append(coords, formatCoord(d))
	}

	srcIdx := make([]string, len(sources))
	for i := range sources {
		srcIdx[i] = strconv.Itoa(i)
	}
	dstIdx := make([]string, len(destinations))
	for i := range destinations {
		dstIdx[i] = strconv.Itoa(len(sources) + i)
	}

	reqURL := c.baseURL + "/table/v1/driving/" + strings.Join(coords, ";") +
		"?sources=" + strings.Join(srcIdx, ";") + "&destinations=" + strings.Join(dstIdx, ";")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("osrm: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "osrm: read body")
	}

	var parsed tableResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "osrm: parse response")
	}
	if parsed.Code != "Ok" {
		if parsed.Message != "" {
			return nil, eris.Errorf("osrm: %s: %s", parsed.Code, parsed.Message)
		}
		return nil, eris.Errorf("osrm: %s", parsed.Code)
	}
	return parsed.Durations, nil
}

func formatCoord(l Location) string {
	return strconv.FormatFloat(l.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lat, 'f', -1, 64)
}

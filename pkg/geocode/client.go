// Package geocode provides place search via Nominatim, used to resolve
// user-entered location names into coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Result holds the geocoding output for a query.
type Result struct {
	Lat         float64
	Lng         float64
	DisplayName string
	Matched     bool
}

// Client resolves free-text place queries to coordinates.
type Client interface {
	// Search geocodes a single query. An unmatched query is not an error;
	// the result carries Matched=false.
	Search(ctx context.Context, query string) (*Result, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Nominatim server URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) { g.httpClient = hc }
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires one identifying the application.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) { g.userAgent = ua }
}

// WithCountryCodes restricts results to the given ISO country codes.
func WithCountryCodes(codes ...string) Option {
	return func(g *geocoder) { g.countryCodes = codes }
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) { g.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type geocoder struct {
	baseURL      string
	userAgent    string
	countryCodes []string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a geocoding Client with the given options. The default
// rate limit of one request per second follows the Nominatim usage policy.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:      "https://nominatim.openstreetmap.org",
		userAgent:    "autonomy-explorer/1.0",
		countryCodes: []string{"ch"},
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *geocoder) Search(ctx context.Context, query string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if len(g.countryCodes) > 0 {
		params.Set("countrycodes", strings.Join(g.countryCodes, ","))
	}

	reqURL := g.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lat")
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lon")
	}

	return &Result{
		Lat:         lat,
		Lng:         lng,
		DisplayName: places[0].DisplayName,
		Matched:     true,
	}, nil
}

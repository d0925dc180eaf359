// Package traveltime provides a client for the TravelTime time-filter API,
// fetching many-to-one travel times for driving and public transport.
package traveltime

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Mode is a TravelTime transportation type.
type Mode string

const (
	ModeDriving         Mode = "driving"
	ModePublicTransport Mode = "public_transport"
)

// maxLocationsPerRequest is the TravelTime plan limit on locations per call.
const maxLocationsPerRequest = 2000

// Location is a named coordinate pair.
type Location struct {
	ID  string
	Lat float64
	Lng float64
}

// Client fetches travel times from origins to arrival points.
type Client interface {
	// TimeFilter returns seconds of travel per origin per arrival, for one
	// transportation mode. Unreachable pairs are absent from the result.
	TimeFilter(ctx context.Context, origins, arrivals []Location, mode Mode) (map[string]map[string]float64, error)
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithArrivalTime sets the commuter scenario arrival time, RFC3339.
func WithArrivalTime(t string) Option {
	return func(c *client) { c.arrivalTime = t }
}

// WithMaxTravelTime caps the search horizon in seconds.
func WithMaxTravelTime(seconds int) Option {
	return func(c *client) { c.maxTravelTime = seconds }
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type client struct {
	appID         string
	apiKey        string
	baseURL       string
	arrivalTime   string
	maxTravelTime int
	httpClient    *http.Client
	limiter       *rate.Limiter
}

// NewClient creates a TravelTime client with the given credentials.
func NewClient(appID, apiKey string, opts ...Option) Client {
	c := &client{
		appID:         appID,
		apiKey:        apiKey,
		baseURL:       "https://api.traveltimeapp.com/v4",
		arrivalTime:   "2026-03-02T08:00:00+01:00",
		maxTravelTime: 14400,
		httpClient:    &http.Client{Timeout: 2 * time.Minute},
		limiter:       rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type timeFilterRequest struct {
	Locations       []tfLocation      `json:"locations"`
	ArrivalSearches []tfArrivalSearch `json:"arrival_searches"`
}

type tfLocation struct {
	ID     string   `json:"id"`
	Coords tfCoords `json:"coords"`
}

type tfCoords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type tfArrivalSearch struct {
	ID                   string           `json:"id"`
	ArrivalLocationID    string           `json:"arrival_location_id"`
	DepartureLocationIDs []string         `json:"departure_location_ids"`
	Transportation       tfTransportation `json:"transportation"`
	ArrivalTime          string           `json:"arrival_time"`
	TravelTime           int              `json:"travel_time"`
	Properties           []string         `json:"properties"`
}

type tfTransportation struct {
	Type string `json:"type"`
}

type timeFilterResponse struct {
	Results []struct {
		SearchID  string `json:"search_id"`
		Locations []struct {
			ID         string `json:"id"`
			Properties []struct {
				TravelTime float64 `json:"travel_time"`
			} `json:"properties"`
		} `json:"locations"`
		Unreachable []string `json:"unreachable"`
	} `json:"results"`
}

func (c *client) TimeFilter(ctx context.Context, origins, arrivals []Location, mode Mode) (map[string]map[string]float64, error) {
	if len(origins) == 0 || len(arrivals) == 0 {
		return map[string]map[string]float64{}, nil
	}

	batchSize := maxLocationsPerRequest - len(arrivals)
	if batchSize <= 0 {
		return nil, eris.Errorf("traveltime: %d arrival locations exceed the per-request limit", len(arrivals))
	}

	times := make(map[string]map[string]float64, len(origins))
	for start := 0; start < len(origins); start += batchSize {
		end := start + batchSize
		if end > len(origins) {
			end = len(origins)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "traveltime: rate limit")
		}
		if err := c.fetchBatch(ctx, origins[start:end], arrivals, mode, start, times); err != nil {
			return nil, err
		}
	}
	return times, nil
}

func (c *client) fetchBatch(ctx context.Context, origins, arrivals []Location, mode Mode, batchStart int, times map[string]map[string]float64) error {
	req := timeFilterRequest{}
	for _, a := range arrivals {
		req.Locations = append(req.Locations, tfLocation{ID: a.ID, Coords: tfCoords{Lat: a.Lat, Lng: a.Lng}})
	}
	departureIDs := make([]string, 0, len(origins))
	for _, o := range origins {
		id := "o_" + o.ID
		req.Locations = append(req.Locations, tfLocation{ID: id, Coords: tfCoords{Lat: o.Lat, Lng: o.Lng}})
		departureIDs = append(departureIDs, id)
	}

	searchArrival := make(map[string]string, len(arrivals))
	for _, a := range arrivals {
		searchID := "to_" + a.ID + "_" + strconv.Itoa(batchStart)
		searchArrival[searchID] = a.ID
		req.ArrivalSearches = append(req.ArrivalSearches, tfArrivalSearch{
			ID:                   searchID,
			ArrivalLocationID:    a.ID,
			DepartureLocationIDs: departureIDs,
			Transportation:       tfTransportation{Type: string(mode)},
			ArrivalTime:          c.arrivalTime,
			TravelTime:           c.maxTravelTime,
			Properties:           []string{"travel_time"},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return eris.Wrap(err, "traveltime: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/time-filter", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "traveltime: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Application-Id", c.appID)
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "traveltime: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("traveltime: status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "traveltime: read body")
	}

	var parsed timeFilterResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return eris.Wrap(err, "traveltime: parse response")
	}

	for _, result := range parsed.Results {
		arrivalID, ok := searchArrival[result.SearchID]
		if !ok {
			continue
		}
		for _, loc := range result.Locations {
			if len(loc.Properties) == 0 {
				continue
			}
			originID, ok := strings.CutPrefix(loc.ID, "o_")
			if !ok {
				continue
			}
			if times[originID] == nil {
				times[originID] = map[string]float64{}
			}
			times[originID][arrivalID] = loc.Properties[0].TravelTime
		}
	}
	return nil
}

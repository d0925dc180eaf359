package traveltime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeFilter(t *testing.T) {
	var gotReq timeFilterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time-filter", r.URL.Path)
		assert.Equal(t, "app-1", r.Header.Get("X-Application-Id"))
		assert.Equal(t, "key-1", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"results": []map[string]any{
				{
					"search_id": "to_zurich_0",
					"locations": []map[string]any{
						{"id": "o_plz_8001", "properties": []map[string]any{{"travel_time": 600.0}}},
						{"id": "o_plz_3011", "properties": []map[string]any{{"travel_time": 5400.0}}},
					},
				},
				{
					"search_id":   "to_lugano_0",
					"locations":   []map[string]any{{"id": "o_plz_8001", "properties": []map[string]any{{"travel_time": 9000.0}}}},
					"unreachable": []string{"o_plz_3011"},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient("app-1", "key-1", WithBaseURL(srv.URL), WithRateLimit(1000))
	origins := []Location{
		{ID: "plz_8001", Lat: 47.37, Lng: 8.54},
		{ID: "plz_3011", Lat: 46.95, Lng: 7.44},
	}
	arrivals := []Location{
		{ID: "zurich", Lat: 47.3769, Lng: 8.5417},
		{ID: "lugano", Lat: 46.0054, Lng: 8.9468},
	}

	times, err := c.TimeFilter(context.Background(), origins, arrivals, ModePublicTransport)
	require.NoError(t, err)

	assert.Equal(t, 600.0, times["plz_8001"]["zurich"])
	assert.Equal(t, 5400.0, times["plz_3011"]["zurich"])
	assert.Equal(t, 9000.0, times["plz_8001"]["lugano"])

	// Unreachable pairs stay absent.
	_, ok := times["plz_3011"]["lugano"]
	assert.False(t, ok)

	// Request shape: arrivals first, prefixed origins, one search per arrival.
	require.Len(t, gotReq.Locations, 4)
	assert.Equal(t, "zurich", gotReq.Locations[0].ID)
	assert.Equal(t, "o_plz_8001", gotReq.Locations[2].ID)
	require.Len(t, gotReq.ArrivalSearches, 2)
	assert.Equal(t, "public_transport", gotReq.ArrivalSearches[0].Transportation.Type)
	assert.Equal(t, []string{"o_plz_8001", "o_plz_3011"}, gotReq.ArrivalSearches[0].DepartureLocationIDs)
}

func TestTimeFilter_EmptyInputs(t *testing.T) {
	c := NewClient("a", "k")

	times, err := c.TimeFilter(context.Background(), nil, []Location{{ID: "zurich"}}, ModeDriving)
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestTimeFilter_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("a", "k", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.TimeFilter(context.Background(), []Location{{ID: "x"}}, []Location{{ID: "zurich"}}, ModeDriving)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

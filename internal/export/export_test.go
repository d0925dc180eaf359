package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func scoredFixture() []model.ScoredArea {
	price := 8500.0
	sq := 60.0
	score := 71.4
	pct := 29
	return []model.ScoredArea{
		{
			Area: model.Area{
				ID:             "plz_8001",
				PLZ:            "8001",
				MunicipalityID: "261",
				Name:           "Zürich",
				CantonCode:     "ZH",
				DriveTimes:     map[string]float64{"zurich": 600},
				PTTimes:        map[string]float64{"zurich": 480},
				PricePerM2:     &price,
				Location:       model.LatLng{Lat: 47.37, Lng: 8.54},
			},
			StatusQuoMin:    &sq,
			Composite:       &score,
			PricePercentile: &pct,
			BestRef:         "zurich",
		},
		{
			Area: model.Area{
				ID:       "plz_9999",
				PLZ:      "9999",
				Name:     "Nirgendwo",
				Location: model.LatLng{Lat: 46.0, Lng: 9.0},
			},
			Excluded: true,
		},
	}
}

func TestWriteGeoJSON(t *testing.T) {
	refs := []model.Reference{
		{ID: "zurich", Name: "Zürich HB", Enabled: true},
		{ID: "bern", Name: "Bern HB", Enabled: true},
	}

	var buf bytes.Buffer
	err := WriteGeoJSON(&buf, scoredFixture(), refs, model.DefaultParams())
	require.NoError(t, err)

	var fc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])

	meta := fc["metadata"].(map[string]any)
	cities := meta["cities"].(map[string]any)
	assert.Equal(t, "Zürich HB", cities["zurich"])
	comfort := meta["comfort_factors"].(map[string]any)
	assert.Equal(t, 0.7, comfort["av_factor"])
	assert.Equal(t, 0.7, comfort["oev_sitting_factor"])

	features := fc["features"].([]any)
	require.Len(t, features, 2)

	first := features[0].(map[string]any)
	geom := first["geometry"].(map[string]any)
	assert.Equal(t, "Point", geom["type"])
	coords := geom["coordinates"].([]any)
	assert.Equal(t, 8.54, coords[0])
	assert.Equal(t, 47.37, coords[1])

	props := first["properties"].(map[string]any)
	assert.Equal(t, "plz_8001", props["id"])
	assert.Equal(t, 71.4, props["autonomy_score"])
	assert.Equal(t, float64(29), props["price_percentile"])
	assert.NotContains(t, props, "location")

	// Excluded areas keep identity but no scores.
	second := features[1].(map[string]any)
	exProps := second["properties"].(map[string]any)
	assert.Equal(t, true, exProps["excluded"])
	assert.NotContains(t, exProps, "autonomy_score")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, scoredFixture())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "id", header[0])
	assert.Contains(t, header, "autonomy_score")
	assert.Contains(t, header, "chf_per_m2")

	idx := func(col string) int {
		for i, h := range header {
			if h == col {
				return i
			}
		}
		t.Fatalf("column %s not found", col)
		return -1
	}

	assert.Equal(t, "plz_8001", records[1][idx("id")])
	assert.Equal(t, "71.4", records[1][idx("autonomy_score")])
	assert.Equal(t, "8500", records[1][idx("chf_per_m2")])

	// Nil scores render as empty cells.
	assert.Equal(t, "plz_9999", records[2][idx("id")])
	assert.Equal(t, "", records[2][idx("autonomy_score")])
	assert.Equal(t, "true", records[2][idx("excluded")])
}

// Package export renders scored areas for downstream consumers: a GeoJSON
// FeatureCollection for the map frontend and a flat CSV for spreadsheets.
package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Metadata describes the scoring run embedded in the FeatureCollection.
// Key names follow the frontend's data contract.
type Metadata struct {
	Cities  map[string]string  `json:"cities"`
	Weights model.Weights      `json:"scoring_weights"`
	Comfort map[string]float64 `json:"comfort_factors"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Metadata Metadata  `json:"metadata"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geometry       `json:"geometry"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// WriteGeoJSON writes scored areas as a point FeatureCollection. Feature
// properties carry every scored field except the coordinates, which live
// in the geometry.
func WriteGeoJSON(w io.Writer, scored []model.ScoredArea, refs []model.Reference, p model.Params) error {
	cities := make(map[string]string, len(refs))
	for _, r := range refs {
		cities[r.ID] = r.Name
	}

	fc := featureCollection{
		Type: "FeatureCollection",
		Metadata: Metadata{
			Cities:  cities,
			Weights: p.Weights,
			Comfort: map[string]float64{
				"av_factor":          p.AVFactor,
				"oev_sitting_factor": p.PTFactor,
			},
		},
		Features: make([]feature, 0, len(scored)),
	}

	for _, sa := range scored {
		props, err := featureProperties(sa)
		if err != nil {
			return err
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Properties: props,
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{sa.Location.Lng, sa.Location.Lat},
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return eris.Wrap(enc.Encode(fc), "export: encode geojson")
}

func featureProperties(sa model.ScoredArea) (map[string]any, error) {
	data, err := json.Marshal(sa)
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal area")
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, eris.Wrap(err, "export: build properties")
	}
	delete(props, "location")
	return props, nil
}

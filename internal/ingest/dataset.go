// Package ingest assembles the scoring dataset from the processed data
// files produced by the fetch pipeline. Areas are PLZ-level points, each
// with its own travel times, inheriting prices and taxes from its primary
// municipality. When no PLZ files are present the dataset degrades to
// municipality centroids.
package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Processed data file names, relative to the data directory.
const (
	FileMunicipalities = "municipalities.json"
	FilePLZPoints      = "plz_points.json"
	FilePLZMap         = "plz_municipality_map.json"
	FilePLZDrive       = "plz_travel_times_driving.json"
	FilePLZPT          = "plz_travel_times_pt.json"
	FileTravelTimes    = "travel_times.json"
	FilePrices         = "prices.json"
	FileTaxes          = "taxes.json"
)

// Municipality is one record from municipalities.json.
type Municipality struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Canton     string   `json:"canton"`
	CantonCode string   `json:"canton_code"`
	District   string   `json:"district"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
}

// PLZPoint is one record from plz_points.json.
type PLZPoint struct {
	PLZ        string  `json:"plz"`
	Name       string  `json:"name"`
	Canton     string  `json:"canton"`
	CantonCode string  `json:"canton_code"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// PriceRecord is one municipality's price entry from prices.json.
type PriceRecord struct {
	CHFPerM2 *float64 `json:"chf_per_m2"`
	Source   string   `json:"type"`
}

type plzMap struct {
	PLZToMunicipalities map[string][]string `json:"plz_to_municipalities"`
}

type muniTimes struct {
	Driving         map[string]json.RawMessage `json:"driving"`
	PublicTransport map[string]json.RawMessage `json:"public_transport"`
}

// Dataset is the assembled input for the scoring engine.
type Dataset struct {
	Areas          []model.Area
	Municipalities map[string]Municipality
}

// Load reads all processed files under dir and assembles the dataset.
// municipalities.json is required; every other file degrades to empty
// when absent, leaving the corresponding area fields nil.
func Load(dir string) (*Dataset, error) {
	log := zap.L().With(zap.String("component", "ingest"))

	var muniList []Municipality
	found, err := loadJSON(filepath.Join(dir, FileMunicipalities), &muniList)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, eris.Errorf("ingest: %s not found in %s", FileMunicipalities, dir)
	}
	munis := make(map[string]Municipality, len(muniList))
	for _, m := range muniList {
		munis[m.ID] = m
	}

	var points []PLZPoint
	if _, err := loadJSON(filepath.Join(dir, FilePLZPoints), &points); err != nil {
		return nil, err
	}

	var mapping plzMap
	if _, err := loadJSON(filepath.Join(dir, FilePLZMap), &mapping); err != nil {
		return nil, err
	}

	plzDrive := map[string]json.RawMessage{}
	if _, err := loadJSON(filepath.Join(dir, FilePLZDrive), &plzDrive); err != nil {
		return nil, err
	}
	plzPT := map[string]json.RawMessage{}
	if _, err := loadJSON(filepath.Join(dir, FilePLZPT), &plzPT); err != nil {
		return nil, err
	}

	var tt muniTimes
	if _, err := loadJSON(filepath.Join(dir, FileTravelTimes), &tt); err != nil {
		return nil, err
	}

	prices := map[string]PriceRecord{}
	if _, err := loadJSON(filepath.Join(dir, FilePrices), &prices); err != nil {
		return nil, err
	}
	taxes := map[string]TaxRecord{}
	if _, err := loadJSON(filepath.Join(dir, FileTaxes), &taxes); err != nil {
		return nil, err
	}

	ds := &Dataset{Municipalities: munis}
	if len(points) > 0 {
		ds.Areas = buildPLZAreas(points, mapping.PLZToMunicipalities, munis, plzDrive, plzPT, tt, prices, taxes)
	} else {
		ds.Areas = buildMunicipalityAreas(muniList, tt, prices, taxes)
	}

	sort.Slice(ds.Areas, func(i, j int) bool { return ds.Areas[i].ID < ds.Areas[j].ID })

	log.Info("dataset loaded",
		zap.Int("municipalities", len(munis)),
		zap.Int("plz_points", len(points)),
		zap.Int("areas", len(ds.Areas)),
		zap.Int("prices", len(prices)),
		zap.Int("taxes", len(taxes)))

	return ds, nil
}

func buildPLZAreas(points []PLZPoint, mapping map[string][]string, munis map[string]Municipality,
	plzDrive, plzPT map[string]json.RawMessage, tt muniTimes,
	prices map[string]PriceRecord, taxes map[string]TaxRecord) []model.Area {

	areas := make([]model.Area, 0, len(points))
	for _, p := range points {
		muniIDs := mapping[p.PLZ]
		primary := ""
		if len(muniIDs) > 0 {
			primary = muniIDs[0]
		}

		drive := engine.ParseTimes(plzDrive[p.PLZ])
		pt := engine.ParseTimes(plzPT[p.PLZ])
		if len(drive) == 0 && primary != "" {
			drive = engine.ParseTimes(tt.Driving[primary])
		}
		if len(pt) == 0 && primary != "" {
			pt = engine.ParseTimes(tt.PublicTransport[primary])
		}

		a := model.Area{
			ID:             "plz_" + p.PLZ,
			PLZ:            p.PLZ,
			MunicipalityID: primary,
			Name:           p.Name,
			Canton:         p.Canton,
			CantonCode:     p.CantonCode,
			DriveTimes:     drive,
			PTTimes:        pt,
			Location:       model.LatLng{Lat: p.Lat, Lng: p.Lon},
		}

		if m, ok := munis[primary]; ok {
			if m.Name != "" {
				a.Name = m.Name
			}
			if m.Canton != "" {
				a.Canton = m.Canton
			}
			if m.CantonCode != "" {
				a.CantonCode = m.CantonCode
			}
		}

		a.PricePerM2 = prices[primary].CHFPerM2
		if t, ok := taxes[primary]; ok {
			a.TaxMultiplier = t.Multiplier
		}

		areas = append(areas, a)
	}
	return areas
}

func buildMunicipalityAreas(munis []Municipality, tt muniTimes,
	prices map[string]PriceRecord, taxes map[string]TaxRecord) []model.Area {

	areas := make([]model.Area, 0, len(munis))
	for _, m := range munis {
		a := model.Area{
			ID:             m.ID,
			MunicipalityID: m.ID,
			Name:           m.Name,
			Canton:         m.Canton,
			CantonCode:     m.CantonCode,
			DriveTimes:     engine.ParseTimes(tt.Driving[m.ID]),
			PTTimes:        engine.ParseTimes(tt.PublicTransport[m.ID]),
		}
		if m.Lat != nil && m.Lon != nil {
			a.Location = model.LatLng{Lat: *m.Lat, Lng: *m.Lon}
		}
		a.PricePerM2 = prices[m.ID].CHFPerM2
		if t, ok := taxes[m.ID]; ok {
			a.TaxMultiplier = t.Multiplier
		}
		areas = append(areas, a)
	}
	return areas
}

// MergeReferenceTimes returns area copies with one custom reference's
// synthesized seconds added to the per-area time maps. The input slice and
// its maps are never modified; zero or missing seconds leave an area's map
// untouched.
func MergeReferenceTimes(areas []model.Area, refID string, drive, pt map[string]float64) []model.Area {
	merged := make([]model.Area, len(areas))
	copy(merged, areas)
	for i := range merged {
		merged[i].DriveTimes = withTime(merged[i].DriveTimes, refID, drive[merged[i].ID])
		merged[i].PTTimes = withTime(merged[i].PTTimes, refID, pt[merged[i].ID])
	}
	return merged
}

func withTime(m map[string]float64, refID string, seconds float64) map[string]float64 {
	if seconds <= 0 {
		return m
	}
	out := make(map[string]float64, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[refID] = seconds
	return out
}

// loadJSON reads a JSON file into out. A missing file is not an error;
// the second return reports whether the file existed.
func loadJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, eris.Wrapf(err, "ingest: read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, eris.Wrapf(err, "ingest: parse %s", filepath.Base(path))
	}
	return true, nil
}

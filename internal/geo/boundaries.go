package geo

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Municipality is one administrative unit read from a boundary shapefile,
// reduced to the attributes and centroid the pipeline needs.
type Municipality struct {
	ID       string // BFS number
	Name     string
	Canton   string
	Centroid model.LatLng
}

// LoadMunicipalities reads a municipality boundary shapefile (WGS84 export
// of swissBOUNDARIES3D) and returns one record per polygon with its area
// centroid. Records without a BFS number or usable geometry are skipped,
// not fatal.
func LoadMunicipalities(shpPath string) ([]Municipality, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	bfsIdx := fieldIndex(reader, "BFS_NUMMER")
	nameIdx := fieldIndex(reader, "NAME")
	kantonIdx := fieldIndex(reader, "KANTON")
	if bfsIdx < 0 || nameIdx < 0 {
		return nil, eris.New("geo: required shapefile fields (BFS_NUMMER, NAME) not found")
	}

	log := zap.L().With(zap.String("component", "geo.boundaries"))

	var out []Municipality
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			continue
		}

		bfs := strings.TrimSpace(reader.Attribute(bfsIdx))
		if bfs == "" {
			continue
		}

		centroid, err := polygonCentroid(poly)
		if err != nil {
			log.Debug("skipping municipality with bad geometry",
				zap.String("bfs", bfs), zap.Error(err))
			continue
		}

		m := Municipality{
			ID:       bfs,
			Name:     strings.TrimSpace(reader.Attribute(nameIdx)),
			Centroid: centroid,
		}
		if kantonIdx >= 0 {
			m.Canton = strings.TrimSpace(reader.Attribute(kantonIdx))
		}
		out = append(out, m)
	}

	log.Info("loaded municipality boundaries",
		zap.String("path", shpPath), zap.Int("municipalities", len(out)))
	return out, nil
}

// polygonCentroid converts a shapefile polygon to a geom.Polygon (outer
// ring only) and computes its area centroid.
func polygonCentroid(p *shp.Polygon) (model.LatLng, error) {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return model.LatLng{}, eris.New("geo: empty polygon")
	}

	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}

	flat := make([]float64, 0, end*2)
	for j := p.Parts[0]; j < end; j++ {
		flat = append(flat, p.Points[j].X, p.Points[j].Y)
	}

	ring := geom.NewLinearRingFlat(geom.XY, flat)
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(ring); err != nil {
		return model.LatLng{}, eris.Wrap(err, "geo: build polygon")
	}

	c, err := xy.Centroid(poly)
	if err != nil {
		return model.LatLng{}, eris.Wrap(err, "geo: centroid")
	}
	return model.LatLng{Lat: c.Y(), Lng: c.X()}, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

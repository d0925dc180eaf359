package export

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// csvRow is the flattened spreadsheet view of one scored area.
type csvRow struct {
	ID                  string   `csv:"id"`
	PLZ                 string   `csv:"plz"`
	MunicipalityID      string   `csv:"municipality_id"`
	Name                string   `csv:"name"`
	CantonCode          string   `csv:"canton_code"`
	Lat                 float64  `csv:"lat"`
	Lon                 float64  `csv:"lon"`
	PricePerM2          *float64 `csv:"chf_per_m2"`
	TaxMultiplier       *float64 `csv:"tax_multiplier"`
	Excluded            bool     `csv:"excluded"`
	StatusQuoMin        *float64 `csv:"status_quo_access"`
	PostAVMin           *float64 `csv:"post_av_access"`
	DeltaMin            *float64 `csv:"accessibility_delta"`
	PricePercentile     *int     `csv:"price_percentile"`
	ScoreAccessibility  *float64 `csv:"score_accessibility"`
	ScoreAttractiveness *float64 `csv:"score_attractiveness"`
	ScoreStatusQuo      *float64 `csv:"score_status_quo"`
	ScorePostAV         *float64 `csv:"score_post_av"`
	Composite           *float64 `csv:"autonomy_score"`
	BestRef             string   `csv:"best_ref"`
}

// WriteCSV writes scored areas as CSV with a header row. Nil values
// render as empty cells.
func WriteCSV(w io.Writer, scored []model.ScoredArea) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	for _, sa := range scored {
		row := csvRow{
			ID:                  sa.ID,
			PLZ:                 sa.PLZ,
			MunicipalityID:      sa.MunicipalityID,
			Name:                sa.Name,
			CantonCode:          sa.CantonCode,
			Lat:                 sa.Location.Lat,
			Lon:                 sa.Location.Lng,
			PricePerM2:          sa.PricePerM2,
			TaxMultiplier:       sa.TaxMultiplier,
			Excluded:            sa.Excluded,
			StatusQuoMin:        sa.StatusQuoMin,
			PostAVMin:           sa.PostAVMin,
			DeltaMin:            sa.DeltaMin,
			PricePercentile:     sa.PricePercentile,
			ScoreAccessibility:  sa.ScoreAccessibility,
			ScoreAttractiveness: sa.ScoreAttractiveness,
			ScoreStatusQuo:      sa.ScoreStatusQuo,
			ScorePostAV:         sa.ScorePostAV,
			Composite:           sa.Composite,
			BestRef:             sa.BestRef,
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "export: encode csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

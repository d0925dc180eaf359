package model

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lon"`
}

// Area is one scored geographic unit: a PLZ-level point carrying its own
// travel times and the prices/taxes of its primary municipality.
// All fields here are raw inputs; derived values live on ScoredArea.
type Area struct {
	ID             string             `json:"id"`
	PLZ            string             `json:"plz,omitempty"`
	MunicipalityID string             `json:"municipality_id,omitempty"`
	Name           string             `json:"name"`
	Settlement     string             `json:"settlement,omitempty"`
	Canton         string             `json:"canton,omitempty"`
	CantonCode     string             `json:"canton_code,omitempty"`
	DriveTimes     map[string]float64 `json:"drive_times"` // reference id -> seconds
	PTTimes        map[string]float64 `json:"pt_times"`    // reference id -> seconds
	PricePerM2     *float64           `json:"chf_per_m2,omitempty"`
	TaxMultiplier  *float64           `json:"tax_multiplier,omitempty"`
	Location       LatLng             `json:"location"`
}

// ScoredArea is an Area enriched with the engine's derived fields.
// Every derived field is a pure function of the raw dataset, the resolved
// reference set, and the scoring parameters; nil means "no data", not zero.
type ScoredArea struct {
	Area

	Excluded bool `json:"excluded"`

	// Raw aggregates (minutes).
	StatusQuoMin *float64 `json:"status_quo_access,omitempty"`
	PostAVMin    *float64 `json:"post_av_access,omitempty"`
	DeltaMin     *float64 `json:"accessibility_delta,omitempty"`

	// Peer-group attractiveness.
	AttractivenessRaw *float64 `json:"inherent_attractiveness_raw,omitempty"`
	PricePercentile   *int     `json:"price_percentile,omitempty"`

	// Normalized 0-100 scores. Nil for excluded areas.
	ScoreAccessibility  *float64 `json:"score_accessibility,omitempty"`
	ScoreAttractiveness *float64 `json:"score_attractiveness,omitempty"`
	ScoreStatusQuo      *float64 `json:"score_status_quo,omitempty"`
	ScorePostAV         *float64 `json:"score_post_av,omitempty"`

	// Final composite (0-100, one decimal). Nil for excluded areas.
	Composite *float64 `json:"autonomy_score,omitempty"`

	// Detail view: gain in minutes per known reference, one decimal.
	// Computed against every reference present in the raw data.
	GainPerRef map[string]*float64 `json:"gain_per_ref,omitempty"`
	BestRef    string              `json:"best_ref,omitempty"`

	// Minimum raw times (seconds) among resolved references.
	MinDriveSec *float64 `json:"min_drive_s,omitempty"`
	MinPTSec    *float64 `json:"min_pt_s,omitempty"`
}

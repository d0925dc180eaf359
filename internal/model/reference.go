package model

// Reference is a location areas are measured against: a built-in city or a
// user-added custom address.
type Reference struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Enabled bool    `json:"enabled"`
	Custom  bool    `json:"custom,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lon,omitempty"`

	// MaxMinutes caps the best today-achievable travel time to this
	// reference. Nil means unconstrained.
	MaxMinutes *float64 `json:"max_minutes,omitempty"`
}

// Weights is the weight pair for the composite score. Weights are
// non-negative and need not sum to 1; the scorer renormalizes over the
// components present for each area.
type Weights struct {
	AccessibilityGain      float64 `json:"accessibility_gain" yaml:"accessibility_gain" mapstructure:"accessibility_gain"`
	InherentAttractiveness float64 `json:"inherent_attractiveness" yaml:"inherent_attractiveness" mapstructure:"inherent_attractiveness"`
}

// Params holds the user-adjustable scoring parameters.
type Params struct {
	// PTFactor shrinks perceived public transport time (sitting on a train
	// is less burdensome than the clock time). In (0,1].
	PTFactor float64 `json:"pt_factor" yaml:"pt_factor" mapstructure:"pt_factor"`

	// AVFactor shrinks perceived driving time once autonomous driving
	// removes the need to steer. In (0,1]. Public transport is unaffected.
	AVFactor float64 `json:"av_factor" yaml:"av_factor" mapstructure:"av_factor"`

	Weights Weights `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// DefaultParams mirrors the pipeline defaults: both comfort factors at 0.7
// and an even weight split.
func DefaultParams() Params {
	return Params{
		PTFactor: 0.7,
		AVFactor: 0.7,
		Weights: Weights{
			AccessibilityGain:      0.5,
			InherentAttractiveness: 0.5,
		},
	}
}

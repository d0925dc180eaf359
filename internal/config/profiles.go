package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Profile is a named scoring preset: weights, comfort factors, and optional
// per-reference travel-time caps, all overriding the configured defaults.
type Profile struct {
	PTFactor *float64      `yaml:"pt_factor,omitempty"`
	AVFactor *float64      `yaml:"av_factor,omitempty"`
	Weights  *model.Weights `yaml:"weights,omitempty"`

	// Caps maps reference id to max minutes. A negative value clears a
	// default cap.
	Caps map[string]float64 `yaml:"caps,omitempty"`
}

// Profiles is the content of a scoring-profile file.
type Profiles struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadProfiles reads scoring presets from a YAML file.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read profiles %s", path)
	}

	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "config: parse profiles")
	}
	return &p, nil
}

// Apply overlays a profile onto base parameters and references, returning
// fresh values; the inputs are not modified.
func (p Profile) Apply(base model.Params, refs []model.Reference) (model.Params, []model.Reference) {
	if p.PTFactor != nil {
		base.PTFactor = *p.PTFactor
	}
	if p.AVFactor != nil {
		base.AVFactor = *p.AVFactor
	}
	if p.Weights != nil {
		base.Weights = *p.Weights
	}

	out := make([]model.Reference, len(refs))
	copy(out, refs)
	for i := range out {
		limit, ok := p.Caps[out[i].ID]
		if !ok {
			continue
		}
		if limit < 0 {
			out[i].MaxMinutes = nil
			continue
		}
		v := limit
		out[i].MaxMinutes = &v
	}
	return base, out
}

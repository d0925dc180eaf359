package engine

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Metric identifies a displayable per-area value. The enumeration is closed:
// every consumer (export columns, API color-by-metric) selects through an
// explicit accessor instead of indexing property names dynamically.
type Metric string

const (
	MetricComposite      Metric = "autonomy_score"
	MetricAccessibility  Metric = "score_accessibility"
	MetricAttractiveness Metric = "score_attractiveness"
	MetricStatusQuo      Metric = "score_status_quo"
	MetricPostAV         Metric = "score_post_av"
	MetricPrice          Metric = "chf_per_m2"
	MetricTax            Metric = "tax_multiplier"
	MetricPercentile     Metric = "price_percentile"
)

// Metrics returns every metric in display order.
func Metrics() []Metric {
	return []Metric{
		MetricComposite,
		MetricAccessibility,
		MetricAttractiveness,
		MetricStatusQuo,
		MetricPostAV,
		MetricPrice,
		MetricTax,
		MetricPercentile,
	}
}

// ParseMetric converts a string into a Metric.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", eris.Errorf("engine: unknown metric %q", s)
}

// Value returns the metric's value for an area, nil when absent.
func (m Metric) Value(sa model.ScoredArea) *float64 {
	switch m {
	case MetricComposite:
		return sa.Composite
	case MetricAccessibility:
		return sa.ScoreAccessibility
	case MetricAttractiveness:
		return sa.ScoreAttractiveness
	case MetricStatusQuo:
		return sa.ScoreStatusQuo
	case MetricPostAV:
		return sa.ScorePostAV
	case MetricPrice:
		return sa.PricePerM2
	case MetricTax:
		return sa.TaxMultiplier
	case MetricPercentile:
		if sa.PricePercentile == nil {
			return nil
		}
		v := float64(*sa.PricePercentile)
		return &v
	default:
		return nil
	}
}

// SortByMetric orders areas by the metric descending, areas without a
// value last, ties broken by area id.
func SortByMetric(scored []model.ScoredArea, metric Metric) {
	sort.SliceStable(scored, func(i, j int) bool {
		vi, vj := metric.Value(scored[i]), metric.Value(scored[j])
		switch {
		case vi == nil && vj == nil:
			return scored[i].ID < scored[j].ID
		case vi == nil:
			return false
		case vj == nil:
			return true
		case *vi != *vj:
			return *vi > *vj
		default:
			return scored[i].ID < scored[j].ID
		}
	})
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("autonomy_score")
	require.NoError(t, err)
	assert.Equal(t, MetricComposite, m)

	_, err = ParseMetric("bogus")
	assert.Error(t, err)
}

func TestMetricValue_EveryMetricHasAnAccessor(t *testing.T) {
	pct := 25
	sa := model.ScoredArea{
		Area: model.Area{
			PricePerM2:    fptr(5500),
			TaxMultiplier: fptr(119),
		},
		Composite:           fptr(81.5),
		ScoreAccessibility:  fptr(70),
		ScoreAttractiveness: fptr(93),
		ScoreStatusQuo:      fptr(40),
		ScorePostAV:         fptr(55),
		PricePercentile:     &pct,
	}

	for _, m := range Metrics() {
		v := m.Value(sa)
		require.NotNil(t, v, m)
	}

	assert.Equal(t, 81.5, *MetricComposite.Value(sa))
	assert.Equal(t, 25.0, *MetricPercentile.Value(sa))
}

func TestMetricValue_AbsentIsNil(t *testing.T) {
	var empty model.ScoredArea
	for _, m := range Metrics() {
		assert.Nil(t, m.Value(empty), m)
	}
}

func TestSortByMetric(t *testing.T) {
	scored := []model.ScoredArea{
		{Area: model.Area{ID: "c"}},
		{Area: model.Area{ID: "a"}, Composite: fptr(40)},
		{Area: model.Area{ID: "b"}, Composite: fptr(75)},
		{Area: model.Area{ID: "d"}, Composite: fptr(40)},
	}

	SortByMetric(scored, MetricComposite)

	// Descending, nil last, ties by id.
	assert.Equal(t, "b", scored[0].ID)
	assert.Equal(t, "a", scored[1].ID)
	assert.Equal(t, "d", scored[2].ID)
	assert.Equal(t, "c", scored[3].ID)
}

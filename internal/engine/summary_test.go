package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func TestSummarize(t *testing.T) {
	scored := []model.ScoredArea{
		{Area: model.Area{ID: "a"}, Composite: fptr(20)},
		{Area: model.Area{ID: "b"}, Composite: fptr(50)},
		{Area: model.Area{ID: "c"}, Composite: fptr(80)},
		{Area: model.Area{ID: "d"}, Excluded: true},
	}

	sum := Summarize(scored)

	assert.Equal(t, 4, sum.Areas)
	assert.Equal(t, 3, sum.Scored)
	assert.Equal(t, 1, sum.Excluded)
	require.NotNil(t, sum.MinScore)
	require.NotNil(t, sum.MaxScore)
	require.NotNil(t, sum.MedianScore)
	assert.Equal(t, 20.0, *sum.MinScore)
	assert.Equal(t, 80.0, *sum.MaxScore)
	assert.Equal(t, 50.0, *sum.MedianScore)
}

func TestSummarize_EvenCountAveragesMedian(t *testing.T) {
	scored := []model.ScoredArea{
		{Area: model.Area{ID: "a"}, Composite: fptr(10)},
		{Area: model.Area{ID: "b"}, Composite: fptr(20)},
		{Area: model.Area{ID: "c"}, Composite: fptr(30)},
		{Area: model.Area{ID: "d"}, Composite: fptr(40)},
	}

	sum := Summarize(scored)
	require.NotNil(t, sum.MedianScore)
	assert.Equal(t, 25.0, *sum.MedianScore)
}

func TestSummarize_AllExcluded(t *testing.T) {
	scored := []model.ScoredArea{
		{Area: model.Area{ID: "a"}, Excluded: true},
		{Area: model.Area{ID: "b"}, Excluded: true},
	}

	sum := Summarize(scored)

	assert.Equal(t, 2, sum.Areas)
	assert.Equal(t, 0, sum.Scored)
	assert.Equal(t, 2, sum.Excluded)
	assert.Nil(t, sum.MinScore)
	assert.Nil(t, sum.MaxScore)
	assert.Nil(t, sum.MedianScore)
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil)
	assert.Equal(t, model.SnapshotSummary{}, sum)
}

package engine

import (
	"sort"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Summarize computes aggregate statistics over a scored dataset.
func Summarize(scored []model.ScoredArea) model.SnapshotSummary {
	sum := model.SnapshotSummary{Areas: len(scored)}

	var composites []float64
	for _, sa := range scored {
		if sa.Excluded {
			sum.Excluded++
		}
		if sa.Composite != nil {
			composites = append(composites, *sa.Composite)
		}
	}
	sum.Scored = len(composites)
	if len(composites) == 0 {
		return sum
	}

	sort.Float64s(composites)
	lo, hi := composites[0], composites[len(composites)-1]
	mid := composites[len(composites)/2]
	if len(composites)%2 == 0 {
		mid = (composites[len(composites)/2-1] + composites[len(composites)/2]) / 2
	}
	sum.MinScore, sum.MaxScore, sum.MedianScore = &lo, &hi, &mid
	return sum
}

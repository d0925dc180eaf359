package engine

import "github.com/Kaiman22/autonomy-explorer/internal/model"

// composite combines the normalized component scores using the configured
// weights, renormalized over the components present for this area. An area
// missing attractiveness data is scored on accessibility gain alone at full
// relative weight. No components, or zero total weight, yields nil.
func composite(sa *model.ScoredArea, w model.Weights) *float64 {
	var sum, totalWeight float64
	if sa.ScoreAccessibility != nil {
		sum += *sa.ScoreAccessibility * w.AccessibilityGain
		totalWeight += w.AccessibilityGain
	}
	if sa.ScoreAttractiveness != nil {
		sum += *sa.ScoreAttractiveness * w.InherentAttractiveness
		totalWeight += w.InherentAttractiveness
	}
	if totalWeight == 0 {
		return nil
	}
	score := round1(sum / totalWeight)
	return &score
}

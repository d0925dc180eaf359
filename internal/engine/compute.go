// Package engine ranks geographic areas by a tunable desirability score
// derived from travel times, property prices, and user preference weights.
// Compute is a pure function of its input: it never fetches, caches, or
// mutates the raw dataset, and for a fixed input its output is
// byte-for-byte deterministic.
package engine

import (
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Input is the full immutable input of one scoring run. The engine treats
// every field as read-only; all derived state is written into a fresh
// ScoredArea slice.
type Input struct {
	Areas   []model.Area
	Builtin []model.Reference
	Custom  []model.Reference
	Params  model.Params
}

// Compute runs the whole scoring pipeline over the dataset: constraint
// filtering, accessibility aggregation, peer-group attractiveness,
// population normalization, and the composite score. It re-runs from
// scratch on every call; there is no incremental update.
func Compute(in Input) []model.ScoredArea {
	params := sanitize(in.Params)
	refs := Resolve(in.Builtin, in.Custom)

	scored := make([]model.ScoredArea, len(in.Areas))
	included := 0
	for i, a := range in.Areas {
		sa := model.ScoredArea{Area: a}

		// Raw aggregates are computed for excluded areas too; exclusion
		// only removes an area from normalization and ranking.
		sa.Excluded = isExcluded(a, refs, params.PTFactor)
		sa.StatusQuoMin, sa.PostAVMin, sa.DeltaMin = aggregate(a, refs, params)
		sa.GainPerRef, sa.BestRef = gains(a, params)
		sa.MinDriveSec, sa.MinPTSec = minTimes(a, refs)

		if !sa.Excluded {
			included++
		}
		scored[i] = sa
	}

	attractiveness(scored)

	// Normalization bounds come only from the current non-excluded
	// population; excluded areas contribute nothing and receive nil.
	deltas := make([]*float64, len(scored))
	attrs := make([]*float64, len(scored))
	sqs := make([]*float64, len(scored))
	posts := make([]*float64, len(scored))
	for i := range scored {
		if scored[i].Excluded {
			continue
		}
		deltas[i] = scored[i].DeltaMin
		attrs[i] = scored[i].AttractivenessRaw
		sqs[i] = scored[i].StatusQuoMin
		posts[i] = scored[i].PostAVMin
	}

	normDelta := normalize(deltas, false)
	normAttr := normalize(attrs, false)
	normSQ := normalize(sqs, true)
	normPost := normalize(posts, true)

	for i := range scored {
		sa := &scored[i]
		if sa.Excluded {
			continue
		}
		sa.ScoreAccessibility = normDelta[i]
		sa.ScoreAttractiveness = normAttr[i]
		sa.ScoreStatusQuo = normSQ[i]
		sa.ScorePostAV = normPost[i]
		sa.Composite = composite(sa, params.Weights)
	}

	zap.L().Debug("engine: compute complete",
		zap.Int("areas", len(scored)),
		zap.Int("included", included),
		zap.Int("references", len(refs)),
	)
	return scored
}

// sanitize guards the comfort factors: they are multipliers in (0,1], and a
// malformed value degrades to the pipeline default instead of erroring.
func sanitize(p model.Params) model.Params {
	def := model.DefaultParams()
	if p.PTFactor <= 0 || p.PTFactor > 1 {
		zap.L().Warn("engine: pt_factor out of range, using default",
			zap.Float64("pt_factor", p.PTFactor))
		p.PTFactor = def.PTFactor
	}
	if p.AVFactor <= 0 || p.AVFactor > 1 {
		zap.L().Warn("engine: av_factor out of range, using default",
			zap.Float64("av_factor", p.AVFactor))
		p.AVFactor = def.AVFactor
	}
	if p.Weights.AccessibilityGain < 0 {
		p.Weights.AccessibilityGain = 0
	}
	if p.Weights.InherentAttractiveness < 0 {
		p.Weights.InherentAttractiveness = 0
	}
	return p
}

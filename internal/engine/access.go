package engine

import (
	"math"
	"sort"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// bestPostAVMinutes is the projected best time once autonomous driving
// shrinks perceived drive time by avFactor. Public transport is unaffected
// beyond its own comfort factor.
func bestPostAVMinutes(a model.Area, refID string, p model.Params) float64 {
	best := math.Inf(1)
	if d, ok := a.DriveTimes[refID]; ok {
		best = d / 60 * p.AVFactor
	}
	if pt, ok := a.PTTimes[refID]; ok {
		if m := pt / 60 * p.PTFactor; m < best {
			best = m
		}
	}
	return best
}

// aggregate computes the mean status-quo and post-automation burden across
// the resolved references, and their delta. A reference contributes only
// when the area has drive or PT data for it; no contributing references
// means nil. Delta may be negative where PT dominates.
func aggregate(a model.Area, refs []ResolvedRef, p model.Params) (sq, post, delta *float64) {
	var sqSum, postSum float64
	n := 0
	for _, r := range refs {
		today := bestTodayMinutes(a, r.ID, p.PTFactor)
		if math.IsInf(today, 1) {
			continue
		}
		sqSum += today
		postSum += bestPostAVMinutes(a, r.ID, p)
		n++
	}
	if n == 0 {
		return nil, nil, nil
	}
	sqv := sqSum / float64(n)
	postv := postSum / float64(n)
	d := sqv - postv
	return &sqv, &postv, &d
}

// gains computes the per-reference accessibility gain for the detail view.
// It runs against every reference present in the raw data, not just the
// resolved set, so the breakdown always shows full context. Returns the
// gain map (one-decimal minutes, nil where no data) and the reference with
// the highest gain.
func gains(a model.Area, p model.Params) (map[string]*float64, string) {
	ids := make([]string, 0, len(a.DriveTimes)+len(a.PTTimes))
	seen := make(map[string]bool, len(a.DriveTimes)+len(a.PTTimes))
	for id := range a.DriveTimes {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range a.PTTimes {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make(map[string]*float64, len(ids))
	bestRef := ""
	bestGain := math.Inf(-1)
	for _, id := range ids {
		today := bestTodayMinutes(a, id, p.PTFactor)
		if math.IsInf(today, 1) {
			out[id] = nil
			continue
		}
		g := round1(today - bestPostAVMinutes(a, id, p))
		out[id] = &g
		if g > bestGain {
			bestGain = g
			bestRef = id
		}
	}
	return out, bestRef
}

// minTimes returns the minimum raw drive and PT seconds among the resolved
// references, for the detail view.
func minTimes(a model.Area, refs []ResolvedRef) (minDrive, minPT *float64) {
	for _, r := range refs {
		if d, ok := a.DriveTimes[r.ID]; ok {
			if minDrive == nil || d < *minDrive {
				v := d
				minDrive = &v
			}
		}
		if p, ok := a.PTTimes[r.ID]; ok {
			if minPT == nil || p < *minPT {
				v := p
				minPT = &v
			}
		}
	}
	return minDrive, minPT
}

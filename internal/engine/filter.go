package engine

import (
	"math"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// bestTodayMinutes is the best choice a person can make today to reach a
// reference: manual driving at face value, or public transport shrunk by the
// comfort factor. Returns +Inf when the area has no data for the reference,
// which always violates a finite cap.
func bestTodayMinutes(a model.Area, refID string, ptFactor float64) float64 {
	best := math.Inf(1)
	if d, ok := a.DriveTimes[refID]; ok {
		best = d / 60
	}
	if p, ok := a.PTTimes[refID]; ok {
		if m := p / 60 * ptFactor; m < best {
			best = m
		}
	}
	return best
}

// isExcluded reports whether any resolved reference's cap is violated.
// Short-circuits on the first violation. An area with no data for an
// uncapped reference stays included; that reference simply contributes
// nothing to its aggregates.
func isExcluded(a model.Area, refs []ResolvedRef, ptFactor float64) bool {
	for _, r := range refs {
		if r.MaxMinutes == nil {
			continue
		}
		if bestTodayMinutes(a, r.ID, ptFactor) > *r.MaxMinutes {
			return true
		}
	}
	return false
}

package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestResolve_OrderAndFiltering(t *testing.T) {
	builtin := []model.Reference{
		{ID: "zurich", Enabled: true, MaxMinutes: fptr(45)},
		{ID: "bern", Enabled: false},
		{ID: "basel", Enabled: true},
	}
	custom := []model.Reference{
		{ID: "custom_1", Enabled: true, Custom: true},
		{ID: "custom_2", Enabled: false, Custom: true},
	}

	got := Resolve(builtin, custom)

	assert.Equal(t, []ResolvedRef{
		{ID: "zurich", MaxMinutes: fptr(45)},
		{ID: "basel"},
		{ID: "custom_1"},
	}, got)
}

func TestBestTodayMinutes_PicksComfortAdjustedBest(t *testing.T) {
	a := model.Area{
		DriveTimes: map[string]float64{"zurich": 3600},
		PTTimes:    map[string]float64{"zurich": 5400},
	}

	// drive 60 min vs PT 90*0.7 = 63 min.
	assert.Equal(t, 60.0, bestTodayMinutes(a, "zurich", 0.7))

	// A strong comfort factor flips the preference: 90*0.5 = 45 min.
	assert.Equal(t, 45.0, bestTodayMinutes(a, "zurich", 0.5))
}

func TestBestTodayMinutes_NoDataIsUnreachable(t *testing.T) {
	a := model.Area{}
	assert.True(t, math.IsInf(bestTodayMinutes(a, "zurich", 0.7), 1))
}

func TestIsExcluded_CapViolation(t *testing.T) {
	// Best time to the capped reference is 45 min against a 30 min cap.
	a := model.Area{DriveTimes: map[string]float64{"zurich": 2700}}
	refs := []ResolvedRef{{ID: "zurich", MaxMinutes: fptr(30)}}

	assert.True(t, isExcluded(a, refs, 0.7))
}

func TestIsExcluded_CapViolationWinsOverOtherReferences(t *testing.T) {
	a := model.Area{DriveTimes: map[string]float64{
		"zurich": 2700, // 45 min, cap 30 -> violated
		"bern":   600,  // 10 min, comfortably inside its cap
	}}
	refs := []ResolvedRef{
		{ID: "bern", MaxMinutes: fptr(60)},
		{ID: "zurich", MaxMinutes: fptr(30)},
	}

	assert.True(t, isExcluded(a, refs, 0.7))
}

func TestIsExcluded_UnreachableViolatesFiniteCap(t *testing.T) {
	a := model.Area{} // no data at all
	refs := []ResolvedRef{{ID: "zurich", MaxMinutes: fptr(240)}}

	assert.True(t, isExcluded(a, refs, 0.7))
}

func TestIsExcluded_MissingDataWithoutCapIsFine(t *testing.T) {
	a := model.Area{DriveTimes: map[string]float64{"zurich": 1800}}
	refs := []ResolvedRef{
		{ID: "zurich", MaxMinutes: fptr(60)},
		{ID: "bern"}, // no data for bern, but no cap either
	}

	assert.False(t, isExcluded(a, refs, 0.7))
}

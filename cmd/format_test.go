package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/ingest"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestFormatReferenceList(t *testing.T) {
	maxMin := 45.0
	refs := []model.Reference{
		{ID: "zurich", Name: "Zürich HB", Enabled: true, Lat: 47.3769, Lng: 8.5417},
		{ID: "abc-123", Name: "Grandma", Enabled: false, Custom: true, Lat: 46.8, Lng: 7.1, MaxMinutes: &maxMin},
	}

	var buf bytes.Buffer
	formatReferenceList(&buf, refs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "Zürich HB")
	assert.Contains(t, output, "builtin")
	assert.Contains(t, output, "Grandma")
	assert.Contains(t, output, "custom")
	assert.Contains(t, output, "45")
	assert.Contains(t, output, "false")
}

func TestFormatSnapshotList(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	snaps := []model.Snapshot{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			RefIDs:    []string{"zurich", "bern"},
			Summary:   model.SnapshotSummary{Areas: 4000, Scored: 3800, Excluded: 200, MedianScore: fptr(48.3)},
			CreatedAt: now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			RefIDs:    []string{"zurich"},
			Summary:   model.SnapshotSummary{Areas: 4000, Scored: 0, Excluded: 4000},
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatSnapshotList(&buf, snaps)

	output := buf.String()
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "2026-03-02 09:15")
	assert.Contains(t, output, "zurich,bern")
	assert.Contains(t, output, "48.3")
	// Median column falls back to a dash when no areas were scored.
	assert.Contains(t, output, "def12345")
	assert.Contains(t, output, "-")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestWriteScoreTable(t *testing.T) {
	scored := []model.ScoredArea{
		{
			Area:                model.Area{ID: "plz_8001", PLZ: "8001", Name: "Zürich", CantonCode: "ZH", PricePerM2: fptr(14000)},
			Composite:           fptr(42.5),
			ScoreAccessibility:  fptr(10),
			ScoreAttractiveness: fptr(75),
		},
		{
			Area:      model.Area{ID: "plz_3984", PLZ: "3984", Name: "Fieschertal", CantonCode: "VS"},
			Composite: fptr(61.2),
		},
		{
			Area:     model.Area{ID: "plz_9999", PLZ: "9999", Name: "Nirgendwo"},
			Excluded: true,
		},
	}

	var buf bytes.Buffer
	writeScoreTable(&buf, scored, engine.MetricComposite, 2)

	output := buf.String()
	assert.Contains(t, output, "Fieschertal")
	assert.Contains(t, output, "61.2")
	assert.Contains(t, output, "Zürich")
	assert.Contains(t, output, "42.5")
	// Top 2 cuts the excluded area.
	assert.NotContains(t, output, "Nirgendwo")
}

func TestWriteScoreTable_NilValues(t *testing.T) {
	scored := []model.ScoredArea{
		{Area: model.Area{ID: "plz_1", PLZ: "1000", Name: "A"}, Excluded: true},
	}

	var buf bytes.Buffer
	writeScoreTable(&buf, scored, engine.MetricComposite, 0)

	assert.Contains(t, buf.String(), "-")
}

func TestEnabledReferences(t *testing.T) {
	refs := []model.Reference{
		{ID: "a", Enabled: true},
		{ID: "b", Enabled: false},
		{ID: "c", Enabled: true},
	}

	out := enabledReferences(refs)
	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestApplyScoringOverrides(t *testing.T) {
	base := model.DefaultParams()

	assert.NoError(t, scoreCmd.Flags().Set("pt-factor", "0.9"))
	assert.NoError(t, scoreCmd.Flags().Set("weight-access", "0.8"))
	t.Cleanup(func() {
		_ = scoreCmd.Flags().Set("pt-factor", "0")
		_ = scoreCmd.Flags().Set("weight-access", "-1")
	})

	p := applyScoringOverrides(scoreCmd, base)
	assert.Equal(t, 0.9, p.PTFactor)
	assert.Equal(t, 0.8, p.Weights.AccessibilityGain)
	// Untouched knobs keep their defaults.
	assert.Equal(t, 0.7, p.AVFactor)
	assert.Equal(t, 0.5, p.Weights.InherentAttractiveness)
	// The input is not mutated.
	assert.Equal(t, 0.7, base.PTFactor)
}

func TestFormatDatasetStats(t *testing.T) {
	ds := &ingest.Dataset{
		Municipalities: map[string]ingest.Municipality{"261": {}, "351": {}},
		Areas: []model.Area{
			{ID: "plz_8001", DriveTimes: map[string]float64{"zurich": 600}, PTTimes: map[string]float64{"zurich": 700}, PricePerM2: fptr(14000), TaxMultiplier: fptr(217)},
			{ID: "plz_9999"},
		},
	}

	var buf bytes.Buffer
	formatDatasetStats(&buf, ds)

	output := buf.String()
	assert.Contains(t, output, "Municipalities:")
	assert.Contains(t, output, "2")
	assert.Contains(t, output, "Areas:")
	assert.Contains(t, output, "50.0%")
}

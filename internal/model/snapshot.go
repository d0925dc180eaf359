package model

import "time"

// SnapshotSummary holds aggregate statistics for one scoring run.
type SnapshotSummary struct {
	Areas       int      `json:"areas"`
	Scored      int      `json:"scored"`
	Excluded    int      `json:"excluded"`
	MinScore    *float64 `json:"min_score"`
	MaxScore    *float64 `json:"max_score"`
	MedianScore *float64 `json:"median_score"`
}

// Snapshot records the parameters and outcome of one scoring run so past
// runs can be compared after the knobs change.
type Snapshot struct {
	ID        string          `json:"id"`
	Params    Params          `json:"params"`
	RefIDs    []string        `json:"ref_ids"`
	Summary   SnapshotSummary `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
}

package engine

import "github.com/Kaiman22/autonomy-explorer/internal/model"

// ResolvedRef is an enabled reference with its travel-time cap. Nil
// MaxMinutes means unconstrained.
type ResolvedRef struct {
	ID         string
	MaxMinutes *float64
}

// Resolve merges the enabled built-in references and the enabled custom
// references into one ordered list: built-ins in insertion order, then
// customs. Order carries no semantics (aggregation is order-independent)
// but keeps output snapshots stable.
func Resolve(builtin, custom []model.Reference) []ResolvedRef {
	out := make([]ResolvedRef, 0, len(builtin)+len(custom))
	for _, r := range builtin {
		if r.Enabled {
			out = append(out, ResolvedRef{ID: r.ID, MaxMinutes: r.MaxMinutes})
		}
	}
	for _, r := range custom {
		if r.Enabled {
			out = append(out, ResolvedRef{ID: r.ID, MaxMinutes: r.MaxMinutes})
		}
	}
	return out
}

package engine

import (
	"math"
	"sort"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// minPeers is the smallest peer group that yields a meaningful percentile.
const minPeers = 5

// peerMargin is the half-width of an area's accessibility window in minutes.
// The fixed floor prevents degenerate tiny windows for very short commutes.
func peerMargin(sq float64) float64 {
	return math.Max(5, sq*0.15)
}

type peerEntry struct {
	idx   int // index into the scored slice
	sq    float64
	price float64
}

// attractiveness fills PricePercentile and AttractivenessRaw for every area
// with a status-quo accessibility and a positive price. "Cheap" only means
// something relative to areas with a comparable commute, so each area's
// price is ranked within a window of peers around its own accessibility.
// An area is always inside its own window; ties in price do not count as
// cheaper. Fewer than minPeers peers leaves both fields nil.
func attractiveness(scored []model.ScoredArea) {
	entries := make([]peerEntry, 0, len(scored))
	for i := range scored {
		sa := &scored[i]
		if sa.StatusQuoMin == nil || sa.PricePerM2 == nil || *sa.PricePerM2 <= 0 {
			continue
		}
		entries = append(entries, peerEntry{idx: i, sq: *sa.StatusQuoMin, price: *sa.PricePerM2})
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].sq != entries[b].sq {
			return entries[a].sq < entries[b].sq
		}
		return scored[entries[a].idx].ID < scored[entries[b].idx].ID
	})

	for i, e := range entries {
		margin := peerMargin(e.sq)
		lo, hi := e.sq-margin, e.sq+margin

		// Walk outward from the sorted position instead of rescanning
		// the whole population per area.
		peers := 0
		cheaper := 0
		for j := i; j >= 0 && entries[j].sq >= lo; j-- {
			peers++
			if entries[j].price < e.price {
				cheaper++
			}
		}
		for j := i + 1; j < len(entries) && entries[j].sq <= hi; j++ {
			peers++
			if entries[j].price < e.price {
				cheaper++
			}
		}

		if peers < minPeers {
			continue
		}

		percentile := 100 * float64(cheaper) / float64(peers)
		pct := int(math.Round(percentile))
		attr := round1(100 - percentile)

		scored[e.idx].PricePercentile = &pct
		scored[e.idx].AttractivenessRaw = &attr
	}
}

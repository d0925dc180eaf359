package engine

import "math"

// normalize rescales raw values to a 0-100 scale using min-max bounds
// computed from the non-nil values only. Callers blank out the values of
// excluded areas before calling, so the bounds always come from the current
// included population. Inverted mode is for metrics where lower raw is
// better. An all-equal population collapses to a uniform 0 (the range is
// floored to 1 rather than dividing by zero).
func normalize(vals []*float64, invert bool) []*float64 {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range vals {
		if v == nil {
			continue
		}
		if *v < lo {
			lo = *v
		}
		if *v > hi {
			hi = *v
		}
	}

	out := make([]*float64, len(vals))
	if math.IsInf(lo, 1) {
		return out
	}

	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		var score float64
		if invert {
			score = (hi - *v) / rng * 100
		} else {
			score = (*v - lo) / rng * 100
		}
		score = round1(score)
		out[i] = &score
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

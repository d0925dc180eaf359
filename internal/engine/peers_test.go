package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// peerArea builds a scored area with a fixed status-quo accessibility and price.
func peerArea(id string, sq, price float64) model.ScoredArea {
	return model.ScoredArea{
		Area:         model.Area{ID: id, PricePerM2: &price},
		StatusQuoMin: &sq,
	}
}

func TestAttractiveness_SevenPeerScenario(t *testing.T) {
	// Six peers priced 3000..8000 plus the subject at 5000, all with the
	// same accessibility: 7 peers, 2 strictly cheaper than 5000.
	scored := []model.ScoredArea{
		peerArea("self", 30, 5000),
		peerArea("p1", 30, 3000),
		peerArea("p2", 30, 4000),
		peerArea("p3", 30, 5000),
		peerArea("p4", 30, 6000),
		peerArea("p5", 30, 7000),
		peerArea("p6", 30, 8000),
	}

	attractiveness(scored)

	require.NotNil(t, scored[0].PricePercentile)
	require.NotNil(t, scored[0].AttractivenessRaw)
	assert.Equal(t, 29, *scored[0].PricePercentile) // 100*2/7 rounded
	assert.Equal(t, 71.4, *scored[0].AttractivenessRaw)
}

func TestAttractiveness_FewerThanFivePeersIsNil(t *testing.T) {
	scored := []model.ScoredArea{
		peerArea("a", 30, 5000),
		peerArea("b", 30, 6000),
		peerArea("c", 30, 7000),
		peerArea("d", 30, 8000),
	}

	attractiveness(scored)

	for _, sa := range scored {
		assert.Nil(t, sa.PricePercentile, sa.ID)
		assert.Nil(t, sa.AttractivenessRaw, sa.ID)
	}
}

func TestAttractiveness_WindowExcludesDistantAccessibility(t *testing.T) {
	// Subject at 30 min: margin max(5, 4.5) = 5, window [25, 35]. The 60-minute
	// areas are a different commute class and must not be peers.
	scored := []model.ScoredArea{
		peerArea("self", 30, 5000),
		peerArea("near1", 27, 3000),
		peerArea("near2", 33, 4000),
		peerArea("far1", 60, 1000),
		peerArea("far2", 60, 1500),
		peerArea("far3", 60, 2000),
	}

	attractiveness(scored)

	// Only 3 peers in the window -> below the minimum, stays nil.
	assert.Nil(t, scored[0].PricePercentile)
}

func TestAttractiveness_AllTiedPricesMeansMaximalBargain(t *testing.T) {
	// Equal prices are not "cheaper": percentile 0, attractiveness 100.
	// Documented edge case, not a bug.
	scored := make([]model.ScoredArea, 6)
	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		scored[i] = peerArea(id, 40, 4200)
	}

	attractiveness(scored)

	for _, sa := range scored {
		require.NotNil(t, sa.PricePercentile, sa.ID)
		assert.Equal(t, 0, *sa.PricePercentile, sa.ID)
		assert.Equal(t, 100.0, *sa.AttractivenessRaw, sa.ID)
	}
}

func TestAttractiveness_MonotonicInPriceWithinWindow(t *testing.T) {
	prices := []float64{2800, 3100, 3400, 3700, 4000, 4300, 4600}
	scored := make([]model.ScoredArea, len(prices))
	for i, p := range prices {
		scored[i] = peerArea(string(rune('a'+i)), 50, p)
	}

	attractiveness(scored)

	for i := 1; i < len(scored); i++ {
		require.NotNil(t, scored[i].PricePercentile)
		assert.LessOrEqual(t,
			*scored[i-1].PricePercentile,
			*scored[i].PricePercentile,
			"cheaper area must not rank above a pricier peer",
		)
	}
}

func TestAttractiveness_SkipsAreasWithoutPriceOrAccessibility(t *testing.T) {
	noPrice := model.ScoredArea{Area: model.Area{ID: "np"}, StatusQuoMin: fptr(30)}
	zeroPrice := peerArea("zp", 30, 0)
	noAccess := model.ScoredArea{Area: model.Area{ID: "na", PricePerM2: fptr(5000)}}

	scored := []model.ScoredArea{noPrice, zeroPrice, noAccess}
	for i := 0; i < 6; i++ {
		scored = append(scored, peerArea(string(rune('a'+i)), 30, 3000+float64(i)*500))
	}

	attractiveness(scored)

	assert.Nil(t, scored[0].PricePercentile)
	assert.Nil(t, scored[1].PricePercentile)
	assert.Nil(t, scored[2].PricePercentile)
	// The valid ones still get ranked.
	assert.NotNil(t, scored[3].PricePercentile)
}

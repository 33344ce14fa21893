package discovery_test

import (
	"math"
	"testing"

	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/stretchr/testify/assert"
)

func richPair() domain.Candidate {
	c := pair("RICH", 150_000, 0.5)
	c.Volume24hUSD = 2_500_000
	c.Volume1hUSD = 800_000
	c.TxCount24h = 5_000
	c.PriceChange24 = 300
	c.MarketCapUSD = 400_000
	return c
}

func TestScore_Idempotent(t *testing.T) {
	s := discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())
	c := pair("X", 12_000, 3)
	c.Volume24hUSD = 40_000
	c.Volume1hUSD = 4_000
	c.TxCount24h = 120
	c.PriceChange24 = 25
	c.MarketCapUSD = 90_000

	assert.Equal(t, s.Score(c), s.Score(c))
}

func TestScore_Bounded(t *testing.T) {
	s := discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())
	cases := []domain.Candidate{
		pair("empty", 0, -1),
		richPair(),
		{PairID: "huge", LiquidityUSD: math.MaxFloat64, Volume24hUSD: math.MaxFloat64, TxCount24h: math.MaxInt32, PriceChange24: math.MaxFloat64},
		{PairID: "neg", PriceChange24: -100, Volume24hUSD: 1e9},
	}
	for _, c := range cases {
		sc := s.Score(c)
		assert.GreaterOrEqual(t, sc.CompositeScore, 0.0, c.PairID)
		assert.LessOrEqual(t, sc.CompositeScore, discovery.MaxCompositeScore, c.PairID)
		assert.Len(t, sc.SubScores, 4)
		for name, v := range sc.SubScores {
			assert.GreaterOrEqual(t, v, 0.0, "%s %s", c.PairID, name)
			assert.LessOrEqual(t, v, 1.0, "%s %s", c.PairID, name)
		}
	}
}

func TestScore_MaxedCandidateHitsCeiling(t *testing.T) {
	s := discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())
	c := richPair()
	c.LiquidityUSD = 200_000 // respaldo 50% del cap

	sc := s.Score(c)
	assert.InDelta(t, discovery.MaxCompositeScore, sc.CompositeScore, 1e-9)
	assert.Equal(t, "STRONG", sc.Classification)
}

func TestScore_EmptyCandidate(t *testing.T) {
	s := discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())
	sc := s.Score(pair("X", 0, -1))

	assert.Equal(t, 0.0, sc.CompositeScore)
	assert.Equal(t, "SPECULATIVE", sc.Classification)
}

func TestScore_ConfiguredBands(t *testing.T) {
	bands := []discovery.Band{{Label: "LOW", Min: 1}, {Label: "HIGH", Min: 5}}
	s := discovery.NewScorer(discovery.Weights{Freshness: 1}, bands)

	assert.Equal(t, "HIGH", s.Score(pair("new", 0, 0.5)).Classification) // freshness 1.0 → 10
	assert.Equal(t, "LOW", s.Score(pair("mid", 0, 30)).Classification)   // 0.2 → 2
	assert.Equal(t, discovery.UnratedLabel, s.Score(pair("old", 0, 100)).Classification)
}

func TestNewScorer_NormalizesWeights(t *testing.T) {
	a := discovery.NewScorer(discovery.Weights{Freshness: 2, Activity: 2}, nil)
	b := discovery.NewScorer(discovery.Weights{Freshness: 0.5, Activity: 0.5}, nil)
	c := richPair()

	assert.Equal(t, a.Score(c).CompositeScore, b.Score(c).CompositeScore)
}

func TestNewScorer_InvalidWeightsFallBackToDefaults(t *testing.T) {
	bad := discovery.NewScorer(discovery.Weights{Freshness: -1, Activity: 3}, nil)
	def := discovery.NewScorer(discovery.DefaultWeights(), nil)
	c := pair("X", 12_000, 3)

	assert.Equal(t, def.Score(c).CompositeScore, bad.Score(c).CompositeScore)
}

func TestScore_FresherScoresHigherAllElseEqual(t *testing.T) {
	s := discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())
	young := s.Score(pair("Y", 5_000, 0.5))
	old := s.Score(pair("O", 5_000, 50))

	assert.Greater(t, young.CompositeScore, old.CompositeScore)
}

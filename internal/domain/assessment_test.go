package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observedAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func aged(c Candidate, hours float64) Candidate {
	c.ObservedAt = observedAt
	c.CreatedAt = observedAt.Add(-time.Duration(hours * float64(time.Hour)))
	return c
}

// --- AlertType ---

func TestAlertType(t *testing.T) {
	cases := []struct {
		name        string
		c           Candidate
		opportunity float64
		want        string
	}{
		{"first hour", aged(Candidate{}, 0.5), 0, AlertBrandNewLaunch},
		{"viral turnover", aged(Candidate{LiquidityUSD: 1_000, Volume24hUSD: 2_000}, 5), 0, AlertViralFresh},
		{"trending volume", aged(Candidate{LiquidityUSD: 100_000, Volume24hUSD: 10_000}, 10), 0, AlertTrendingNew},
		{"fresh launch", aged(Candidate{}, 20), 0, AlertFreshLaunch},
		{"recent with good score", aged(Candidate{}, 40), 0.7, AlertRecentOpportunity},
		{"recent with weak score", aged(Candidate{}, 40), 0.5, AlertEmerging},
		{"old high turnover", aged(Candidate{LiquidityUSD: 1_000, Volume24hUSD: 5_000}, 100), 0, AlertHighMomentum},
		{"unknown age high volume", Candidate{LiquidityUSD: 1_000_000, Volume24hUSD: 50_000}, 0, AlertHighVolume},
		{"nothing notable", Candidate{}, 0, AlertEmerging},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AlertType(tc.c, tc.opportunity))
		})
	}
}

// --- Reasoning ---

func TestReasoning(t *testing.T) {
	c := aged(Candidate{LiquidityUSD: 10_000, Volume24hUSD: 25_000, TxCount24h: 140, PriceChange24: 12.5}, 3)
	subs := map[string]float64{SubScoreFreshness: 0.8, SubScoreMomentum: 0.5}

	assert.Equal(t,
		"BRAND_NEW (3.0h old), $10000 liq, $25000 vol, 2.5x turnover, 140 txns, +12.5% 24h, MEDIUM momentum",
		Reasoning(c, subs))

	assert.Contains(t, Reasoning(Candidate{}, nil), "RECENT (age unknown)")
	assert.Contains(t, Reasoning(Candidate{}, nil), "LOW momentum")
}

// --- BuySellRatio ---

func TestBuySellRatio(t *testing.T) {
	_, ok := Candidate{Buys24h: 10}.BuySellRatio()
	assert.False(t, ok)

	r, ok := Candidate{Buys24h: 30, Sells24h: 10}.BuySellRatio()
	require.True(t, ok)
	assert.InDelta(t, 3.0, r, 1e-9)
}

// --- Assess ---

func healthy() Candidate {
	return aged(Candidate{
		LiquidityUSD:  60_000,
		MarketCapUSD:  200_000,
		Volume24hUSD:  48_000,
		Volume1hUSD:   10_000, // spike 400%
		TxCount24h:    400,
		Buys24h:       300,
		Sells24h:      100,
		PriceChange1h: 35,
		PriceChange24: 80,
	}, 200)
}

func TestAssess_HealthyPair(t *testing.T) {
	a := Assess(healthy())

	assert.False(t, a.Critical)
	assert.Empty(t, a.RedFlags)
	assert.Contains(t, a.GoodSigns, "Excellent liquidity: $60000")
	assert.Contains(t, a.GoodSigns, "Excellent buy/sell ratio: 3.0:1")
	assert.Contains(t, a.GoodSigns, "Massive volume spike: 400%")
	assert.Contains(t, a.GoodSigns, "Consistent upward momentum")
	assert.Contains(t, a.GoodSigns, "Pair age: 8.3 days (established)")
	assert.Equal(t, []string{NotVerifiedWarning}, a.Warnings, "unverifiable signals are labelled, not invented")
}

func TestAssess_PoorBuySellRatioIsCritical(t *testing.T) {
	c := healthy()
	c.Buys24h, c.Sells24h = 15, 85

	a := Assess(c)
	assert.True(t, a.Critical)
	assert.Contains(t, a.RedFlags, "Poor buy/sell ratio: 0.2:1")
}

func TestAssess_LowLiquidityIsCritical(t *testing.T) {
	c := healthy()
	c.LiquidityUSD = 1_200

	a := Assess(c)
	assert.True(t, a.Critical)
	assert.Contains(t, a.RedFlags, "Low liquidity: $1200")
}

func TestAssess_DumpAndDowntrend(t *testing.T) {
	c := healthy()
	c.PriceChange1h = -5
	c.PriceChange24 = -40
	c.Volume24hUSD = 120_000

	a := Assess(c)
	assert.False(t, a.Critical)
	assert.Contains(t, a.RedFlags, "Negative 1h trend: -5.0%")
	assert.Contains(t, a.RedFlags, "Consistent downward momentum")
	assert.Contains(t, a.RedFlags, "Potential whale dumping: -40.0% on $120000 volume")
}

func TestAssess_UnknownDataIsAWarning(t *testing.T) {
	a := Assess(Candidate{LiquidityUSD: 30_000, Volume24hUSD: 6_000, TxCount24h: 30})

	assert.Contains(t, a.Warnings, "Market cap not reported")
	assert.Contains(t, a.Warnings, "Pair age unknown")
	for _, flag := range a.RedFlags {
		assert.NotContains(t, flag, "buy/sell", "no sells means no ratio")
	}
}

// --- Recommend ---

func TestRecommend(t *testing.T) {
	cases := []struct {
		score    float64
		critical bool
		rec      string
		risk     string
	}{
		{9.0, false, RecommendStrongBuy, RiskLow},
		{8.5, false, RecommendStrongBuy, RiskLow},
		{7.0, false, RecommendBuy, RiskMedium},
		{5.5, false, RecommendCaution, RiskMedium},
		{4.0, false, RecommendRisky, RiskHigh},
		{3.9, false, RecommendAvoid, RiskHigh},
		{9.9, true, RecommendAvoid, RiskHigh},
	}
	for _, tc := range cases {
		rec, risk := Recommend(tc.score, tc.critical)
		assert.Equal(t, tc.rec, rec, "score %.1f critical %v", tc.score, tc.critical)
		assert.Equal(t, tc.risk, risk, "score %.1f critical %v", tc.score, tc.critical)
	}
}

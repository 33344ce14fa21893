package domain

import (
	"math"
	"time"
)

// Nombres de los sub-scores.
const (
	SubScoreFreshness   = "freshness"
	SubScoreActivity    = "activity"
	SubScoreMomentum    = "momentum"
	SubScoreSafetyProxy = "safety_proxy"
)

// step es un escalón: si el valor es >= min, aporta points.
// Las tablas van de mayor a menor min; gana el primer escalón que cumple.
type step struct {
	min    float64
	points float64
}

func stepScore(v float64, steps []step) float64 {
	for _, s := range steps {
		if v >= s.min {
			return s.points
		}
	}
	return 0
}

var (
	freshnessSteps = []struct {
		maxHours float64
		points   float64
	}{
		{1, 1.0},
		{6, 0.8},
		{12, 0.6},
		{24, 0.4},
		{48, 0.2},
		{72, 0.1},
	}

	activityLiquidity = []step{
		{100_000, 0.35}, {50_000, 0.30}, {25_000, 0.25},
		{10_000, 0.20}, {5_000, 0.12}, {1_000, 0.06},
	}
	activityVolume = []step{
		{500_000, 0.35}, {100_000, 0.30}, {50_000, 0.25},
		{10_000, 0.18}, {5_000, 0.12}, {1_000, 0.08}, {100, 0.04},
	}
	activityTxns = []step{
		{500, 0.30}, {200, 0.24}, {100, 0.18},
		{50, 0.12}, {20, 0.08}, {10, 0.04},
	}

	momentumPriceChange = []step{
		{100, 0.40}, {50, 0.30}, {20, 0.20}, {10, 0.10}, {math.SmallestNonzeroFloat64, 0.05},
	}
	momentumTurnover = []step{
		{10, 0.30}, {5, 0.25}, {3, 0.20}, {1.5, 0.12}, {1, 0.08}, {0.5, 0.04},
	}
	momentumSpike = []step{
		{500, 0.30}, {200, 0.22}, {100, 0.15}, {50, 0.08},
	}

	safetyLiquidity = []step{
		{100_000, 0.40}, {50_000, 0.30}, {25_000, 0.20},
		{10_000, 0.15}, {5_000, 0.10}, {1_000, 0.05},
	}
	// Ratio liquidez / market cap: cuanto más respaldo, menos fácil de manipular.
	safetyBacking = []step{
		{0.20, 0.30}, {0.10, 0.22}, {0.05, 0.15}, {0.02, 0.08},
	}
	safetyTxns = []step{
		{200, 0.30}, {100, 0.25}, {50, 0.20}, {20, 0.15}, {10, 0.10}, {5, 0.05},
	}
)

const (
	dumpPriceChangePct = -20.0
	dumpMinVolumeUSD   = 50_000.0
	dumpPenalty        = 0.3

	// Con menos transacciones el ratio compras/ventas es ruido.
	sellPressureMinTxns   = 20
	sellPressurePenalty   = 0.10
	heavySellPenalty      = 0.20
	heavySellRatioCeiling = 0.5
)

// FreshnessScore es una función escalonada no creciente de la edad.
// Edad desconocida puntúa 0.
func FreshnessScore(ageHours float64, known bool) float64 {
	if !known {
		return 0
	}
	for _, s := range freshnessSteps {
		if ageHours <= s.maxHours {
			return s.points
		}
	}
	return 0
}

// ActivityScore combina bandas de liquidez, volumen 24h y transacciones. Rango [0, 1].
func ActivityScore(c Candidate) float64 {
	score := stepScore(c.LiquidityUSD, activityLiquidity) +
		stepScore(c.Volume24hUSD, activityVolume) +
		stepScore(float64(c.TxCount24h), activityTxns)
	return clamp01(score)
}

// MomentumScore combina cambio de precio 24h, rotación volumen/liquidez y spike
// de volumen horario. Rango [0, 1].
func MomentumScore(c Candidate) float64 {
	score := stepScore(c.PriceChange24, momentumPriceChange) +
		stepScore(c.VolumeToLiquidity(), momentumTurnover) +
		stepScore(c.VolumeSpikePct(), momentumSpike)
	return clamp01(score)
}

// SafetyProxyScore es una heurística a partir de datos observables: liquidez,
// respaldo de liquidez frente al market cap y número de transacciones.
// Penaliza caídas fuertes con volumen alto y más ventas que compras.
// No es una garantía de seguridad. Rango [0, 1].
func SafetyProxyScore(c Candidate) float64 {
	score := stepScore(c.LiquidityUSD, safetyLiquidity) +
		stepScore(float64(c.TxCount24h), safetyTxns)
	if c.MarketCapUSD > 0 {
		score += stepScore(c.LiquidityUSD/c.MarketCapUSD, safetyBacking)
	}
	if c.PriceChange24 < dumpPriceChangePct && c.Volume24hUSD > dumpMinVolumeUSD {
		score -= dumpPenalty
	}
	if ratio, ok := c.BuySellRatio(); ok && c.Buys24h+c.Sells24h >= sellPressureMinTxns {
		switch {
		case ratio < heavySellRatioCeiling:
			score -= heavySellPenalty
		case ratio < 1:
			score -= sellPressurePenalty
		}
	}
	return clamp01(score)
}

// SubScores calcula todos los sub-scores de c con la edad evaluada en now.
func SubScores(c Candidate, now time.Time) map[string]float64 {
	age, known := c.AgeHours(now)
	return map[string]float64{
		SubScoreFreshness:   FreshnessScore(age, known),
		SubScoreActivity:    ActivityScore(c),
		SubScoreMomentum:    MomentumScore(c),
		SubScoreSafetyProxy: SafetyProxyScore(c),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

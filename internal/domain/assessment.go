package domain

import (
	"fmt"
	"math"
)

// Etiquetas de alerta por par. AlertType prioriza la frescura.
const (
	AlertBrandNewLaunch    = "BRAND_NEW_LAUNCH"
	AlertViralFresh        = "VIRAL_FRESH_TOKEN"
	AlertTrendingNew       = "TRENDING_NEW_TOKEN"
	AlertFreshLaunch       = "FRESH_LAUNCH"
	AlertRecentOpportunity = "RECENT_OPPORTUNITY"
	AlertHighMomentum      = "HIGH_MOMENTUM_TOKEN"
	AlertHighVolume        = "HIGH_VOLUME_OPPORTUNITY"
	AlertEmerging          = "EMERGING_OPPORTUNITY"
)

// Recomendaciones y niveles de riesgo del análisis de un token.
const (
	RecommendStrongBuy = "STRONG BUY"
	RecommendBuy       = "BUY"
	RecommendCaution   = "CAUTION"
	RecommendRisky     = "RISKY"
	RecommendAvoid     = "AVOID"

	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// AlertType etiqueta un par. opportunity es el score compuesto normalizado a [0, 1].
func AlertType(c Candidate, opportunity float64) string {
	age, known := c.AgeHours(c.ObservedAt)
	turnover := c.VolumeToLiquidity()
	switch {
	case known && age <= 1:
		return AlertBrandNewLaunch
	case known && age <= 6 && turnover >= 2:
		return AlertViralFresh
	case known && age <= 12 && c.Volume24hUSD >= 10_000:
		return AlertTrendingNew
	case known && age <= 24:
		return AlertFreshLaunch
	case known && age <= 48 && opportunity > 0.6:
		return AlertRecentOpportunity
	case turnover >= 5:
		return AlertHighMomentum
	case c.Volume24hUSD >= 50_000:
		return AlertHighVolume
	default:
		return AlertEmerging
	}
}

// Reasoning resume en una línea las métricas que explican el score.
func Reasoning(c Candidate, subs map[string]float64) string {
	fresh := subs[SubScoreFreshness]
	freshness := "RECENT"
	switch {
	case fresh > 0.7:
		freshness = "BRAND_NEW"
	case fresh > 0.5:
		freshness = "VERY_FRESH"
	case fresh > 0.3:
		freshness = "FRESH"
	}

	mom := subs[SubScoreMomentum]
	momentum := "LOW"
	switch {
	case mom > 0.8:
		momentum = "VIRAL"
	case mom > 0.6:
		momentum = "HIGH"
	case mom > 0.4:
		momentum = "MEDIUM"
	}

	age := "age unknown"
	if h, ok := c.AgeHours(c.ObservedAt); ok {
		age = fmt.Sprintf("%.1fh old", h)
	}

	return fmt.Sprintf("%s (%s), $%.0f liq, $%.0f vol, %.1fx turnover, %d txns, %+.1f%% 24h, %s momentum",
		freshness, age, c.LiquidityUSD, c.Volume24hUSD, c.VolumeToLiquidity(),
		c.TxCount24h, c.PriceChange24, momentum)
}

// Assessment son las señales observables de un par, agrupadas por gravedad.
// Critical marca señales que fuerzan AVOID sea cual sea el score.
type Assessment struct {
	RedFlags  []string
	Warnings  []string
	GoodSigns []string
	Critical  bool
}

func (a *Assessment) red(critical bool, format string, args ...any) {
	a.RedFlags = append(a.RedFlags, fmt.Sprintf(format, args...))
	a.Critical = a.Critical || critical
}

func (a *Assessment) warn(format string, args ...any) {
	a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
}

func (a *Assessment) good(format string, args ...any) {
	a.GoodSigns = append(a.GoodSigns, fmt.Sprintf(format, args...))
}

// NotVerifiedWarning acompaña siempre al análisis: el proveedor no informa
// del bloqueo de liquidez ni de la distribución de holders.
const NotVerifiedWarning = "Liquidity lock, contract ownership and holder distribution are not verified"

// Assess evalúa un par con los datos que el proveedor realmente informa.
func Assess(c Candidate) Assessment {
	var a Assessment

	switch liq := c.LiquidityUSD; {
	case liq >= 50_000:
		a.good("Excellent liquidity: $%.0f", liq)
	case liq >= 20_000:
		a.good("Good liquidity: $%.0f", liq)
	case liq >= 5_000:
		a.warn("Moderate liquidity: $%.0f", liq)
	default:
		a.red(true, "Low liquidity: $%.0f", liq)
	}

	switch mcap := c.MarketCapUSD; {
	case mcap <= 0:
		a.warn("Market cap not reported")
	case mcap > 500_000:
		a.warn("Large market cap: $%.0f (less upside)", mcap)
	case mcap >= 10_000:
		a.good("Good market cap: $%.0f", mcap)
	case mcap >= 5_000:
		a.warn("Small market cap: $%.0f", mcap)
	default:
		a.red(false, "Very small market cap: $%.0f", mcap)
	}

	switch vol := c.Volume24hUSD; {
	case vol >= 20_000:
		a.good("High volume: $%.0f", vol)
	case vol >= 5_000:
		a.good("Good volume: $%.0f", vol)
	default:
		a.red(false, "Low volume: $%.0f", vol)
	}

	switch txns := c.TxCount24h; {
	case txns >= 100:
		a.good("Active trading: %d transactions", txns)
	case txns >= 20:
		a.warn("Moderate activity: %d transactions", txns)
	default:
		a.red(false, "Low activity: %d transactions", txns)
	}

	if c.Volume24hUSD > 0 {
		switch spike := c.VolumeSpikePct(); {
		case spike >= 300:
			a.good("Massive volume spike: %.0f%%", spike)
		case spike >= 150:
			a.good("Strong volume spike: %.0f%%", spike)
		case spike >= 50:
			a.warn("Moderate volume spike: %.0f%%", spike)
		default:
			a.red(false, "No volume spike: %.0f%%", spike)
		}
	}

	if ratio, ok := c.BuySellRatio(); ok {
		switch {
		case ratio >= 3:
			a.good("Excellent buy/sell ratio: %.1f:1", ratio)
		case ratio >= 2:
			a.good("Good buy/sell ratio: %.1f:1", ratio)
		case ratio >= 1:
			a.warn("Balanced buy/sell ratio: %.1f:1", ratio)
		default:
			a.red(true, "Poor buy/sell ratio: %.1f:1", ratio)
		}
	}

	switch pc := c.PriceChange1h; {
	case pc >= 30:
		a.good("Strong 1h trend: %+.1f%%", pc)
	case pc >= 15:
		a.good("Positive 1h trend: %+.1f%%", pc)
	case pc >= 0:
		a.warn("Flat 1h trend: %+.1f%%", pc)
	default:
		a.red(false, "Negative 1h trend: %+.1f%%", pc)
	}

	switch {
	case c.PriceChange24 > 0 && c.PriceChange1h > 0:
		a.good("Consistent upward momentum")
	case c.PriceChange24 < 0 && c.PriceChange1h < 0:
		a.red(false, "Consistent downward momentum")
	}

	if c.PriceChange24 < dumpPriceChangePct && c.Volume24hUSD > dumpMinVolumeUSD {
		a.red(false, "Potential whale dumping: %+.1f%% on $%.0f volume", c.PriceChange24, c.Volume24hUSD)
	}

	switch age, known := c.AgeHours(c.ObservedAt); {
	case !known:
		a.warn("Pair age unknown")
	case age > 168:
		a.good("Pair age: %.1f days (established)", age/24)
	case age > 24:
		a.warn("Pair age: %.1f hours (new)", age)
	default:
		a.red(false, "Pair age: %.1f hours (very new)", age)
	}

	a.warn(NotVerifiedWarning)
	return a
}

// Recommend traduce un score compuesto (0-10) y la presencia de señales
// críticas en recomendación y nivel de riesgo.
func Recommend(score float64, critical bool) (recommendation, risk string) {
	switch {
	case critical || math.IsNaN(score):
		return RecommendAvoid, RiskHigh
	case score >= 8.5:
		return RecommendStrongBuy, RiskLow
	case score >= 7.0:
		return RecommendBuy, RiskMedium
	case score >= 5.5:
		return RecommendCaution, RiskMedium
	case score >= 4.0:
		return RecommendRisky, RiskHigh
	default:
		return RecommendAvoid, RiskHigh
	}
}

// TokenReport es el análisis bajo demanda de un token: su par más líquido
// puntuado, las señales observables y la recomendación resultante.
type TokenReport struct {
	TokenAddress   string
	PairsFound     int
	Pair           ScoredCandidate
	Assessment     Assessment
	Recommendation string
	Risk           string
}

package domain

import (
	"math"
	"time"
)

// Candidate es un par de trading descubierto en un instante de observación.
// PairID es la única clave de identidad: dos Candidates con el mismo PairID
// son la misma entidad lógica.
type Candidate struct {
	PairID       string
	ChainID      string
	Venue        string
	URL          string
	BaseAssetID  string
	QuoteAssetID string
	BaseSymbol   string
	QuoteSymbol  string

	LiquidityUSD  float64
	Volume24hUSD  float64
	Volume1hUSD   float64
	MarketCapUSD  float64
	PriceUSD      float64
	PriceChange24 float64 // %
	PriceChange1h float64 // %

	TxCount24h int
	Buys24h    int
	Sells24h   int

	// CreatedAt es cero cuando el proveedor no informa la creación del par.
	CreatedAt  time.Time
	ObservedAt time.Time

	// Source es el nombre de la estrategia que produjo el registro.
	Source string
}

// HasCreatedAt indica si la edad del par es conocida.
func (c Candidate) HasCreatedAt() bool {
	return !c.CreatedAt.IsZero()
}

// MaxClockSkew es el margen tolerado entre el reloj del proveedor y el nuestro.
// Una creación más allá de now + MaxClockSkew se trata como edad desconocida.
const MaxClockSkew = 5 * time.Minute

// AgeHours devuelve la edad del par en horas respecto a now.
// ok es false cuando CreatedAt es desconocido o está en el futuro más allá
// de MaxClockSkew. Dentro del margen la edad es 0.
func (c Candidate) AgeHours(now time.Time) (hours float64, ok bool) {
	if !c.HasCreatedAt() || c.CreatedAt.After(now.Add(MaxClockSkew)) {
		return 0, false
	}
	h := now.Sub(c.CreatedAt).Hours()
	if h < 0 {
		h = 0
	}
	return h, true
}

// VolumeSpikePct compara el volumen de la última hora con el promedio horario
// implícito en el volumen de 24h. 0 si no hay volumen de 24h.
//
//	spike = max(0, (vol1h / (vol24h / 24) - 1) × 100)
func (c Candidate) VolumeSpikePct() float64 {
	if c.Volume24hUSD <= 0 {
		return 0
	}
	hourlyAvg := c.Volume24hUSD / 24
	return math.Max(0, (c.Volume1hUSD/hourlyAvg-1)*100)
}

// VolumeToLiquidity devuelve volume24h / liquidez, 0 si no hay liquidez.
func (c Candidate) VolumeToLiquidity() float64 {
	if c.LiquidityUSD <= 0 {
		return 0
	}
	return c.Volume24hUSD / c.LiquidityUSD
}

// BuySellRatio devuelve compras/ventas de 24h. ok es false si no hubo ventas.
func (c Candidate) BuySellRatio() (ratio float64, ok bool) {
	if c.Sells24h <= 0 {
		return 0, false
	}
	return float64(c.Buys24h) / float64(c.Sells24h), true
}

// Merge aplica una observación posterior del mismo par sobre c.
// Los campos mutables se toman de later; CreatedAt no cambia una vez conocido.
func (c Candidate) Merge(later Candidate) Candidate {
	merged := later
	if c.HasCreatedAt() {
		merged.CreatedAt = c.CreatedAt
	}
	return merged
}

// ScoredCandidate es un Candidate con sus sub-scores, score compuesto y etiqueta.
// Alert y Reason describen el par para el notificador; no se persisten.
type ScoredCandidate struct {
	Candidate
	SubScores      map[string]float64
	CompositeScore float64
	Classification string
	Alert          string
	Reason         string
}

// QueryKind indica el tipo de consulta al proveedor.
type QueryKind string

const (
	QueryToken  QueryKind = "token"
	QuerySearch QueryKind = "search"
)

// Query es una petición saliente al proveedor de datos de mercado.
type Query struct {
	Kind  QueryKind
	Value string
}

// PairBatch es el resultado normalizado de una consulta.
// Malformed cuenta los registros descartados por falta de identidad.
type PairBatch struct {
	Candidates []Candidate
	Malformed  int
}

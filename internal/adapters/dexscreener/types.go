package dexscreener

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DTOs raw de la API de DexScreener. Solo se usan dentro de este paquete.
// La conversión a domain.Candidate se hace en mapping.go.

// pairsEnvelope es la respuesta de /dex/tokens y /dex/search.
// Cada par se guarda en bruto para normalizarlo por separado: un registro
// roto no debe invalidar el resto del lote.
type pairsEnvelope struct {
	Pairs []json.RawMessage `json:"pairs"`
}

type pairDTO struct {
	ChainID       string       `json:"chainId"`
	DexID         string       `json:"dexId"`
	URL           string       `json:"url"`
	PairAddress   string       `json:"pairAddress"`
	BaseToken     tokenDTO     `json:"baseToken"`
	QuoteToken    tokenDTO     `json:"quoteToken"`
	PriceUSD      looseFloat   `json:"priceUsd"`
	Txns          txnsDTO      `json:"txns"`
	Volume        windowDTO    `json:"volume"`
	PriceChange   windowDTO    `json:"priceChange"`
	Liquidity     liquidityDTO `json:"liquidity"`
	FDV           looseFloat   `json:"fdv"`
	MarketCap     looseFloat   `json:"marketCap"`
	PairCreatedAt looseFloat   `json:"pairCreatedAt"` // ms epoch
}

type tokenDTO struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type txnsDTO struct {
	H1  buySellDTO `json:"h1"`
	H24 buySellDTO `json:"h24"`
}

type buySellDTO struct {
	Buys  looseFloat `json:"buys"`
	Sells looseFloat `json:"sells"`
}

type windowDTO struct {
	M5  looseFloat `json:"m5"`
	H1  looseFloat `json:"h1"`
	H6  looseFloat `json:"h6"`
	H24 looseFloat `json:"h24"`
}

type liquidityDTO struct {
	USD   looseFloat `json:"usd"`
	Base  looseFloat `json:"base"`
	Quote looseFloat `json:"quote"`
}

// looseFloat acepta números, strings numéricos y null.
// Cualquier otra cosa se interpreta como 0 sin error.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	*f = 0
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = looseFloat(v)
	return nil
}

func (f looseFloat) nonNegative() float64 {
	if f < 0 {
		return 0
	}
	return float64(f)
}

// nonNegativeInt satura en [0, MaxInt32]: un float64 fuera del rango de int
// no tiene conversión definida.
func (f looseFloat) nonNegativeInt() int {
	v := f.nonNegative()
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

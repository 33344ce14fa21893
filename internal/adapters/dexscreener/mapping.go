package dexscreener

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// normalizeBatch convierte los pares en bruto a candidatos.
// Los registros sin identidad se descartan y se cuentan en Malformed.
func normalizeBatch(raw []json.RawMessage, observedAt time.Time) domain.PairBatch {
	batch := domain.PairBatch{Candidates: make([]domain.Candidate, 0, len(raw))}
	for _, r := range raw {
		c, ok := normalizePair(r, observedAt)
		if !ok {
			batch.Malformed++
			continue
		}
		batch.Candidates = append(batch.Candidates, c)
	}
	return batch
}

// normalizePair convierte un par en bruto a domain.Candidate.
// Devuelve false si falta el pairAddress o alguna de las dos direcciones de token.
// Los campos numéricos ausentes o no numéricos quedan en 0.
func normalizePair(raw json.RawMessage, observedAt time.Time) (domain.Candidate, bool) {
	var p pairDTO
	if err := json.Unmarshal(raw, &p); err != nil {
		// Un campo con tipo inesperado no invalida el registro: json sigue
		// rellenando el resto y solo nos importa la identidad.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			slog.Debug("dropping undecodable pair record", "err", err)
			return domain.Candidate{}, false
		}
	}

	pairID, okPair := canonicalAddress(p.ChainID, p.PairAddress)
	baseID, okBase := canonicalAddress(p.ChainID, p.BaseToken.Address)
	quoteID, okQuote := canonicalAddress(p.ChainID, p.QuoteToken.Address)
	if !okPair || !okBase || !okQuote {
		slog.Debug("dropping pair record without identity",
			"chain", p.ChainID,
			"pair", p.PairAddress,
			"base", p.BaseToken.Address,
			"quote", p.QuoteToken.Address,
		)
		return domain.Candidate{}, false
	}

	marketCap := p.MarketCap.nonNegative()
	if marketCap == 0 {
		marketCap = p.FDV.nonNegative()
	}

	buys := p.Txns.H24.Buys.nonNegativeInt()
	sells := p.Txns.H24.Sells.nonNegativeInt()
	txns := buys + sells
	if txns < 0 || txns > math.MaxInt32 {
		txns = math.MaxInt32
	}

	return domain.Candidate{
		PairID:        pairID,
		ChainID:       p.ChainID,
		Venue:         p.DexID,
		URL:           p.URL,
		BaseAssetID:   baseID,
		QuoteAssetID:  quoteID,
		BaseSymbol:    p.BaseToken.Symbol,
		QuoteSymbol:   p.QuoteToken.Symbol,
		LiquidityUSD:  p.Liquidity.USD.nonNegative(),
		Volume24hUSD:  p.Volume.H24.nonNegative(),
		Volume1hUSD:   p.Volume.H1.nonNegative(),
		MarketCapUSD:  marketCap,
		PriceUSD:      p.PriceUSD.nonNegative(),
		PriceChange24: float64(p.PriceChange.H24),
		PriceChange1h: float64(p.PriceChange.H1),
		TxCount24h:    txns,
		Buys24h:       buys,
		Sells24h:      sells,
		CreatedAt:     parseCreatedAt(p.PairCreatedAt, observedAt),
		ObservedAt:    observedAt,
	}, true
}

// parseCreatedAt interpreta pairCreatedAt (ms epoch). <= 0 significa desconocido.
// Una creación posterior a observedAt más domain.MaxClockSkew también es desconocida.
func parseCreatedAt(ms looseFloat, observedAt time.Time) time.Time {
	if ms <= 0 || float64(ms) > float64(math.MaxInt64) {
		return time.Time{}
	}
	created := time.UnixMilli(int64(ms)).UTC()
	if created.After(observedAt.Add(domain.MaxClockSkew)) {
		slog.Debug("ignoring pair creation time in the future",
			"created_at", created,
			"observed_at", observedAt,
		)
		return time.Time{}
	}
	return created
}

package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
)

// Analyzer analiza un token bajo demanda con el mismo fetcher y scorer que
// los pases de descubrimiento.
type Analyzer struct {
	source ports.PairSource
	scorer *Scorer
}

// NewAnalyzer crea un Analyzer.
func NewAnalyzer(source ports.PairSource, scorer *Scorer) *Analyzer {
	return &Analyzer{source: source, scorer: scorer}
}

// Analyze consulta los pares del token, puntúa el más líquido y evalúa sus
// señales observables. Es una única consulta: los errores del fetcher se
// devuelven al llamador.
func (a *Analyzer) Analyze(ctx context.Context, tokenAddress string) (domain.TokenReport, error) {
	tokenAddress = strings.TrimSpace(tokenAddress)
	if tokenAddress == "" {
		return domain.TokenReport{}, fmt.Errorf("discovery.Analyze: empty token address")
	}

	batch, err := a.source.FetchPairs(ctx, domain.Query{Kind: domain.QueryToken, Value: tokenAddress})
	if err != nil {
		return domain.TokenReport{}, fmt.Errorf("discovery.Analyze: %s: %w", tokenAddress, err)
	}
	if len(batch.Candidates) == 0 {
		return domain.TokenReport{}, fmt.Errorf("discovery.Analyze: %s: %w", tokenAddress, domain.ErrNoPairs)
	}

	best := batch.Candidates[0]
	for _, c := range batch.Candidates[1:] {
		if c.LiquidityUSD > best.LiquidityUSD {
			best = c
		}
	}

	sc := a.scorer.Score(best)
	assessment := domain.Assess(best)
	rec, risk := domain.Recommend(sc.CompositeScore, assessment.Critical)

	slog.Info("token analysis complete",
		"token", tokenAddress,
		"pair_id", sc.PairID,
		"pairs", len(batch.Candidates),
		"score", sc.CompositeScore,
		"recommendation", rec,
		"red_flags", len(assessment.RedFlags),
	)

	return domain.TokenReport{
		TokenAddress:   tokenAddress,
		PairsFound:     len(batch.Candidates),
		Pair:           sc,
		Assessment:     assessment,
		Recommendation: rec,
		Risk:           risk,
	}, nil
}

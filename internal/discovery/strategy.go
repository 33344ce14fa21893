package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
)

// StrategyKind indica cómo genera consultas una estrategia.
type StrategyKind string

const (
	// KindQuoteToken consulta por dirección de token (pares con ese quote).
	KindQuoteToken StrategyKind = "quote_token"
	// KindSearch consulta por palabra clave.
	KindSearch StrategyKind = "search"
	// KindCounterpart consulta por los tokens de candidatos previos del mismo pase.
	// Es derivada: se ejecuta después de las estrategias independientes.
	KindCounterpart StrategyKind = "counterpart"
)

// Direcciones de los quote tokens habituales en Solana.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

const (
	baseRetryWait     = 500 * time.Millisecond
	defaultMaxRetries = 2
	defaultMaxSeeds   = 10
)

// Strategy es una estrategia de descubrimiento configurada de forma independiente.
type Strategy struct {
	Name string       `yaml:"name"`
	Kind StrategyKind `yaml:"kind"`
	// Values son direcciones (quote_token) o palabras clave (search).
	Values []string `yaml:"values"`
	// Cap limita los candidatos que aporta por pase. 0 = sin límite.
	Cap int `yaml:"cap"`
	// MaxRetries ante errores transitorios, por consulta.
	MaxRetries int `yaml:"max_retries"`
	// MaxSeeds limita las direcciones derivadas (solo counterpart).
	MaxSeeds int `yaml:"max_seeds"`
}

// Validate comprueba que la estrategia sea ejecutable.
func (s Strategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy without name")
	}
	switch s.Kind {
	case KindQuoteToken, KindSearch:
		if len(s.Values) == 0 {
			return fmt.Errorf("strategy %q: no values", s.Name)
		}
	case KindCounterpart:
	default:
		return fmt.Errorf("strategy %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.Cap < 0 || s.MaxRetries < 0 || s.MaxSeeds < 0 {
		return fmt.Errorf("strategy %q: negative limits", s.Name)
	}
	return nil
}

// Derived indica si la estrategia depende de los resultados previos del pase.
func (s Strategy) Derived() bool { return s.Kind == KindCounterpart }

// DefaultStrategies devuelve el set por defecto: por quote token, por palabra
// clave y por contrapartes.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "quote_sol", Kind: KindQuoteToken, Values: []string{MintSOL}, Cap: 300, MaxRetries: defaultMaxRetries},
		{Name: "quote_stables", Kind: KindQuoteToken, Values: []string{MintUSDC, MintUSDT}, Cap: 300, MaxRetries: defaultMaxRetries},
		{
			Name:       "keywords",
			Kind:       KindSearch,
			Values:     []string{"solana", "raydium", "orca", "pump", "new", "fresh", "launch"},
			Cap:        500,
			MaxRetries: defaultMaxRetries,
		},
		{Name: "counterparts", Kind: KindCounterpart, Cap: 200, MaxRetries: 1, MaxSeeds: defaultMaxSeeds},
	}
}

// queries devuelve las consultas de la estrategia. Para counterpart las deriva
// de seeds, saltando las direcciones de exclude.
func (s Strategy) queries(seeds []domain.Candidate, exclude map[string]bool) []domain.Query {
	switch s.Kind {
	case KindQuoteToken:
		return valueQueries(domain.QueryToken, s.Values)
	case KindSearch:
		return valueQueries(domain.QuerySearch, s.Values)
	case KindCounterpart:
		maxSeeds := s.MaxSeeds
		if maxSeeds <= 0 {
			maxSeeds = defaultMaxSeeds
		}
		seen := make(map[string]bool)
		var out []domain.Query
		for _, c := range seeds {
			for _, addr := range []string{c.BaseAssetID, c.QuoteAssetID} {
				if len(out) >= maxSeeds {
					return out
				}
				if addr == "" || seen[addr] || exclude[addr] {
					continue
				}
				seen[addr] = true
				out = append(out, domain.Query{Kind: domain.QueryToken, Value: addr})
			}
		}
		return out
	}
	return nil
}

func valueQueries(kind domain.QueryKind, values []string) []domain.Query {
	out := make([]domain.Query, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, domain.Query{Kind: kind, Value: v})
		}
	}
	return out
}

// strategyResult es lo que una estrategia aporta a un pase.
type strategyResult struct {
	Name       string
	Candidates []domain.Candidate
	Malformed  int
	Queries    int
	Failures   int
}

// strategyRunner ejecuta estrategias contra la fuente compartida.
type strategyRunner struct {
	source  ports.PairSource
	clock   clock.Clock
	metrics *Metrics
}

// run ejecuta las consultas en orden hasta agotar la lista o alcanzar el cap.
// Nunca falla: una consulta que agota sus reintentos se cuenta como fallo y
// la estrategia sigue con la siguiente.
func (r strategyRunner) run(ctx context.Context, s Strategy, queries []domain.Query) strategyResult {
	res := strategyResult{Name: s.Name}
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		if s.Cap > 0 && len(res.Candidates) >= s.Cap {
			break
		}
		res.Queries++

		batch, err := r.fetchWithRetry(ctx, s, q)
		if err != nil {
			res.Failures++
			r.metrics.StrategyFailures.WithLabelValues(s.Name).Inc()
			if ctx.Err() == nil {
				slog.Warn("strategy query yielded no data",
					"strategy", s.Name,
					"query", q.Value,
					"err", err,
				)
			}
			continue
		}

		for i := range batch.Candidates {
			batch.Candidates[i].Source = s.Name
		}
		res.Candidates = append(res.Candidates, batch.Candidates...)
		res.Malformed += batch.Malformed
	}

	if s.Cap > 0 && len(res.Candidates) > s.Cap {
		res.Candidates = res.Candidates[:s.Cap]
	}

	r.metrics.CandidatesFetched.WithLabelValues(s.Name).Add(float64(len(res.Candidates)))
	r.metrics.MalformedRecords.WithLabelValues(s.Name).Add(float64(res.Malformed))
	slog.Debug("strategy finished",
		"strategy", s.Name,
		"queries", res.Queries,
		"failures", res.Failures,
		"candidates", len(res.Candidates),
		"malformed", res.Malformed,
	)
	return res
}

// fetchWithRetry reintenta errores transitorios con backoff exponencial,
// como mucho s.MaxRetries veces.
func (r strategyRunner) fetchWithRetry(ctx context.Context, s Strategy, q domain.Query) (domain.PairBatch, error) {
	for attempt := 0; ; attempt++ {
		batch, err := r.source.FetchPairs(ctx, q)
		if err == nil {
			return batch, nil
		}
		if !domain.IsTransient(err) || attempt >= s.MaxRetries || ctx.Err() != nil {
			return domain.PairBatch{}, err
		}

		r.metrics.FetchRetries.WithLabelValues(s.Name).Inc()
		wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
		slog.Debug("transient fetch error, retrying",
			"strategy", s.Name,
			"query", q.Value,
			"attempt", attempt+1,
			"wait", wait,
			"err", err,
		)
		if err := r.clock.Sleep(ctx, wait); err != nil {
			return domain.PairBatch{}, err
		}
	}
}

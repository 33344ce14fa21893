package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
	"github.com/google/uuid"
)

const (
	defaultPassTimeout = 90 * time.Second
	defaultMaxResults  = 15
)

// Config contiene la configuración del agregador.
type Config struct {
	Strategies        []Strategy
	Workers           int
	PassTimeout       time.Duration
	DefaultMaxResults int
	Profiles          domain.ProfileSet
	Clock             clock.Clock
	Metrics           *Metrics
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	profiles, _ := domain.NewProfileSet()
	return Config{
		Strategies:        DefaultStrategies(),
		Workers:           4,
		PassTimeout:       defaultPassTimeout,
		DefaultMaxResults: defaultMaxResults,
		Profiles:          profiles,
	}
}

// Aggregator orquesta un pase de descubrimiento completo:
// estrategias → dedupe → filtro → score → ranking → truncado.
type Aggregator struct {
	cfg     Config
	runner  strategyRunner
	scorer  *Scorer
	history *HistoryWriter
}

// NewAggregator crea un Aggregator con todas las dependencias inyectadas.
// history puede ser nil.
func NewAggregator(cfg Config, source ports.PairSource, scorer *Scorer, history *HistoryWriter) *Aggregator {
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(nil)
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = defaultPassTimeout
	}
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = defaultMaxResults
	}
	if scorer == nil {
		scorer = NewScorer(DefaultWeights(), DefaultBands())
	}
	return &Aggregator{
		cfg:     cfg,
		runner:  strategyRunner{source: source, clock: cfg.Clock, metrics: cfg.Metrics},
		scorer:  scorer,
		history: history,
	}
}

// RunProfile ejecuta un pase con el perfil de nombre dado.
func (a *Aggregator) RunProfile(ctx context.Context, name string, maxResults int) ([]domain.ScoredCandidate, error) {
	profile, err := a.cfg.Profiles.Get(name)
	if err != nil {
		return nil, fmt.Errorf("discovery.RunProfile: %w", err)
	}
	return a.RunDiscoveryPass(ctx, profile, maxResults)
}

// RunDiscoveryPass ejecuta un pase completo y devuelve como mucho maxResults
// candidatos ordenados por score. Sin coincidencias devuelve una lista vacía,
// no un error; solo falla si el llamador cancela ctx.
func (a *Aggregator) RunDiscoveryPass(ctx context.Context, profile domain.CriteriaProfile, maxResults int) ([]domain.ScoredCandidate, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.DefaultMaxResults
	}
	passID := uuid.NewString()
	start := time.Now()
	log := slog.With("pass_id", passID, "profile", profile.Name)

	passCtx, cancel := context.WithTimeout(ctx, a.cfg.PassTimeout)
	defer cancel()

	independent, derived := splitStrategies(a.cfg.Strategies)
	filter := NewFilter(profile)

	results := runConcurrent(passCtx, a.runner, independentJobs(independent), a.cfg.Workers)
	candidates := Dedupe(mergeResults(results))

	if len(derived) > 0 && passCtx.Err() == nil {
		seeds := filter.Apply(candidates)
		jobs := derivedJobs(derived, seeds, quoteTokenValues(independent))
		if len(jobs) > 0 {
			more := runConcurrent(passCtx, a.runner, jobs, a.cfg.Workers)
			results = append(results, more...)
			candidates = Dedupe(mergeResults(results))
		}
	}

	if err := ctx.Err(); err != nil {
		log.Debug("discovery pass abandoned by caller", "err", err)
		return nil, fmt.Errorf("discovery.RunDiscoveryPass: %w", err)
	}

	scored := a.scorer.ScoreAll(filter.Apply(candidates))
	rank(scored)
	a.history.Submit(passID, scored)

	ranked := scored
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	fetched, failures := 0, 0
	for _, r := range results {
		fetched += len(r.Candidates)
		failures += r.Failures
	}

	elapsed := time.Since(start)
	a.cfg.Metrics.PassesTotal.WithLabelValues(profile.Name).Inc()
	a.cfg.Metrics.PassDuration.WithLabelValues(profile.Name).Observe(elapsed.Seconds())
	a.cfg.Metrics.PassResults.WithLabelValues(profile.Name).Observe(float64(len(ranked)))

	log.Info("discovery pass complete",
		"strategies", len(results),
		"fetched", fetched,
		"unique", len(candidates),
		"matched", len(scored),
		"returned", len(ranked),
		"failed_queries", failures,
		"duration", elapsed.Round(time.Millisecond),
	)
	return ranked, nil
}

// rank ordena por score descendente; empates por observación más reciente
// y después por PairID para que el orden sea estable entre pases.
func rank(scored []domain.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.After(b.ObservedAt)
		}
		return a.PairID < b.PairID
	})
}

func splitStrategies(all []Strategy) (independent, derived []Strategy) {
	for _, s := range all {
		if s.Derived() {
			derived = append(derived, s)
		} else {
			independent = append(independent, s)
		}
	}
	return independent, derived
}

func independentJobs(strategies []Strategy) []strategyJob {
	jobs := make([]strategyJob, 0, len(strategies))
	for _, s := range strategies {
		jobs = append(jobs, strategyJob{strategy: s, queries: s.queries(nil, nil)})
	}
	return jobs
}

func derivedJobs(strategies []Strategy, seeds []domain.Candidate, exclude map[string]bool) []strategyJob {
	var jobs []strategyJob
	for _, s := range strategies {
		qs := s.queries(seeds, exclude)
		if len(qs) == 0 {
			continue
		}
		jobs = append(jobs, strategyJob{strategy: s, queries: qs})
	}
	return jobs
}

// quoteTokenValues devuelve las direcciones ya consultadas por estrategias
// quote_token, para no repetirlas como contrapartes.
func quoteTokenValues(strategies []Strategy) map[string]bool {
	out := make(map[string]bool)
	for _, s := range strategies {
		if s.Kind != KindQuoteToken {
			continue
		}
		for _, v := range s.Values {
			out[v] = true
		}
	}
	return out
}

package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
)

const (
	defaultPollInterval  = time.Minute
	defaultSweepInterval = time.Hour
)

// PassRunner ejecuta un pase de descubrimiento. Lo implementa *Aggregator.
type PassRunner interface {
	RunDiscoveryPass(ctx context.Context, profile domain.CriteriaProfile, maxResults int) ([]domain.ScoredCandidate, error)
}

// PollerConfig contiene la configuración del poller.
type PollerConfig struct {
	Interval      time.Duration
	SweepInterval time.Duration
	Profile       domain.CriteriaProfile
	MaxResults    int
}

// Poller lanza pases periódicos con el perfil ultra-fresh y notifica cada par
// nuevo exactamente una vez.
type Poller struct {
	cfg      PollerConfig
	passes   PassRunner
	registry *Registry
	notifier ports.Notifier
	metrics  *Metrics
}

// NewPoller crea un Poller con todas las dependencias inyectadas.
func NewPoller(cfg PollerConfig, passes PassRunner, registry *Registry, notifier ports.Notifier, m *Metrics) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Poller{
		cfg:      cfg,
		passes:   passes,
		registry: registry,
		notifier: notifier,
		metrics:  m,
	}
}

// Run ejecuta el loop hasta que el contexto se cancele.
// El primer tick es inmediato; los fallos de un tick se registran y el loop sigue.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("poller starting",
		"interval", p.cfg.Interval,
		"sweep_interval", p.cfg.SweepInterval,
		"profile", p.cfg.Profile.Name,
	)

	p.Tick(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	sweep := time.NewTicker(p.cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller stopped", "tracked", p.registry.Len())
			return nil
		case <-ticker.C:
			p.Tick(ctx)
		case <-sweep.C:
			p.registry.Sweep()
		}
	}
}

// Tick ejecuta un pase, actualiza el registro y notifica los pares nuevos.
// Devuelve los pares nuevos de este tick.
func (p *Poller) Tick(ctx context.Context) []domain.ScoredCandidate {
	results, err := p.passes.RunDiscoveryPass(ctx, p.cfg.Profile, p.cfg.MaxResults)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("poll tick failed", "err", err)
		}
		return nil
	}

	var fresh []domain.ScoredCandidate
	for _, sc := range results {
		if _, isNew := p.registry.Observe(sc); !isNew {
			continue
		}
		fresh = append(fresh, sc)
		p.metrics.NewPairs.Inc()
		p.notify(ctx, sc)
	}

	slog.Info("poll tick complete",
		"results", len(results),
		"new", len(fresh),
		"tracked", p.registry.Len(),
	)
	return fresh
}

// notify invoca el callback aislando errores y panics.
func (p *Poller) notify(ctx context.Context, sc domain.ScoredCandidate) {
	if p.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.metrics.NotifyFailures.Inc()
			slog.Error("notifier panicked", "pair_id", sc.PairID, "err", fmt.Sprint(r))
		}
	}()
	if err := p.notifier.NotifyNewPair(ctx, sc); err != nil {
		p.metrics.NotifyFailures.Inc()
		slog.Warn("notifier error", "pair_id", sc.PairID, "err", err)
	}
}

package discovery

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/domain"
)

// DefaultRetention es la ventana tras la cual un par no observado expira.
const DefaultRetention = 48 * time.Hour

// Registry es el registro de frescura: PairID → DiscoveryRecord.
//
// Estados por par: UNSEEN → TRACKED → EXPIRED. Observe crea o actualiza,
// Sweep expira en silencio. Un par expirado que reaparece es un descubrimiento nuevo.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*domain.DiscoveryRecord
	retention time.Duration
	clock     clock.Clock
	metrics   *Metrics
	scorer    *Scorer
}

// RegistryOption configura un Registry.
type RegistryOption func(*Registry)

// WithScorer hace que Observe vuelva a puntuar el candidato cuando la fusión
// con la observación anterior cambia CreatedAt. Sin scorer, LastCandidate
// conserva los scores de la observación en bruto.
func WithScorer(s *Scorer) RegistryOption {
	return func(r *Registry) { r.scorer = s }
}

// NewRegistry crea un Registry vacío. retention <= 0 usa DefaultRetention.
func NewRegistry(retention time.Duration, clk clock.Clock, m *Metrics, opts ...RegistryOption) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clk == nil {
		clk = clock.System()
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	r := &Registry{
		entries:   make(map[string]*domain.DiscoveryRecord),
		retention: retention,
		clock:     clk,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe registra una observación. isNew es true solo en la transición
// UNSEEN → TRACKED; es la señal para notificar una única vez. Una entrada
// que superó la retención pero aún no se barrió cuenta como UNSEEN.
func (r *Registry) Observe(sc domain.ScoredCandidate) (rec domain.DiscoveryRecord, isNew bool) {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[sc.PairID]
	if ok && (existing == nil || existing.PairID != sc.PairID) {
		r.metrics.RegistryCorruption.Inc()
		slog.Error("dropping corrupted registry entry",
			"pair_id", sc.PairID,
			"err", domain.ErrRegistryCorruption,
		)
		delete(r.entries, sc.PairID)
		ok = false
	}
	if ok && existing.Expired(now, r.retention) {
		delete(r.entries, sc.PairID)
		r.metrics.RegistryExpired.Inc()
		ok = false
	}

	if !ok {
		created := &domain.DiscoveryRecord{
			PairID:        sc.PairID,
			FirstSeenAt:   now,
			LastSeenAt:    now,
			LastCandidate: sc,
			Observations:  1,
		}
		r.entries[sc.PairID] = created
		r.metrics.RegistrySize.Set(float64(len(r.entries)))
		return *created, true
	}

	merged := existing.LastCandidate.Candidate.Merge(sc.Candidate)
	if r.scorer != nil && !merged.CreatedAt.Equal(sc.CreatedAt) {
		sc = r.scorer.Score(merged)
	} else {
		sc.Candidate = merged
	}
	existing.LastCandidate = sc
	existing.LastSeenAt = now
	existing.Observations++
	return *existing, false
}

// Sweep elimina los registros cuyo LastSeenAt supera la retención.
// Devuelve cuántos expiraron.
func (r *Registry) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for id, rec := range r.entries {
		if rec == nil || rec.Expired(now, r.retention) {
			delete(r.entries, id)
			expired++
		}
	}
	r.metrics.RegistrySize.Set(float64(len(r.entries)))
	r.metrics.RegistryExpired.Add(float64(expired))
	if expired > 0 {
		slog.Debug("registry sweep", "expired", expired, "tracked", len(r.entries))
	}
	return expired
}

// Len devuelve el número de pares en seguimiento.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// FreshSince devuelve copias de los pares descubiertos dentro de la ventana
// dada, los más recientes primero. Los registros expirados no se incluyen
// aunque el sweep aún no los haya eliminado.
func (r *Registry) FreshSince(window time.Duration) []domain.DiscoveryRecord {
	now := r.clock.Now()
	cutoff := now.Add(-window)

	r.mu.RLock()
	out := make([]domain.DiscoveryRecord, 0, len(r.entries))
	for _, rec := range r.entries {
		if rec == nil || rec.Expired(now, r.retention) || rec.FirstSeenAt.Before(cutoff) {
			continue
		}
		out = append(out, *rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeenAt.Equal(out[j].FirstSeenAt) {
			return out[i].FirstSeenAt.After(out[j].FirstSeenAt)
		}
		return out[i].PairID < out[j].PairID
	})
	return out
}

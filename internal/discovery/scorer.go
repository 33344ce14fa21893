package discovery

import (
	"math"
	"sort"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// MaxCompositeScore es el techo del score compuesto.
const MaxCompositeScore = 10.0

// UnratedLabel se usa cuando el score no alcanza ninguna banda.
const UnratedLabel = "UNRATED"

// Weights son los pesos de cada sub-score en el compuesto.
type Weights struct {
	Freshness   float64 `yaml:"freshness"`
	Activity    float64 `yaml:"activity"`
	Momentum    float64 `yaml:"momentum"`
	SafetyProxy float64 `yaml:"safety_proxy"`
}

// DefaultWeights prioriza la frescura, que es el criterio central del sistema.
func DefaultWeights() Weights {
	return Weights{Freshness: 0.35, Activity: 0.25, Momentum: 0.25, SafetyProxy: 0.15}
}

func (w Weights) sum() float64 {
	return w.Freshness + w.Activity + w.Momentum + w.SafetyProxy
}

// Band es un tramo de clasificación: score >= Min recibe Label.
type Band struct {
	Label string  `yaml:"label"`
	Min   float64 `yaml:"min"`
}

// DefaultBands devuelve las bandas de clasificación por defecto.
func DefaultBands() []Band {
	return []Band{
		{Label: "STRONG", Min: 7.0},
		{Label: "SOLID", Min: 5.0},
		{Label: "EMERGING", Min: 3.0},
		{Label: "SPECULATIVE", Min: 0},
	}
}

// Scorer calcula el score compuesto como suma ponderada de sub-scores acotados.
// Es determinista: la frescura se evalúa en ObservedAt del candidato.
type Scorer struct {
	weights Weights
	bands   []Band
}

// NewScorer normaliza los pesos para que sumen 1 y ordena las bandas de mayor
// a menor. Pesos inválidos (negativos o suma 0) toman los valores por defecto.
func NewScorer(w Weights, bands []Band) *Scorer {
	if w.Freshness < 0 || w.Activity < 0 || w.Momentum < 0 || w.SafetyProxy < 0 || w.sum() <= 0 {
		w = DefaultWeights()
	}
	total := w.sum()
	w = Weights{
		Freshness:   w.Freshness / total,
		Activity:    w.Activity / total,
		Momentum:    w.Momentum / total,
		SafetyProxy: w.SafetyProxy / total,
	}

	if len(bands) == 0 {
		bands = DefaultBands()
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	return &Scorer{weights: w, bands: sorted}
}

// Score puntúa un candidato.
func (s *Scorer) Score(c domain.Candidate) domain.ScoredCandidate {
	subs := domain.SubScores(c, c.ObservedAt)

	weighted := s.weights.Freshness*subs[domain.SubScoreFreshness] +
		s.weights.Activity*subs[domain.SubScoreActivity] +
		s.weights.Momentum*subs[domain.SubScoreMomentum] +
		s.weights.SafetyProxy*subs[domain.SubScoreSafetyProxy]

	composite := math.Min(MaxCompositeScore, math.Max(0, MaxCompositeScore*weighted))
	composite = math.Round(composite*100) / 100

	return domain.ScoredCandidate{
		Candidate:      c,
		SubScores:      subs,
		CompositeScore: composite,
		Classification: s.classify(composite),
		Alert:          domain.AlertType(c, composite/MaxCompositeScore),
		Reason:         domain.Reasoning(c, subs),
	}
}

// ScoreAll puntúa una lista de candidatos.
func (s *Scorer) ScoreAll(candidates []domain.Candidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, s.Score(c))
	}
	return out
}

func (s *Scorer) classify(score float64) string {
	for _, b := range s.bands {
		if score >= b.Min {
			return b.Label
		}
	}
	return UnratedLabel
}

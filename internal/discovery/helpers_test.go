package discovery_test

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// pair construye un candidato observado en now y creado hace ageHours.
// ageHours < 0 deja la edad desconocida.
func pair(id string, liquidity float64, ageHours float64) domain.Candidate {
	c := domain.Candidate{
		PairID:       id,
		BaseAssetID:  "base-" + id,
		QuoteAssetID: "quote-" + id,
		BaseSymbol:   id,
		QuoteSymbol:  "SOL",
		ChainID:      "solana",
		LiquidityUSD: liquidity,
		ObservedAt:   now,
	}
	if ageHours >= 0 {
		c.CreatedAt = now.Add(-time.Duration(ageHours * float64(time.Hour)))
	}
	return c
}

// --- mocks ---

type fetchFunc func(ctx context.Context, q domain.Query) (domain.PairBatch, error)

// fakeSource es un PairSource programable que registra las consultas.
type fakeSource struct {
	mu    sync.Mutex
	fn    fetchFunc
	calls []domain.Query
}

func newFakeSource(fn fetchFunc) *fakeSource {
	return &fakeSource{fn: fn}
}

func (f *fakeSource) FetchPairs(ctx context.Context, q domain.Query) (domain.PairBatch, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	return f.fn(ctx, q)
}

func (f *fakeSource) callsFor(value string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.calls {
		if q.Value == value {
			n++
		}
	}
	return n
}

func (f *fakeSource) queried() []domain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Query(nil), f.calls...)
}

// batches devuelve un fetchFunc que responde por valor de consulta.
func batches(byValue map[string][]domain.Candidate) fetchFunc {
	return func(_ context.Context, q domain.Query) (domain.PairBatch, error) {
		return domain.PairBatch{Candidates: append([]domain.Candidate(nil), byValue[q.Value]...)}, nil
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	notified []domain.ScoredCandidate
	err      error
	panicOn  string
}

func (n *recordingNotifier) NotifyNewPair(_ context.Context, sc domain.ScoredCandidate) error {
	if sc.PairID == n.panicOn {
		panic("boom")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, sc)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notified)
}

type memorySink struct {
	mu      sync.Mutex
	batches map[string][]domain.ScoredCandidate
	err     error
}

func newMemorySink() *memorySink {
	return &memorySink{batches: make(map[string][]domain.ScoredCandidate)}
}

func (s *memorySink) Append(_ context.Context, passID string, scored []domain.ScoredCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches[passID] = scored
	return nil
}

func (s *memorySink) GetHistory(_ context.Context, _, _ time.Time) ([]domain.ScoredCandidate, error) {
	return nil, nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

package discovery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPasses devuelve un resultado distinto por llamada; al agotarse repite el último.
type scriptedPasses struct {
	mu    sync.Mutex
	steps []passStep
	calls int
}

type passStep struct {
	results []domain.ScoredCandidate
	err     error
}

func (s *scriptedPasses) RunDiscoveryPass(ctx context.Context, _ domain.CriteriaProfile, _ int) ([]domain.ScoredCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].results, s.steps[i].err
}

func (s *scriptedPasses) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func scoredPairs(ids ...string) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, scored(pair(id, 1000, 1)))
	}
	return out
}

func newPoller(passes discovery.PassRunner, n ports.Notifier) (*discovery.Poller, *discovery.Registry, *discovery.Metrics) {
	m := discovery.NewMetrics(nil)
	reg := discovery.NewRegistry(time.Hour, clock.NewFake(now), m)
	cfg := discovery.PollerConfig{Profile: domain.CriteriaProfile{Name: domain.ProfileUltraFresh}, MaxResults: 10}
	return discovery.NewPoller(cfg, passes, reg, n, m), reg, m
}

func TestPollerTick_NotifiesEachPairOnce(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{
		{results: scoredPairs("A", "B")},
		{results: scoredPairs("B", "C")},
		{results: scoredPairs("A", "B", "C")},
	}}
	n := &recordingNotifier{}
	p, reg, m := newPoller(passes, n)

	assert.Len(t, p.Tick(context.Background()), 2)
	fresh := p.Tick(context.Background())
	require.Len(t, fresh, 1)
	assert.Equal(t, "C", fresh[0].PairID)
	assert.Empty(t, p.Tick(context.Background()))
	assert.Empty(t, p.Tick(context.Background()))

	assert.Equal(t, 3, n.count())
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NewPairs))

	var observations int
	for _, rec := range reg.FreshSince(time.Hour) {
		if rec.PairID == "B" {
			observations = rec.Observations
		}
	}
	assert.Equal(t, 4, observations)
}

func TestPollerTick_NotifierErrorsAreIsolated(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{{results: scoredPairs("A", "B")}}}
	n := &recordingNotifier{err: errors.New("webhook down")}
	p, reg, m := newPoller(passes, n)

	fresh := p.Tick(context.Background())

	assert.Len(t, fresh, 2)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotifyFailures))

	assert.Empty(t, p.Tick(context.Background()), "a failed notification is not retried")
}

func TestPollerTick_NotifierPanicIsRecovered(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{{results: scoredPairs("A", "B")}}}
	n := &recordingNotifier{panicOn: "A"}
	p, _, m := newPoller(passes, n)

	var fresh []domain.ScoredCandidate
	require.NotPanics(t, func() { fresh = p.Tick(context.Background()) })

	assert.Len(t, fresh, 2)
	assert.Equal(t, 1, n.count(), "B is still notified")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotifyFailures))
}

func TestPollerTick_PassErrorIsSwallowed(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{
		{err: errors.New("boom")},
		{results: scoredPairs("A")},
	}}
	n := &recordingNotifier{}
	p, reg, _ := newPoller(passes, n)

	assert.Nil(t, p.Tick(context.Background()))
	assert.Equal(t, 0, reg.Len())

	assert.Len(t, p.Tick(context.Background()), 1)
	assert.Equal(t, 1, n.count())
}

func TestPollerTick_NilNotifier(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{{results: scoredPairs("A")}}}
	p, _, _ := newPoller(passes, nil)

	assert.NotPanics(t, func() { p.Tick(context.Background()) })
}

func TestPollerTick_NotifierFuncReceivesScoredPair(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{{results: scoredPairs("A")}}}
	var got []string
	n := ports.NotifierFunc(func(_ context.Context, sc domain.ScoredCandidate) error {
		got = append(got, sc.PairID)
		return nil
	})
	p, _, _ := newPoller(passes, n)

	p.Tick(context.Background())

	assert.Equal(t, []string{"A"}, got)
}

func TestPollerRun_StopsOnCancel(t *testing.T) {
	passes := &scriptedPasses{steps: []passStep{{results: scoredPairs("A")}}}
	n := &recordingNotifier{}
	m := discovery.NewMetrics(nil)
	reg := discovery.NewRegistry(time.Hour, clock.NewFake(now), m)
	p := discovery.NewPoller(discovery.PollerConfig{
		Interval:      5 * time.Millisecond,
		SweepInterval: time.Hour,
	}, passes, reg, n, m)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return passes.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.Equal(t, 1, n.count())
}

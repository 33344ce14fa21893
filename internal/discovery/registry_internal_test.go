package discovery

import (
	"testing"
	"time"

	"github.com/alejandrodnm/pairscout/internal/clock"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CorruptedEntryIsRecreated(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMetrics(nil)
	r := NewRegistry(time.Hour, clock.NewFake(start), m)

	sc := domain.ScoredCandidate{Candidate: domain.Candidate{PairID: "X"}}
	r.entries["X"] = nil
	r.entries["Y"] = &domain.DiscoveryRecord{PairID: "other"}

	rec, isNew := r.Observe(sc)
	require.True(t, isNew)
	assert.Equal(t, "X", rec.PairID)
	assert.Equal(t, 1, rec.Observations)

	_, isNew = r.Observe(domain.ScoredCandidate{Candidate: domain.Candidate{PairID: "Y"}})
	assert.True(t, isNew)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistryCorruption))
	assert.Equal(t, 2, r.Len())
}

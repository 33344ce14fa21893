package discovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzer(fn fetchFunc) (*discovery.Analyzer, *fakeSource) {
	src := newFakeSource(fn)
	return discovery.NewAnalyzer(src, discovery.NewScorer(discovery.DefaultWeights(), discovery.DefaultBands())), src
}

func TestAnalyze_PicksMostLiquidPair(t *testing.T) {
	shallow := pair("SHALLOW", 2_000, 1)
	deep := pair("DEEP", 80_000, 1)
	deep.Buys24h, deep.Sells24h, deep.TxCount24h = 90, 10, 100
	a, src := newAnalyzer(batches(map[string][]domain.Candidate{"TOKEN": {shallow, deep}}))

	report, err := a.Analyze(context.Background(), "  TOKEN ")

	require.NoError(t, err)
	assert.Equal(t, "TOKEN", report.TokenAddress)
	assert.Equal(t, 2, report.PairsFound)
	assert.Equal(t, "DEEP", report.Pair.PairID)
	assert.Len(t, report.Pair.SubScores, 4)
	assert.NotEmpty(t, report.Pair.Reason)
	assert.Contains(t, report.Assessment.GoodSigns, "Excellent buy/sell ratio: 9.0:1")

	rec, risk := domain.Recommend(report.Pair.CompositeScore, report.Assessment.Critical)
	assert.Equal(t, rec, report.Recommendation)
	assert.Equal(t, risk, report.Risk)

	require.Len(t, src.queried(), 1)
	assert.Equal(t, domain.Query{Kind: domain.QueryToken, Value: "TOKEN"}, src.queried()[0])
}

func TestAnalyze_CriticalFlagForcesAvoid(t *testing.T) {
	c := pair("THIN", 800, 0.2)
	a, _ := newAnalyzer(batches(map[string][]domain.Candidate{"TOKEN": {c}}))

	report, err := a.Analyze(context.Background(), "TOKEN")

	require.NoError(t, err)
	assert.True(t, report.Assessment.Critical)
	assert.Equal(t, domain.RecommendAvoid, report.Recommendation)
	assert.Equal(t, domain.RiskHigh, report.Risk)
}

func TestAnalyze_NoPairs(t *testing.T) {
	a, _ := newAnalyzer(batches(nil))

	_, err := a.Analyze(context.Background(), "TOKEN")
	assert.ErrorIs(t, err, domain.ErrNoPairs)
}

func TestAnalyze_FetchErrorIsReturned(t *testing.T) {
	boom := &domain.FetchError{Op: "FetchPairs", StatusCode: 503, Transient: true, Err: errors.New("unavailable")}
	a, src := newAnalyzer(func(context.Context, domain.Query) (domain.PairBatch, error) {
		return domain.PairBatch{}, boom
	})

	_, err := a.Analyze(context.Background(), "TOKEN")

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 503, fe.StatusCode)
	assert.Len(t, src.queried(), 1, "single attempt")
}

func TestAnalyze_EmptyAddress(t *testing.T) {
	a, src := newAnalyzer(batches(nil))

	_, err := a.Analyze(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, src.queried())
}

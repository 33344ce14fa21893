package discovery_test

import (
	"errors"
	"testing"

	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHistoryWriter_CloseDrainsQueue(t *testing.T) {
	sink := newMemorySink()
	w := discovery.NewHistoryWriter(sink, 8, nil)

	w.Submit("p1", scoredPairs("A", "B"))
	w.Submit("p2", scoredPairs("C"))
	w.Submit("p3", nil)
	w.Close()

	assert.Equal(t, 3, sink.total())
}

func TestHistoryWriter_SinkFailuresAreCounted(t *testing.T) {
	sink := newMemorySink()
	sink.err = errors.New("disk full")
	m := discovery.NewMetrics(nil)
	w := discovery.NewHistoryWriter(sink, 8, m)

	w.Submit("p1", scoredPairs("A"))
	w.Submit("p2", scoredPairs("B"))
	w.Close()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HistoryFailures))
	assert.Zero(t, sink.total())
}

func TestHistoryWriter_SubmitAfterCloseIsIgnored(t *testing.T) {
	sink := newMemorySink()
	w := discovery.NewHistoryWriter(sink, 1, nil)
	w.Close()

	assert.NotPanics(t, func() {
		w.Submit("late", scoredPairs("A"))
		w.Close()
	})
	assert.Zero(t, sink.total())
}

func TestHistoryWriter_NilIsSafe(t *testing.T) {
	var w *discovery.HistoryWriter
	assert.NotPanics(t, func() {
		w.Submit("p", scoredPairs("A"))
		w.Close()
	})
}

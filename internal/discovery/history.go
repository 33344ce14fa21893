package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
	"github.com/alejandrodnm/pairscout/internal/ports"
)

const (
	defaultHistoryBuffer = 16
	historyWriteTimeout  = 10 * time.Second
)

type historyBatch struct {
	passID string
	scored []domain.ScoredCandidate
}

// HistoryWriter envía los resultados de cada pase al sink en segundo plano.
// Submit nunca bloquea el pase: si la cola está llena el lote se descarta.
type HistoryWriter struct {
	sink    ports.HistorySink
	metrics *Metrics
	queue   chan historyBatch
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewHistoryWriter arranca el worker de escritura. buffer <= 0 usa el valor por defecto.
func NewHistoryWriter(sink ports.HistorySink, buffer int, m *Metrics) *HistoryWriter {
	if buffer <= 0 {
		buffer = defaultHistoryBuffer
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	w := &HistoryWriter{
		sink:    sink,
		metrics: m,
		queue:   make(chan historyBatch, buffer),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit encola un lote. Es seguro llamarlo sobre un writer nil o cerrado.
func (w *HistoryWriter) Submit(passID string, scored []domain.ScoredCandidate) {
	if w == nil || len(scored) == 0 {
		return
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}

	batch := historyBatch{passID: passID, scored: append([]domain.ScoredCandidate(nil), scored...)}
	select {
	case w.queue <- batch:
	default:
		w.metrics.HistoryDropped.Inc()
		slog.Warn("history queue full, dropping batch", "pass_id", passID, "candidates", len(scored))
	}
}

// Close deja de aceptar lotes y espera a que se escriban los pendientes.
func (w *HistoryWriter) Close() {
	if w == nil {
		return
	}
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *HistoryWriter) loop() {
	defer close(w.done)
	for batch := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		err := w.sink.Append(ctx, batch.passID, batch.scored)
		cancel()
		if err != nil {
			w.metrics.HistoryFailures.Inc()
			slog.Warn("history sink error", "pass_id", batch.passID, "err", err)
		}
	}
}

package discovery

// concurrent.go: fan-out de estrategias con barrera.
//
// Las estrategias corren en paralelo pero comparten el limiter del fetcher, así
// que la duración del pase la dominan (consultas totales × intervalo mínimo).
// El paralelismo solo evita que una estrategia lenta en reintentos bloquee al resto.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/pairscout/internal/domain"
	"golang.org/x/sync/errgroup"
)

// strategyJob es una estrategia con sus consultas ya resueltas.
type strategyJob struct {
	strategy Strategy
	queries  []domain.Query
}

// runConcurrent ejecuta los jobs con como mucho workers a la vez y espera a que
// terminen todos o a que ctx venza. Devuelve los resultados de los jobs
// terminados en orden de invocación; los que no llegaron se descartan.
//
// Si workers <= 0 usa runtime.NumCPU().
func runConcurrent(ctx context.Context, runner strategyRunner, jobs []strategyJob, workers int) []strategyResult {
	if len(jobs) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		results = make([]strategyResult, len(jobs))
		done    = make([]bool, len(jobs))
	)

	var g errgroup.Group
	g.SetLimit(workers)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, job := range jobs {
			g.Go(func() error {
				r := runner.run(ctx, job.strategy, job.queries)
				mu.Lock()
				results[i] = r
				done[i] = true
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		slog.Warn("pass deadline reached before all strategies finished", "err", ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()

	out := make([]strategyResult, 0, len(jobs))
	late := 0
	for i := range jobs {
		if !done[i] {
			late++
			continue
		}
		out = append(out, results[i])
	}
	if late > 0 {
		runner.metrics.LateStrategies.Add(float64(late))
		slog.Warn("discarding late strategies", "late", late, "finished", len(out))
	}
	return out
}

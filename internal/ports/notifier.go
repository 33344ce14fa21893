package ports

import (
	"context"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// Notifier recibe un par recién descubierto, una vez por par.
type Notifier interface {
	NotifyNewPair(ctx context.Context, pair domain.ScoredCandidate) error
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(ctx context.Context, pair domain.ScoredCandidate) error

func (f NotifierFunc) NotifyNewPair(ctx context.Context, pair domain.ScoredCandidate) error {
	return f(ctx, pair)
}

package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// HistorySink es el log histórico append-only de los pases de descubrimiento.
type HistorySink interface {
	// Append persiste los candidatos puntuados de un pase.
	Append(ctx context.Context, passID string, scored []domain.ScoredCandidate) error

	// GetHistory devuelve la última observación de cada par visto en el rango dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.ScoredCandidate, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

package ports

import (
	"context"

	"github.com/alejandrodnm/pairscout/internal/domain"
)

// PairSource obtiene pares normalizados del proveedor de datos de mercado.
type PairSource interface {
	// FetchPairs ejecuta una única consulta, sin reintentos ni cache.
	// Los errores son *domain.FetchError para que el llamador decida si reintentar.
	FetchPairs(ctx context.Context, q domain.Query) (domain.PairBatch, error)
}

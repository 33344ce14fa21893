package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marca un registro del proveedor sin identidad completa.
	ErrMalformedRecord = errors.New("malformed pair record")
	// ErrRegistryCorruption no debería ocurrir con un único escritor.
	ErrRegistryCorruption = errors.New("registry entry corrupted")
	// ErrUnknownProfile se devuelve al pedir un perfil que no existe.
	ErrUnknownProfile = errors.New("unknown criteria profile")
	// ErrNoPairs indica que el proveedor no tiene pares para el token pedido.
	ErrNoPairs = errors.New("no pairs found for token")
	// ErrCircuitOpen indica que el breaker del proveedor está abierto.
	ErrCircuitOpen = errors.New("provider circuit open")
)

// FetchError es el error tipado del fetcher.
// Transient indica fallos de red, 5xx o 429 que admiten reintento.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient devuelve true si err contiene un FetchError transitorio.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	return false
}

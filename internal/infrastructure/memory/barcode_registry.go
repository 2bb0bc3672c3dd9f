package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/scinventory/internal/domain/barcode"
)

var _ barcode.Registry = (*BarcodeRegistry)(nil)

// BarcodeRegistry registro de códigos emitidos por este proceso.
type BarcodeRegistry struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

// NewBarcodeRegistry crea el registro, opcionalmente precargado con códigos existentes.
func NewBarcodeRegistry(existing ...string) *BarcodeRegistry {
	r := &BarcodeRegistry{codes: make(map[string]struct{}, len(existing))}
	for _, c := range existing {
		r.codes[c] = struct{}{}
	}
	return r
}

// Reserve marca el código como emitido; false si ya lo estaba.
func (r *BarcodeRegistry) Reserve(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code]; ok {
		return false, nil
	}
	r.codes[code] = struct{}{}
	return true, nil
}

// Release libera un código que no llegó a persistirse.
func (r *BarcodeRegistry) Release(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, code)
	return nil
}

// Package barcode genera los tokens cortos que identifican cada ítem en el escáner.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Prefix de todos los códigos emitidos.
	Prefix = "ITEM-"
	// SuffixLen caracteres base 36 después del prefijo.
	SuffixLen = 9
	// DefaultMaxAttempts reservas intentadas antes de rendirse.
	DefaultMaxAttempts = 5
)

// ErrExhausted no se encontró un código libre tras MaxAttempts reservas.
var ErrExhausted = errors.New("barcode: no se pudo reservar un código único")

// Registry reserva códigos de forma atómica. Reserve devuelve false si el código ya fue emitido.
// Los códigos no se liberan al borrar el ítem: una etiqueta vieja nunca resuelve a un ítem nuevo.
type Registry interface {
	Reserve(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

// Generator emite códigos únicos reservándolos en un Registry.
type Generator struct {
	registry    Registry
	maxAttempts int
}

// NewGenerator construye el generador. maxAttempts <= 0 usa DefaultMaxAttempts.
func NewGenerator(registry Registry, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{registry: registry, maxAttempts: maxAttempts}
}

// Next devuelve un código nuevo ya reservado.
func (g *Generator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := Token()
		if err != nil {
			return "", err
		}
		ok, err := g.registry.Reserve(ctx, code)
		if err != nil {
			return "", fmt.Errorf("barcode: reservar: %w", err)
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Release devuelve un código reservado que nunca llegó a persistirse.
func (g *Generator) Release(ctx context.Context, code string) error {
	return g.registry.Release(ctx, code)
}

// Token genera un código ITEM-xxxxxxxxx (base 36, minúsculas) a partir de un UUID v4.
func Token() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("barcode: entropía: %w", err)
	}
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < SuffixLen {
		s = strings.Repeat("0", SuffixLen-len(s)) + s
	}
	return Prefix + s[len(s)-SuffixLen:], nil
}

// Valid indica si s tiene la forma de un código emitido por Token.
func Valid(s string) bool {
	if !strings.HasPrefix(s, Prefix) || len(s) != len(Prefix)+SuffixLen {
		return false
	}
	for _, r := range s[len(Prefix):] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}

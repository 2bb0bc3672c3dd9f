package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("ítem no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConflict          = errors.New("código de barras duplicado")
	ErrStaleWrite        = errors.New("la cantidad cambió desde la última lectura")
	ErrTransientStore    = errors.New("almacén no disponible")
	ErrTimeout           = errors.New("tiempo de espera agotado")
)

// FieldError describe un campo rechazado por la validación.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError entrada mal formada o incompleta. Nunca llega al repositorio.
// errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError construye un ValidationError de un solo campo.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return ErrInvalidInput.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ConflictError más de un registro vivo comparte el mismo código de barras (corrupción de datos).
// No se resuelve eligiendo uno: se reporta con todos los IDs implicados.
type ConflictError struct {
	Barcode string
	IDs     []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %q aparece en %d registros (%s)",
		ErrConflict.Error(), e.Barcode, len(e.IDs), strings.Join(e.IDs, ", "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Transient envuelve un fallo del almacén como reintentable.
// Un deadline del contexto se reporta como ErrTimeout.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}

// IsRetryable indica si el llamador puede reintentar la operación tal cual.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrStaleWrite)
}

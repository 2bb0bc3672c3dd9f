package rediscache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/scinventory/internal/domain/barcode"
)

var _ barcode.Registry = (*BarcodeRegistry)(nil)

// BarcodeRegistry registro de códigos compartido entre instancias (SETNX sin expiración).
type BarcodeRegistry struct {
	rdb *redis.Client
}

// NewBarcodeRegistry construye el registro.
func NewBarcodeRegistry(rdb *redis.Client) *BarcodeRegistry {
	return &BarcodeRegistry{rdb: rdb}
}

func barcodeKey(code string) string { return "scinventory:barcode:" + code }

// Reserve marca el código como emitido; false si otra instancia ya lo hizo.
func (r *BarcodeRegistry) Reserve(ctx context.Context, code string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, barcodeKey(code), 1, 0).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", code, err)
	}
	return ok, nil
}

// Release libera un código que no llegó a persistirse.
func (r *BarcodeRegistry) Release(ctx context.Context, code string) error {
	return r.rdb.Del(ctx, barcodeKey(code)).Err()
}

// Seed marca como emitidos códigos ya persistidos (arranque sobre un almacén existente).
func (r *BarcodeRegistry) Seed(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range codes {
			p.SetNX(ctx, barcodeKey(c), 1, 0)
		}
		return nil
	})
	return err
}

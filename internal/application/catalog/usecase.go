// Package catalog casos de uso de alta, edición y baja de ítems, y la vista agrupada por departamento.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/inventory"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

// BarcodeGenerator emite códigos únicos ya reservados.
type BarcodeGenerator interface {
	Next(ctx context.Context) (string, error)
	Release(ctx context.Context, code string) error
}

// SnapshotReader vista viva de la colección.
type SnapshotReader interface {
	Current() liveview.Snapshot
	Refresh(ctx context.Context) (liveview.Snapshot, error)
}

// maxCreateAttempts altas reintentadas con un código nuevo si el almacén reporta duplicado.
const maxCreateAttempts = 3

// UseCase gestor del catálogo de inventario.
type UseCase struct {
	repo      repository.ItemRepository
	barcodes  BarcodeGenerator
	view      SnapshotReader
	validator *Validator
	log       zerolog.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(repo repository.ItemRepository, barcodes BarcodeGenerator, view SnapshotReader, log zerolog.Logger) *UseCase {
	return &UseCase{
		repo:      repo,
		barcodes:  barcodes,
		view:      view,
		validator: NewValidator(),
		log:       log.With().Str("component", "catalog").Logger(),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// CreateItem valida el borrador, asigna código y timestamps, persiste y limpia el borrador.
// Si la validación falla devuelve *domain.ValidationError y el borrador queda intacto.
func (uc *UseCase) CreateItem(ctx context.Context, draft *dto.ItemDraft) (*dto.ItemResponse, error) {
	if draft == nil {
		return nil, domain.NewValidationError("draft", "es requerido")
	}
	fields, err := uc.validator.Fields(*draft)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		code, err := uc.barcodes.Next(ctx)
		if err != nil {
			return nil, domain.Transient("generar código de barras", err)
		}
		now := uc.now()
		item := &entity.Item{ItemFields: fields, Barcode: code, CreatedAt: now, UpdatedAt: now}
		_, err = uc.repo.Create(ctx, item)
		if err == nil {
			uc.log.Info().Str("item_id", item.ID).Str("barcode", code).Str("college", string(item.College)).Msg("ítem creado")
			draft.Reset()
			return dto.ToItemResponse(item), nil
		}
		if rerr := uc.barcodes.Release(ctx, code); rerr != nil {
			uc.log.Warn().Err(rerr).Str("barcode", code).Msg("no se pudo liberar el código")
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxCreateAttempts {
			return nil, err
		}
		uc.log.Warn().Str("barcode", code).Msg("código ya presente en el almacén, regenerando")
	}
}

// UpdateItem reemplaza los campos editables; el código de barras no cambia.
func (uc *UseCase) UpdateItem(ctx context.Context, id string, draft dto.ItemDraft) (*dto.ItemResponse, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "es requerido")
	}
	fields, err := uc.validator.Fields(draft)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if err := uc.repo.Update(ctx, id, fields, now); err != nil {
		return nil, err
	}
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		// Borrado entre la escritura y la relectura.
		return nil, domain.ErrNotFound
	}
	uc.log.Info().Str("item_id", id).Msg("ítem actualizado")
	return dto.ToItemResponse(item), nil
}

// DeleteItem elimina por ID sin condiciones; un ID ausente no es error.
func (uc *UseCase) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError("id", "es requerido")
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("item_id", id).Msg("ítem eliminado")
	return nil
}

// GetItem obtiene un ítem por ID; domain.ErrNotFound si no existe.
func (uc *UseCase) GetItem(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ToItemResponse(item), nil
}

// ListItems snapshot actual de la colección.
func (uc *UseCase) ListItems(ctx context.Context) (*dto.SnapshotResponse, error) {
	snap, err := uc.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SnapshotResponse{Version: snap.Version, TakenAt: snap.TakenAt, Items: dto.ToItemResponses(snap.Items)}, nil
}

// Grouped inventario del snapshot actual agrupado por departamento.
func (uc *UseCase) Grouped(ctx context.Context) (*dto.GroupedResponse, error) {
	snap, err := uc.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToGroupedResponse(snap.Version, inventory.GroupByDepartment(snap.Items)), nil
}

func (uc *UseCase) snapshot(ctx context.Context) (liveview.Snapshot, error) {
	snap := uc.view.Current()
	if snap.Ready() {
		return snap, nil
	}
	snap, err := uc.view.Refresh(ctx)
	if err != nil {
		return snap, fmt.Errorf("leer snapshot: %w", err)
	}
	return snap, nil
}

// Package scan motor de reconciliación: traduce un código escaneado y una cantidad en un
// descuento de inventario todo-o-nada, o en la baja del registro cuando el stock llega a 0.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

// SnapshotSource vista de la colección contra la que se resuelven los códigos.
type SnapshotSource interface {
	Current() liveview.Snapshot
	Refresh(ctx context.Context) (liveview.Snapshot, error)
}

// Config parámetros del motor.
type Config struct {
	Timeout         time.Duration // por escaneo, incluye resolución, escritura y refresco
	MaxAttempts     int           // resoluciones intentadas cuando el compare-and-swap pierde
	DefaultQuantity int           // cantidad cuando el escaneo no la indica
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second, MaxAttempts: 3, DefaultQuantity: 1}
}

// Engine procesa escaneos de una sesión de forma serial.
type Engine struct {
	repo repository.ItemRepository
	view SnapshotSource
	cfg  Config
	log  zerolog.Logger
	now  func() time.Time

	mu sync.Mutex // un escaneo a la vez: el siguiente ve el snapshot ya refrescado
}

// NewEngine construye el motor. Valores de cfg no positivos toman el de DefaultConfig.
func NewEngine(repo repository.ItemRepository, view SnapshotSource, cfg Config, log zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.DefaultQuantity <= 0 {
		cfg.DefaultQuantity = def.DefaultQuantity
	}
	return &Engine{
		repo: repo,
		view: view,
		cfg:  cfg,
		log:  log.With().Str("component", "scan").Logger(),
		now:  time.Now,
	}
}

// Scan resuelve el código, valida la cantidad y aplica la escritura condicionada.
// El resultado siempre viene informado; err es nil solo para Applied y Depleted y, en otro caso,
// es el error de dominio correspondiente (ValidationError, ErrNotFound, ErrInsufficientStock,
// *ConflictError, ErrStaleWrite, ErrTransientStore, ErrTimeout).
func (e *Engine) Scan(ctx context.Context, in dto.ScanRequest) (*dto.ScanOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	code := strings.TrimSpace(in.Barcode)
	out := &dto.ScanOutcome{Barcode: code}

	requested, err := e.requestedQuantity(in)
	if err != nil {
		out.State, out.Message = dto.ScanInvalid, err.Error()
		return out, err
	}
	out.Requested = requested
	if code == "" {
		err := domain.NewValidationError("barcode", "es requerido")
		out.State, out.Message = dto.ScanInvalid, err.Error()
		return out, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	err = e.reconcile(ctx, code, requested, out)
	e.refresh(ctx)
	e.report(out, err)
	return out, err
}

func (e *Engine) requestedQuantity(in dto.ScanRequest) (int, error) {
	if in.Quantity == nil {
		return e.cfg.DefaultQuantity, nil
	}
	if *in.Quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	return *in.Quantity, nil
}

// reconcile ciclo resolver → validar → aplicar; reintenta la resolución si la escritura
// condicionada encuentra otra cantidad o el registro ya no está.
func (e *Engine) reconcile(ctx context.Context, code string, requested int, out *dto.ScanOutcome) error {
	snap, fresh, err := e.snapshot(ctx)
	if err != nil {
		return e.fail(ctx, out, err)
	}

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		item, err := ResolveBarcode(snap.Items, code)
		if errors.Is(err, domain.ErrNotFound) && !fresh {
			// El snapshot publicado puede no incluir todavía un alta reciente.
			if snap, err = e.view.Refresh(ctx); err != nil {
				return e.fail(ctx, out, err)
			}
			fresh = true
			item, err = ResolveBarcode(snap.Items, code)
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				out.State, out.Message = dto.ScanNotFound, "ítem no encontrado"
			} else {
				out.State, out.Message = dto.ScanConflict, err.Error()
			}
			return err
		}
		out.ItemID, out.Text, out.Previous = item.ID, item.Text, item.Quantity

		updated := item.Quantity - requested
		if updated < 0 {
			out.State, out.Remaining = dto.ScanRejected, item.Quantity
			out.Message = fmt.Sprintf("stock insuficiente: se pidieron %d, hay %d", requested, item.Quantity)
			return domain.ErrInsufficientStock
		}

		if updated > 0 {
			err = e.repo.UpdateQuantity(ctx, item.ID, item.Quantity, updated, e.now())
		} else {
			err = e.repo.DeleteIfQuantity(ctx, item.ID, item.Quantity)
		}
		switch {
		case err == nil:
			out.Remaining = updated
			if updated > 0 {
				out.State, out.Message = dto.ScanApplied, fmt.Sprintf("aplicado, quedan %d", updated)
			} else {
				out.State, out.Message = dto.ScanDepleted, "agotado: el ítem se consumió por completo y fue eliminado"
			}
			return nil
		case errors.Is(err, domain.ErrStaleWrite), errors.Is(err, domain.ErrNotFound):
			e.log.Debug().Str("barcode", code).Int("attempt", attempt).Err(err).Msg("escritura condicionada perdida, re-resolviendo")
			snap, err = e.view.Refresh(ctx)
			if err != nil {
				return e.fail(ctx, out, err)
			}
			fresh = true
		default:
			return e.fail(ctx, out, err)
		}
	}

	out.State, out.Retryable = dto.ScanFailed, true
	out.Message = "el ítem cambió mientras se procesaba el escaneo; reintente"
	return fmt.Errorf("%d intentos: %w", e.cfg.MaxAttempts, domain.ErrStaleWrite)
}

// snapshot último snapshot conocido; si el proyector aún no tiene datos, lo pide.
// fresh indica que viene de una lectura hecha para este escaneo.
func (e *Engine) snapshot(ctx context.Context) (snap liveview.Snapshot, fresh bool, err error) {
	if snap = e.view.Current(); snap.Ready() {
		return snap, false, nil
	}
	snap, err = e.view.Refresh(ctx)
	return snap, true, err
}

// fail clasifica un fallo del almacén: timeout si venció el plazo del escaneo, si no transitorio
// (incluida la cancelación del llamador). Siempre reintentable.
func (e *Engine) fail(ctx context.Context, out *dto.ScanOutcome, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	} else if !errors.Is(err, domain.ErrTransientStore) && !errors.Is(err, domain.ErrTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrTransientStore, err)
	}
	out.State, out.Retryable = dto.ScanFailed, true
	if errors.Is(err, domain.ErrTimeout) {
		out.Message = "tiempo de espera agotado; no se aplicó ningún cambio"
	} else {
		out.Message = "almacén no disponible; no se aplicó ningún cambio"
	}
	return err
}

// refresh re-sincroniza la vista antes de aceptar el siguiente escaneo. Un fallo aquí no cambia el resultado.
func (e *Engine) refresh(ctx context.Context) {
	if _, err := e.view.Refresh(ctx); err != nil {
		e.log.Warn().Err(err).Msg("no se pudo refrescar el snapshot tras el escaneo")
	}
}

func (e *Engine) report(out *dto.ScanOutcome, err error) {
	ev := e.log.Info()
	switch out.State {
	case dto.ScanConflict:
		ev = e.log.Error()
	case dto.ScanFailed:
		ev = e.log.Warn()
	}
	ev.Str("barcode", out.Barcode).
		Str("state", string(out.State)).
		Str("item_id", out.ItemID).
		Int("requested", out.Requested).
		Int("previous", out.Previous).
		Int("remaining", out.Remaining).
		Err(err).
		Msg("escaneo procesado")
}

// ResolveBarcode busca el único registro vivo con ese código en el snapshot.
// domain.ErrNotFound si no hay ninguno; *domain.ConflictError si hay más de uno.
func ResolveBarcode(items []*entity.Item, code string) (*entity.Item, error) {
	var match *entity.Item
	var ids []string
	for _, it := range items {
		if it == nil || it.Barcode != code {
			continue
		}
		if match == nil {
			match = it
		}
		ids = append(ids, it.ID)
	}
	switch len(ids) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return match, nil
	default:
		return nil, &domain.ConflictError{Barcode: code, IDs: ids}
	}
}

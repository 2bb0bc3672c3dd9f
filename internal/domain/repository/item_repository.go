package repository

import (
	"context"
	"time"

	"github.com/jhoicas/scinventory/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
// Los fallos de red/disponibilidad se devuelven envueltos en domain.ErrTransientStore.
type ItemRepository interface {
	// Create persiste el ítem y devuelve el ID asignado por el almacén (también lo fija en item.ID).
	// Devuelve domain.ErrConflict si el código de barras ya existe.
	Create(ctx context.Context, item *entity.Item) (string, error)
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// Update reemplaza los campos editables. domain.ErrNotFound si no existe.
	Update(ctx context.Context, id string, fields entity.ItemFields, updatedAt time.Time) error
	// UpdateQuantity escribe quantity solo si la cantidad almacenada es expected (compare-and-swap).
	// domain.ErrStaleWrite si cambió, domain.ErrNotFound si el registro ya no existe.
	UpdateQuantity(ctx context.Context, id string, expected, quantity int, updatedAt time.Time) error
	// Delete es idempotente: borrar un ID ausente no es error.
	Delete(ctx context.Context, id string) error
	// DeleteIfQuantity borra solo si la cantidad almacenada es expected.
	DeleteIfQuantity(ctx context.Context, id string, expected int) error
	// ListAll lectura completa de la colección.
	ListAll(ctx context.Context) ([]*entity.Item, error)
}

// ChangeFeed notificaciones "la colección cambió". El canal se cierra cuando ctx termina
// o cuando la suscripción subyacente se rompe.
type ChangeFeed interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

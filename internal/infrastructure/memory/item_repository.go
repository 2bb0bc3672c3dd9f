// Package memory implementa los puertos de persistencia en memoria (desarrollo y tests).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var (
	_ repository.ItemRepository = (*ItemRepository)(nil)
	_ repository.ChangeFeed     = (*ItemRepository)(nil)
)

// ItemRepository almacén en memoria con notificación de cambios.
// ListAll devuelve los ítems en orden de creación.
type ItemRepository struct {
	mu       sync.RWMutex
	items    map[string]*entity.Item
	order    []string
	barcodes map[string]string // barcode -> id

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewItemRepository crea un repositorio vacío.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		items:    make(map[string]*entity.Item),
		barcodes: make(map[string]string),
		subs:     make(map[int]chan struct{}),
	}
}

// Create asigna un UUID como ID y guarda una copia del ítem.
func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Transient("create item", err)
	}
	r.mu.Lock()
	if _, taken := r.barcodes[item.Barcode]; taken {
		r.mu.Unlock()
		return "", domain.ErrConflict
	}
	item.ID = uuid.New().String()
	r.items[item.ID] = item.Clone()
	r.order = append(r.order, item.ID)
	r.barcodes[item.Barcode] = item.ID
	r.mu.Unlock()

	r.notify()
	return item.ID, nil
}

// GetByID devuelve una copia o nil si no existe.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("get item", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id].Clone(), nil
}

// Update reemplaza los campos editables.
func (r *ItemRepository) Update(ctx context.Context, id string, fields entity.ItemFields, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("update item", err)
	}
	r.mu.Lock()
	it, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	next := it.Clone()
	next.ItemFields = fields
	next.UpdatedAt = updatedAt
	r.items[id] = next.Clone()
	r.mu.Unlock()

	r.notify()
	return nil
}

// UpdateQuantity compare-and-swap sobre Quantity.
func (r *ItemRepository) UpdateQuantity(ctx context.Context, id string, expected, quantity int, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("update item quantity", err)
	}
	r.mu.Lock()
	it, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	if it.Quantity != expected {
		r.mu.Unlock()
		return domain.ErrStaleWrite
	}
	it.Quantity = quantity
	it.UpdatedAt = updatedAt
	r.mu.Unlock()

	r.notify()
	return nil
}

// Delete idempotente.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("delete item", err)
	}
	r.mu.Lock()
	removed := r.remove(id)
	r.mu.Unlock()

	if removed {
		r.notify()
	}
	return nil
}

// DeleteIfQuantity borra solo si Quantity == expected.
func (r *ItemRepository) DeleteIfQuantity(ctx context.Context, id string, expected int) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("delete item", err)
	}
	r.mu.Lock()
	it, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	if it.Quantity != expected {
		r.mu.Unlock()
		return domain.ErrStaleWrite
	}
	r.remove(id)
	r.mu.Unlock()

	r.notify()
	return nil
}

// ListAll copia de todos los ítems en orden de creación.
func (r *ItemRepository) ListAll(ctx context.Context) ([]*entity.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Transient("list items", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out, nil
}

// Watch registra un suscriptor. Las notificaciones se fusionan: el canal tiene buffer 1.
func (r *ItemRepository) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()

	go func() {
		<-ctx.Done()
		r.subMu.Lock()
		delete(r.subs, id)
		close(ch)
		r.subMu.Unlock()
	}()
	return ch, nil
}

// remove requiere r.mu tomado.
func (r *ItemRepository) remove(id string) bool {
	it, ok := r.items[id]
	if !ok {
		return false
	}
	delete(r.items, id)
	delete(r.barcodes, it.Barcode)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *ItemRepository) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var _ repository.ItemRepository = (*CachedItemRepository)(nil)

// DefaultTTL vida de una entrada si no se indica otra.
const DefaultTTL = time.Minute

// CachedItemRepository decora un ItemRepository con caché read-through de GetByID.
// Toda mutación invalida la clave del ítem antes y después de escribir. Si Redis falla, se lee del almacén.
type CachedItemRepository struct {
	next  repository.ItemRepository
	rdb   *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
	group singleflight.Group
}

// NewCachedItemRepository construye el decorador.
func NewCachedItemRepository(next repository.ItemRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedItemRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedItemRepository{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "item-cache").Logger(),
	}
}

func itemKey(id string) string { return "scinventory:item:" + id }

func (c *CachedItemRepository) Create(ctx context.Context, item *entity.Item) (string, error) {
	return c.next.Create(ctx, item)
}

// GetByID consulta Redis y, si no está, el almacén; los fallos concurrentes de la misma clave
// comparten una sola lectura.
func (c *CachedItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	key := itemKey(id)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var it entity.Item
		if jerr := json.Unmarshal(raw, &it); jerr == nil {
			return &it, nil
		}
		c.log.Warn().Str("key", key).Msg("entrada de caché ilegible, se descarta")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("redis no disponible, leyendo del almacén")
		return c.next.GetByID(ctx, id)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		it, err := c.next.GetByID(ctx, id)
		if err != nil || it == nil {
			return it, err
		}
		if data, jerr := json.Marshal(it); jerr == nil {
			if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
				c.log.Warn().Err(serr).Msg("no se pudo poblar la caché")
			}
		}
		return it, nil
	})
	if err != nil {
		return nil, err
	}
	it, _ := v.(*entity.Item)
	return it.Clone(), nil
}

func (c *CachedItemRepository) Update(ctx context.Context, id string, fields entity.ItemFields, updatedAt time.Time) error {
	return c.mutate(ctx, id, func() error { return c.next.Update(ctx, id, fields, updatedAt) })
}

func (c *CachedItemRepository) UpdateQuantity(ctx context.Context, id string, expected, quantity int, updatedAt time.Time) error {
	return c.mutate(ctx, id, func() error { return c.next.UpdateQuantity(ctx, id, expected, quantity, updatedAt) })
}

func (c *CachedItemRepository) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, id, func() error { return c.next.Delete(ctx, id) })
}

func (c *CachedItemRepository) DeleteIfQuantity(ctx context.Context, id string, expected int) error {
	return c.mutate(ctx, id, func() error { return c.next.DeleteIfQuantity(ctx, id, expected) })
}

// ListAll no se cachea: la vista viva ya materializa la colección.
func (c *CachedItemRepository) ListAll(ctx context.Context) ([]*entity.Item, error) {
	return c.next.ListAll(ctx)
}

// mutate borra la clave antes y después de escribir. El segundo borrado descarta lo que
// un GetByID concurrente haya repoblado con el valor anterior mientras la escritura corría.
func (c *CachedItemRepository) mutate(ctx context.Context, id string, write func() error) error {
	c.invalidate(ctx, id)
	defer c.invalidate(ctx, id)
	return write()
}

func (c *CachedItemRepository) invalidate(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, itemKey(id)).Err(); err != nil {
		c.log.Warn().Err(err).Str("item_id", id).Msg("no se pudo invalidar la caché")
	}
}

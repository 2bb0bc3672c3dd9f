// Package store arma el almacén de ítems según STORE_BACKEND: repositorio, feed de cambios
// y registro de códigos de barras, con la caché Redis opcional por delante.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/domain/barcode"
	"github.com/jhoicas/scinventory/internal/domain/repository"
	"github.com/jhoicas/scinventory/internal/infrastructure/memory"
	"github.com/jhoicas/scinventory/internal/infrastructure/mongodb"
	"github.com/jhoicas/scinventory/internal/infrastructure/postgres"
	"github.com/jhoicas/scinventory/internal/infrastructure/rediscache"
	"github.com/jhoicas/scinventory/pkg/config"
)

// Store dependencias de persistencia listas para inyectar.
type Store struct {
	Items    repository.ItemRepository
	Feed     repository.ChangeFeed
	Registry barcode.Registry

	closers []func()
}

// Close libera conexiones en orden inverso a su apertura.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open conecta el backend configurado. Ante error, lo ya abierto se cierra.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *Store, err error) {
	s := &Store{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		s.Items = postgres.NewItemRepository(pool)
		s.Feed = postgres.NewChangeFeed(pool, log)

	case config.BackendMongo:
		client, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		repo := mongodb.NewItemRepository(coll)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("índices mongo: %w", err)
		}
		s.Items = repo
		s.Feed = mongodb.NewChangeStream(coll, log)

	default:
		repo := memory.NewItemRepository()
		s.Items, s.Feed = repo, repo
	}

	codes, err := existingBarcodes(ctx, s.Items)
	if err != nil {
		return nil, err
	}

	if !cfg.Redis.Enabled() {
		s.Registry = memory.NewBarcodeRegistry(codes...)
		return s, nil
	}

	rdb, err := rediscache.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() { _ = rdb.Close() })
	registry := rediscache.NewBarcodeRegistry(rdb)
	if err := registry.Seed(ctx, codes); err != nil {
		return nil, fmt.Errorf("registrar códigos existentes: %w", err)
	}
	s.Registry = registry
	s.Items = rediscache.NewCachedItemRepository(s.Items, rdb, cfg.Redis.CacheTTL, log)
	log.Info().Str("addr", cfg.Redis.Addr).Msg("caché Redis habilitada")
	return s, nil
}

// existingBarcodes códigos ya emitidos: nunca se vuelven a entregar.
func existingBarcodes(ctx context.Context, repo repository.ItemRepository) ([]string, error) {
	items, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer ítems existentes: %w", err)
	}
	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.Barcode)
	}
	return codes, nil
}

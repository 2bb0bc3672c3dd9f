package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var _ repository.ChangeFeed = (*ChangeFeed)(nil)

// ItemsChannel canal de NOTIFY emitido por el trigger de la tabla items.
const ItemsChannel = "items_changed"

// ChangeFeed notificaciones de cambios vía LISTEN/NOTIFY sobre una conexión dedicada del pool.
type ChangeFeed struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewChangeFeed construye el feed.
func NewChangeFeed(pool *pgxpool.Pool, log zerolog.Logger) *ChangeFeed {
	return &ChangeFeed{pool: pool, log: log.With().Str("component", "pg-feed").Logger()}
}

// Watch toma una conexión, ejecuta LISTEN y reenvía cada NOTIFY como una señal (fusionadas, buffer 1).
// El canal se cierra si ctx termina o la conexión se pierde.
func (f *ChangeFeed) Watch(ctx context.Context) (<-chan struct{}, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, classify("acquire listen conn", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ItemsChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", ItemsChannel, classify("listen", err))
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			// La conexión sigue suscrita: se cierra en lugar de devolverla al pool.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()
		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() == nil {
					f.log.Warn().Err(err).Msg("LISTEN interrumpido")
				}
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

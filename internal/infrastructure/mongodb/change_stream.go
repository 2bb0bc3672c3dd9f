package mongodb

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var _ repository.ChangeFeed = (*ChangeStream)(nil)

// ChangeStream notificaciones de cambios de la colección vía change streams (requiere replica set).
type ChangeStream struct {
	coll *mongo.Collection
	log  zerolog.Logger
}

// NewChangeStream construye el feed.
func NewChangeStream(coll *mongo.Collection, log zerolog.Logger) *ChangeStream {
	return &ChangeStream{coll: coll, log: log.With().Str("component", "mongo-feed").Logger()}
}

// Watch abre el change stream; cada evento se reenvía como una señal (fusionadas, buffer 1).
func (s *ChangeStream) Watch(ctx context.Context) (<-chan struct{}, error) {
	stream, err := s.coll.Watch(ctx, mongo.Pipeline{}, options.ChangeStream().SetFullDocument(options.Default))
	if err != nil {
		return nil, domain.Transient("watch items", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			select {
			case out <- struct{}{}:
			default:
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("change stream interrumpido")
		}
	}()
	return out, nil
}

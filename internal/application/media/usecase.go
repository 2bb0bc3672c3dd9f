// Package media subida de fotos de ítems: la URL devuelta se guarda en el campo image del ítem.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/domain"
)

// BlobStorage puerto de almacenamiento de archivos.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// Image foto ya normalizada, lista para guardar.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string // con punto: ".jpg"
}

// ImageProcessor puerto de normalización de fotos.
// Un formato no soportado o un archivo demasiado grande es *domain.ValidationError.
type ImageProcessor interface {
	Normalize(r io.Reader) (Image, error)
}

// UploadResult respuesta de la subida.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UseCase caso de uso de fotos.
type UseCase struct {
	store  BlobStorage
	images ImageProcessor
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(store BlobStorage, images ImageProcessor, log zerolog.Logger) *UseCase {
	return &UseCase{store: store, images: images, log: log.With().Str("component", "media").Logger()}
}

// UploadImage normaliza la foto y la guarda en images/<uuid><ext>.
func (uc *UseCase) UploadImage(ctx context.Context, r io.Reader) (*UploadResult, error) {
	img, err := uc.images.Normalize(r)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("images/%s%s", uuid.NewString(), img.Ext)
	if err := uc.store.Upload(ctx, key, img.Data, img.ContentType); err != nil {
		return nil, domain.Transient("subir imagen", err)
	}
	u, err := uc.store.URL(ctx, key)
	if err != nil {
		return nil, domain.Transient("url de imagen", err)
	}
	uc.log.Info().Str("key", key).Int("bytes", len(img.Data)).Msg("imagen subida")
	return &UploadResult{Key: key, URL: u}, nil
}

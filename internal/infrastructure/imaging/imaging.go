// Package imaging normaliza las fotos de ítems: valida el formato real, reduce y re-codifica a JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // decodificador PNG
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/jhoicas/scinventory/internal/application/media"
	"github.com/jhoicas/scinventory/internal/domain"
)

const (
	// MaxDimension ancho o alto máximo almacenado.
	MaxDimension = 1024
	// MaxInputBytes tamaño máximo aceptado del archivo original.
	MaxInputBytes = 8 << 20
	// MaxPixels ancho x alto máximo declarado por la cabecera; se comprueba antes de decodificar.
	MaxPixels = 40_000_000
	// JPEGQuality calidad de salida.
	JPEGQuality = 85
	// OutputMIME las fotos siempre se guardan como JPEG.
	OutputMIME = "image/jpeg"
)

var (
	// ErrUnsupported el contenido no es JPEG ni PNG.
	ErrUnsupported = errors.New("imaging: formato no soportado (solo JPEG y PNG)")
	// ErrTooLarge el archivo supera MaxInputBytes o MaxPixels.
	ErrTooLarge = errors.New("imaging: archivo demasiado grande")
)

var accepted = map[string]bool{"image/jpeg": true, "image/png": true}

// Process lee la imagen, detecta el tipo por contenido (no por la cabecera del cliente),
// la reduce a MaxDimension conservando proporción y la devuelve como JPEG.
func Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("imaging: leer: %w", err)
	}
	if len(data) > MaxInputBytes {
		return nil, ErrTooLarge
	}
	if !accepted[http.DetectContentType(data)] {
		return nil, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxPixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d px", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("imaging: codificar JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

var _ media.ImageProcessor = Processor{}

// Processor adapta Process al puerto media.ImageProcessor.
type Processor struct{}

// Normalize procesa la foto; los rechazos se reportan como error de validación del campo image.
func (Processor) Normalize(r io.Reader) (media.Image, error) {
	data, err := Process(r)
	if err != nil {
		if errors.Is(err, ErrUnsupported) || errors.Is(err, ErrTooLarge) {
			return media.Image{}, domain.NewValidationError("image", err.Error())
		}
		return media.Image{}, err
	}
	return media.Image{Data: data, ContentType: OutputMIME, Ext: ".jpg"}, nil
}

// fit reduce img para que ningún lado supere max. Nunca amplía.
func fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}
	nw, nh := max, h*max/w
	if h > w {
		nw, nh = w*max/h, max
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Package barcodeimg dibuja el símbolo CODE128 de un código de ítem para imprimir etiquetas.
package barcodeimg

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

const (
	DefaultWidth  = 300
	DefaultHeight = 80
	MaxWidth      = 2000
	MaxHeight     = 1000
)

// Renderer genera PNG de códigos de barras.
type Renderer struct{}

// NewRenderer construye el renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// PNG codifica token en CODE128 y lo escala a width x height. Valores <= 0 usan los por defecto.
// El ancho se amplía al mínimo necesario si es menor que el número de módulos del símbolo.
func (r *Renderer) PNG(token string, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if width > MaxWidth || height > MaxHeight {
		return nil, fmt.Errorf("barcodeimg: tamaño %dx%d excede %dx%d", width, height, MaxWidth, MaxHeight)
	}

	bc, err := code128.Encode(token)
	if err != nil {
		return nil, fmt.Errorf("barcodeimg: code128 %q: %w", token, err)
	}
	if min := bc.Bounds().Dx(); width < min {
		width = min
	}
	scaled, err := barcode.Scale(bc, width, height)
	if err != nil {
		return nil, fmt.Errorf("barcodeimg: escalar: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("barcodeimg: png: %w", err)
	}
	return buf.Bytes(), nil
}

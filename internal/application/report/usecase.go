// Package report reportes imprimibles del inventario.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/domain/inventory"
)

// SnapshotReader vista viva de la colección.
type SnapshotReader interface {
	Current() liveview.Snapshot
	Refresh(ctx context.Context) (liveview.Snapshot, error)
}

// Inventory datos del reporte por departamento.
type Inventory struct {
	Title         string
	GeneratedAt   time.Time
	Version       uint64
	Groups        []inventory.DepartmentGroup
	TotalQuantity int
	TotalValue    decimal.Decimal
}

// PDFGenerator puerto de renderizado del reporte.
type PDFGenerator interface {
	InventoryPDF(ctx context.Context, data Inventory) ([]byte, error)
}

// UseCase genera el reporte de inventario agrupado.
type UseCase struct {
	view SnapshotReader
	gen  PDFGenerator
	now  func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(view SnapshotReader, gen PDFGenerator) *UseCase {
	return &UseCase{view: view, gen: gen, now: time.Now}
}

// Build arma los datos del reporte a partir del snapshot actual.
func (uc *UseCase) Build(ctx context.Context) (Inventory, error) {
	snap := uc.view.Current()
	if !snap.Ready() {
		var err error
		if snap, err = uc.view.Refresh(ctx); err != nil {
			return Inventory{}, fmt.Errorf("reporte: leer snapshot: %w", err)
		}
	}
	groups := inventory.GroupByDepartment(snap.Items)
	data := Inventory{
		Title:       "Inventario por departamento",
		GeneratedAt: uc.now(),
		Version:     snap.Version,
		Groups:      groups,
		TotalValue:  decimal.Zero,
	}
	for _, g := range groups {
		data.TotalQuantity += g.TotalQuantity
		data.TotalValue = data.TotalValue.Add(g.TotalValue)
	}
	return data, nil
}

// InventoryPDF genera el PDF y su nombre de archivo.
func (uc *UseCase) InventoryPDF(ctx context.Context) ([]byte, string, error) {
	data, err := uc.Build(ctx)
	if err != nil {
		return nil, "", err
	}
	doc, err := uc.gen.InventoryPDF(ctx, data)
	if err != nil {
		return nil, "", err
	}
	return doc, fmt.Sprintf("inventario-%s.pdf", data.GeneratedAt.Format("20060102-1504")), nil
}

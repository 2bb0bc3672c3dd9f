// Package pdf genera el reporte imprimible de inventario por departamento.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha/versión del snapshot                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DEPARTAMENTO (CCS)            total unidades / valor       │
//	│  TABLA: Ítem | Cant | Precio | Proveedor | Tipo | Fecha     │
//	│         + código CODE128 por ítem                           │
//	│  ...un bloque por departamento...                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL GENERAL                                              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/scinventory/internal/application/report"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ report.PDFGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa report.PDFGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// InventoryPDF genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) InventoryPDF(_ context.Context, data report.Inventory) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(data.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	if len(data.Groups) == 0 {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Sin ítems en inventario.", props.Text{Size: 10, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}
	for _, grp := range data.Groups {
		m.AddRows(row.New(3))
		m.AddRows(departmentRow(grp))
		m.AddRows(tableHeaderRow())
		m.AddRows(itemRows(grp.Items)...)
	}

	m.AddRows(line.NewRow(3, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data report.Inventory) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(data.Title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(4).Add(
			text.New("Generado: "+data.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Snapshot v%d", data.Version), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// departmentRow: código del departamento y sus totales.
func departmentRow(g inventory.DepartmentGroup) core.Row {
	return row.New(8).Add(
		col.New(6).Add(text.New("Departamento "+string(g.College), props.Text{
			Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 1,
		})),
		col.New(6).Add(text.New(
			fmt.Sprintf("%d unidades  |  $%s", g.TotalQuantity, money(g.TotalValue)),
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2},
		)),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorGray, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("Ítem", 3, align.Left),
		h("Cant.", 1, align.Center),
		h("Precio", 2, align.Right),
		h("Proveedor", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Solicitado", 2, align.Center),
	)
}

// itemRows: una fila de datos y una con el símbolo CODE128 por ítem.
func itemRows(items []*entity.Item) []core.Row {
	rows := make([]core.Row, 0, 2*len(items))
	for _, it := range items {
		rows = append(rows, row.New(6).Add(
			col.New(3).Add(text.New(it.Text, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(fmt.Sprint(it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+money(it.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(it.Supplier, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(string(it.ItemType), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.RequestedDate.Format(entity.RequestedDateLayout), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
		rows = append(rows, row.New(12).Add(
			col.New(4).Add(code.NewBar(it.Barcode, props.Barcode{Percent: 90, Center: true})),
			col.New(8).Add(text.New(it.Barcode, props.Text{Size: 7, Top: 4, Left: 2, Color: colorGray})),
		))
	}
	return rows
}

func totalsRow(data report.Inventory) core.Row {
	return row.New(10).Add(
		col.New(6).Add(text.New("TOTAL GENERAL", props.Text{Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 2})),
		col.New(6).Add(text.New(
			fmt.Sprintf("%d unidades  |  $%s", data.TotalQuantity, money(data.TotalValue)),
			props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2},
		)),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// money formatea con dos decimales y separador de miles: 1234567.5 → "1,234,567.50".
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if s[0] == '-' {
		sign, s = "-", s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, intPart[i])
	}
	return sign + string(buf) + frac
}

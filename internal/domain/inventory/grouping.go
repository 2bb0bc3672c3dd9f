package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scinventory/internal/domain/entity"
)

// DepartmentGroup ítems de un departamento con sus totales.
type DepartmentGroup struct {
	College       entity.College
	Items         []*entity.Item
	TotalQuantity int
	TotalValue    decimal.Decimal // Σ quantity * amount
}

// GroupByDepartment agrupa por College (servicio de dominio, función pura).
// Dentro de cada grupo se conserva el orden de entrada; los grupos salen ordenados por código.
func GroupByDepartment(items []*entity.Item) []DepartmentGroup {
	index := make(map[entity.College]int)
	var groups []DepartmentGroup
	for _, it := range items {
		if it == nil {
			continue
		}
		i, ok := index[it.College]
		if !ok {
			i = len(groups)
			index[it.College] = i
			groups = append(groups, DepartmentGroup{College: it.College, TotalValue: decimal.Zero})
		}
		g := &groups[i]
		g.Items = append(g.Items, it)
		g.TotalQuantity += it.Quantity
		g.TotalValue = g.TotalValue.Add(LineValue(it.Quantity, it.Amount))
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].College < groups[b].College })
	return groups
}

// Flatten devuelve los ítems de los grupos en orden de grupo.
func Flatten(groups []DepartmentGroup) []*entity.Item {
	var out []*entity.Item
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

// LineValue valor de una línea de inventario: cantidad * precio unitario.
func LineValue(quantity int, amount decimal.Decimal) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromInt(int64(quantity)))
}

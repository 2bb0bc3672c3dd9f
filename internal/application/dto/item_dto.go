package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/inventory"
)

// ItemDraft entrada para crear o editar un ítem (formulario de alta/edición).
// Amount >= 0 se valida aparte: validator no conoce decimal.Decimal.
type ItemDraft struct {
	Text          string          `json:"text" validate:"required,max=200"`
	College       string          `json:"college" validate:"required,oneof=CCS COC CED CBA BED COE"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedDate string          `json:"requested_date" validate:"required,datetime=2006-01-02"`
	Supplier      string          `json:"supplier" validate:"required,max=200"`
	ItemType      string          `json:"item_type" validate:"required,oneof='Equipment' 'Office Supplies' 'Books' 'Electrical Parts'"`
	Image         *string         `json:"image,omitempty" validate:"omitempty,url"`
}

// NewItemDraft borrador vacío con los valores por defecto del formulario.
func NewItemDraft() ItemDraft {
	return ItemDraft{Quantity: 1, ItemType: string(entity.ItemTypeEquipment)}
}

// Reset limpia el borrador tras un alta exitosa.
func (d *ItemDraft) Reset() { *d = NewItemDraft() }

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	College       string          `json:"college"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedDate string          `json:"requested_date"`
	Supplier      string          `json:"supplier"`
	ItemType      string          `json:"item_type"`
	Barcode       string          `json:"barcode"`
	Image         *string         `json:"image,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SnapshotResponse snapshot completo de la colección.
type SnapshotResponse struct {
	Version uint64         `json:"version"`
	TakenAt time.Time      `json:"taken_at"`
	Items   []ItemResponse `json:"items"`
}

// DepartmentResponse grupo de un departamento.
type DepartmentResponse struct {
	College       string          `json:"college"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Items         []ItemResponse  `json:"items"`
}

// GroupedResponse inventario agrupado por departamento.
type GroupedResponse struct {
	Version       uint64               `json:"version"`
	Departments   []DepartmentResponse `json:"departments"`
	TotalQuantity int                  `json:"total_quantity"`
}

// ToItemResponse mapea la entidad a su DTO.
func ToItemResponse(it *entity.Item) *ItemResponse {
	if it == nil {
		return nil
	}
	return &ItemResponse{
		ID:            it.ID,
		Text:          it.Text,
		College:       string(it.College),
		Quantity:      it.Quantity,
		Amount:        it.Amount,
		RequestedDate: it.RequestedDate.Format(entity.RequestedDateLayout),
		Supplier:      it.Supplier,
		ItemType:      string(it.ItemType),
		Barcode:       it.Barcode,
		Image:         it.Image,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

// ToItemResponses mapea una lista.
func ToItemResponses(items []*entity.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *ToItemResponse(it))
		}
	}
	return out
}

// ToGroupedResponse mapea los grupos de dominio.
func ToGroupedResponse(version uint64, groups []inventory.DepartmentGroup) *GroupedResponse {
	out := &GroupedResponse{Version: version, Departments: make([]DepartmentResponse, 0, len(groups))}
	for _, g := range groups {
		out.Departments = append(out.Departments, DepartmentResponse{
			College:       string(g.College),
			TotalQuantity: g.TotalQuantity,
			TotalValue:    g.TotalValue,
			Items:         ToItemResponses(g.Items),
		})
		out.TotalQuantity += g.TotalQuantity
	}
	return out
}

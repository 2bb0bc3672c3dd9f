package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// College departamento dueño del ítem; clave de agrupación del inventario.
type College string

const (
	CollegeCCS College = "CCS"
	CollegeCOC College = "COC"
	CollegeCED College = "CED"
	CollegeCBA College = "CBA"
	CollegeBED College = "BED"
	CollegeCOE College = "COE"
)

// Colleges conjunto fijo de departamentos válidos.
var Colleges = []College{CollegeCCS, CollegeCOC, CollegeCED, CollegeCBA, CollegeBED, CollegeCOE}

// Valid indica si el departamento pertenece al conjunto fijo.
func (c College) Valid() bool {
	for _, v := range Colleges {
		if c == v {
			return true
		}
	}
	return false
}

// ItemType tipo de ítem inventariado.
type ItemType string

const (
	ItemTypeEquipment       ItemType = "Equipment"
	ItemTypeOfficeSupplies  ItemType = "Office Supplies"
	ItemTypeBooks           ItemType = "Books"
	ItemTypeElectricalParts ItemType = "Electrical Parts"
)

// ItemTypes conjunto fijo de tipos válidos.
var ItemTypes = []ItemType{ItemTypeEquipment, ItemTypeOfficeSupplies, ItemTypeBooks, ItemTypeElectricalParts}

// Valid indica si el tipo pertenece al conjunto fijo.
func (t ItemType) Valid() bool {
	for _, v := range ItemTypes {
		if t == v {
			return true
		}
	}
	return false
}

// RequestedDateLayout formato de fecha (solo día) de RequestedDate.
const RequestedDateLayout = "2006-01-02"

// ItemFields campos editables de un ítem. ID, Barcode y timestamps no se editan.
type ItemFields struct {
	Text          string
	College       College
	Quantity      int
	Amount        decimal.Decimal // precio/costo unitario
	RequestedDate time.Time       // medianoche UTC
	Supplier      string
	ItemType      ItemType
	Image         *string // URL del asset en el almacenamiento de blobs
}

// Item registro de inventario. Un ítem con Quantity 0 no persiste: se elimina.
type Item struct {
	ID string
	ItemFields
	Barcode   string // único entre registros vivos, inmutable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia profunda (Image incluida) para que los snapshots no compartan punteros mutables.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.Image != nil {
		img := *i.Image
		c.Image = &img
	}
	return &c
}

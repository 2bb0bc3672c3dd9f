package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jhoicas/scinventory/internal/domain/entity"
)

// itemDocument forma persistida de un ítem. amount va como Decimal128 para no perder precisión.
type itemDocument struct {
	ID            string               `bson:"_id"`
	Text          string               `bson:"text"`
	College       string               `bson:"college"`
	Quantity      int                  `bson:"quantity"`
	Amount        primitive.Decimal128 `bson:"amount"`
	RequestedDate time.Time            `bson:"requested_date"`
	Supplier      string               `bson:"supplier"`
	ItemType      string               `bson:"item_type"`
	Image         *string              `bson:"image,omitempty"`
	Barcode       string               `bson:"barcode"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func toDocument(it *entity.Item) (itemDocument, error) {
	amount, err := primitive.ParseDecimal128(it.Amount.String())
	if err != nil {
		return itemDocument{}, fmt.Errorf("amount %s: %w", it.Amount, err)
	}
	return itemDocument{
		ID:            it.ID,
		Text:          it.Text,
		College:       string(it.College),
		Quantity:      it.Quantity,
		Amount:        amount,
		RequestedDate: it.RequestedDate,
		Supplier:      it.Supplier,
		ItemType:      string(it.ItemType),
		Image:         it.Image,
		Barcode:       it.Barcode,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}, nil
}

func (d itemDocument) toEntity() (*entity.Item, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("item %s: amount %q: %w", d.ID, d.Amount.String(), err)
	}
	return &entity.Item{
		ID: d.ID,
		ItemFields: entity.ItemFields{
			Text:          d.Text,
			College:       entity.College(d.College),
			Quantity:      d.Quantity,
			Amount:        amount,
			RequestedDate: d.RequestedDate.UTC(),
			Supplier:      d.Supplier,
			ItemType:      entity.ItemType(d.ItemType),
			Image:         d.Image,
		},
		Barcode:   d.Barcode,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jhoicas/scinventory/internal/domain/entity"
)

func TestItemDocument_ConservaCamposYPrecision(t *testing.T) {
	img := "https://cdn.example/images/a.jpg"
	ts := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	it := &entity.Item{
		ID: "6f1c7c3e-1111-2222-3333-444455556666",
		ItemFields: entity.ItemFields{
			Text:          "Multímetro",
			College:       entity.CollegeCOE,
			Quantity:      4,
			Amount:        decimal.RequireFromString("1234.56"),
			RequestedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Supplier:      "Acme",
			ItemType:      entity.ItemTypeElectricalParts,
			Image:         &img,
		},
		Barcode:   "ITEM-k3j9x0a1b",
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	doc, err := toDocument(it)
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var back itemDocument
	require.NoError(t, bson.Unmarshal(raw, &back))

	got, err := back.toEntity()
	require.NoError(t, err)
	assert.True(t, it.Amount.Equal(got.Amount), "amount %s", got.Amount)
	got.Amount = it.Amount
	assert.Equal(t, it, got)
}

func TestItemDocument_SinImagenNoSeSerializa(t *testing.T) {
	doc, err := toDocument(&entity.Item{ID: "x", ItemFields: entity.ItemFields{Amount: decimal.Zero}})
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("image")
	assert.Error(t, err, "image ausente en el documento")

	var back itemDocument
	require.NoError(t, bson.Unmarshal(raw, &back))
	got, err := back.toEntity()
	require.NoError(t, err)
	assert.Nil(t, got.Image)
}

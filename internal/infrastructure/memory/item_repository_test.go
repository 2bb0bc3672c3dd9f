package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/infrastructure/memory"
)

func newItem(code string, qty int) *entity.Item {
	now := time.Now()
	return &entity.Item{
		ItemFields: entity.ItemFields{
			Text:     "Microscope",
			College:  entity.CollegeCCS,
			Quantity: qty,
			Amount:   decimal.NewFromInt(1000),
			Supplier: "Acme",
			ItemType: entity.ItemTypeEquipment,
		},
		Barcode:   code,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestItemRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()

	id1, err := repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 5))
	require.NoError(t, err)
	id2, err := repo.Create(ctx, newItem("ITEM-bbbbbbbbb", 2))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	got, err := repo.GetByID(ctx, id1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ITEM-aaaaaaaaa", got.Barcode)

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id1, list[0].ID, "ListAll respeta el orden de creación")

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestItemRepository_BarcodeDuplicado(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()
	_, err := repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 5))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 1))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestItemRepository_UpdateQuantityCAS(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()
	id, err := repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 5))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.UpdateQuantity(ctx, id, 4, 2, time.Now()), domain.ErrStaleWrite,
		"la cantidad esperada no coincide")
	require.NoError(t, repo.UpdateQuantity(ctx, id, 5, 3, time.Now()))

	got, _ := repo.GetByID(ctx, id)
	assert.Equal(t, 3, got.Quantity)

	assert.ErrorIs(t, repo.UpdateQuantity(ctx, "nope", 1, 0, time.Now()), domain.ErrNotFound)
}

func TestItemRepository_DeleteIdempotenteYCAS(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()
	id, err := repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 3))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteIfQuantity(ctx, id, 2), domain.ErrStaleWrite)
	require.NoError(t, repo.DeleteIfQuantity(ctx, id, 3))
	assert.ErrorIs(t, repo.DeleteIfQuantity(ctx, id, 3), domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, id), "borrar un ID ausente no es error")

	// El código queda libre en el almacén (la no reutilización la garantiza el registro de códigos).
	_, err = repo.Create(ctx, newItem("ITEM-aaaaaaaaa", 1))
	assert.NoError(t, err)
}

func TestItemRepository_UpdateNoExiste(t *testing.T) {
	repo := memory.NewItemRepository()
	err := repo.Update(context.Background(), "nope", entity.ItemFields{}, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemRepository_WatchNotificaYCierra(t *testing.T) {
	repo := memory.NewItemRepository()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := repo.Watch(ctx)
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), newItem("ITEM-aaaaaaaaa", 1))
	require.NoError(t, err)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no llegó la notificación de cambio")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond, "el canal se cierra al cancelar el contexto")
}

func TestItemRepository_ContextoCancelado(t *testing.T) {
	repo := memory.NewItemRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListAll(ctx)
	assert.ErrorIs(t, err, domain.ErrTransientStore)
}

func TestBarcodeRegistry(t *testing.T) {
	ctx := context.Background()
	reg := memory.NewBarcodeRegistry("ITEM-aaaaaaaaa")

	ok, err := reg.Reserve(ctx, "ITEM-aaaaaaaaa")
	require.NoError(t, err)
	assert.False(t, ok, "los códigos precargados están tomados")

	ok, _ = reg.Reserve(ctx, "ITEM-bbbbbbbbb")
	assert.True(t, ok)
	require.NoError(t, reg.Release(ctx, "ITEM-bbbbbbbbb"))
	ok, _ = reg.Reserve(ctx, "ITEM-bbbbbbbbb")
	assert.True(t, ok, "un código liberado puede reservarse de nuevo")
}

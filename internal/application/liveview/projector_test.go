package liveview_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/infrastructure/memory"
)

func seed(t *testing.T, repo *memory.ItemRepository, code string, qty int) string {
	t.Helper()
	id, err := repo.Create(context.Background(), &entity.Item{
		ItemFields: entity.ItemFields{
			Text: "Microscope", College: entity.CollegeCCS, Quantity: qty,
			Amount: decimal.NewFromInt(1), Supplier: "Acme", ItemType: entity.ItemTypeEquipment,
		},
		Barcode: code,
	})
	require.NoError(t, err)
	return id
}

func waitFor(t *testing.T, ch <-chan liveview.Snapshot, cond func(liveview.Snapshot) bool) liveview.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			require.True(t, ok, "canal cerrado inesperadamente")
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("no llegó el snapshot esperado")
		}
	}
}

func TestProjector_LecturaInicialYSuscripcion(t *testing.T) {
	repo := memory.NewItemRepository()
	seed(t, repo, "ITEM-aaaaaaaaa", 3)

	p := liveview.NewProjector(repo, repo, zerolog.Nop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	cur := p.Current()
	require.True(t, cur.Ready())
	assert.Len(t, cur.Items, 1)

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()
	first := <-ch
	assert.Equal(t, cur.Version, first.Version, "un proyector listo entrega el snapshot actual al suscribirse")

	seed(t, repo, "ITEM-bbbbbbbbb", 1)
	snap := waitFor(t, ch, func(s liveview.Snapshot) bool { return len(s.Items) == 2 })
	assert.Greater(t, snap.Version, first.Version)
}

func TestProjector_VersionesMonotonas(t *testing.T) {
	repo := memory.NewItemRepository()
	p := liveview.NewProjector(repo, repo, zerolog.Nop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	codes := []string{"ITEM-000000001", "ITEM-000000002", "ITEM-000000003", "ITEM-000000004"}
	for _, c := range codes {
		seed(t, repo, c, 1)
	}

	var last uint64
	snap := waitFor(t, ch, func(s liveview.Snapshot) bool {
		assert.Greater(t, s.Version, last, "las versiones nunca retroceden")
		last = s.Version
		return len(s.Items) == len(codes)
	})
	assert.Len(t, snap.Items, len(codes), "cada snapshot es la colección completa")
}

func TestProjector_RefreshExplicito(t *testing.T) {
	repo := memory.NewItemRepository()
	p := liveview.NewProjector(repo, repo, zerolog.Nop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	id := seed(t, repo, "ITEM-aaaaaaaaa", 2)
	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, id, snap.Items[0].ID)
	assert.Equal(t, snap.Version, p.Current().Version)
}

func TestProjector_UnsubscribeCierraCanal(t *testing.T) {
	repo := memory.NewItemRepository()
	p := liveview.NewProjector(repo, repo, zerolog.Nop())
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	ch, unsubscribe := p.Subscribe()
	<-ch
	unsubscribe()
	unsubscribe() // idempotente

	_, open := <-ch
	assert.False(t, open)
}

func TestProjector_StopCierraSuscriptores(t *testing.T) {
	repo := memory.NewItemRepository()
	p := liveview.NewProjector(repo, repo, zerolog.Nop())
	require.NoError(t, p.Start(context.Background()))

	ch, unsubscribe := p.Subscribe()
	<-ch
	p.Stop()
	unsubscribe() // tras Stop no debe entrar en pánico

	_, open := <-ch
	assert.False(t, open)

	_, err := p.Refresh(context.Background())
	assert.ErrorIs(t, err, liveview.ErrStopped)
	assert.ErrorIs(t, p.Start(context.Background()), liveview.ErrStopped)
}

// flakyFeed entrega un canal que se cierra enseguida en la primera suscripción.
type flakyFeed struct {
	mu      sync.Mutex
	watches int
	inner   *memory.ItemRepository
}

func (f *flakyFeed) Watch(ctx context.Context) (<-chan struct{}, error) {
	f.mu.Lock()
	f.watches++
	n := f.watches
	f.mu.Unlock()
	if n == 1 {
		ch := make(chan struct{})
		close(ch)
		return ch, nil
	}
	return f.inner.Watch(ctx)
}

func (f *flakyFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watches
}

func TestProjector_ResuscribeSiElFeedSeCorta(t *testing.T) {
	repo := memory.NewItemRepository()
	feed := &flakyFeed{inner: repo}
	p := liveview.NewProjector(repo, feed, zerolog.Nop())
	p.SetRewatchDelay(5 * time.Millisecond)
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	assert.Eventually(t, func() bool { return feed.count() >= 2 }, time.Second, 5*time.Millisecond)

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()
	seed(t, repo, "ITEM-aaaaaaaaa", 1)
	waitFor(t, ch, func(s liveview.Snapshot) bool { return len(s.Items) == 1 })
}

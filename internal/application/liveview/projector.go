// Package liveview materializa la colección de ítems en snapshots completos y los publica
// a los consumidores (catálogo, motor de escaneo, stream SSE).
package liveview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

// Lister lectura completa de la colección (queryAll).
type Lister interface {
	ListAll(ctx context.Context) ([]*entity.Item, error)
}

// Snapshot lista completa y autoconsistente de ítems observada en un instante.
// Version crece de forma monótona; Version 0 significa "todavía sin datos".
type Snapshot struct {
	Version uint64
	Items   []*entity.Item
	TakenAt time.Time
}

// Ready indica si el snapshot viene de al menos una lectura del almacén.
func (s Snapshot) Ready() bool { return s.Version > 0 }

// ErrStopped el proyector ya fue detenido.
var ErrStopped = errors.New("liveview: proyector detenido")

// DefaultRewatchDelay espera antes de re-suscribirse cuando el feed se corta.
const DefaultRewatchDelay = time.Second

// Projector estado vivo de la colección con ciclo de vida explícito (Start/Stop).
type Projector struct {
	repo         Lister
	feed         repository.ChangeFeed
	log          zerolog.Logger
	rewatchDelay time.Duration

	refreshMu sync.Mutex // serializa ListAll+publicación: versiones en orden de notificación

	mu      sync.RWMutex
	current Snapshot
	subs    map[uint64]chan Snapshot
	nextSub uint64
	stopped bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProjector construye el proyector. No lee ni se suscribe hasta Start.
func NewProjector(repo Lister, feed repository.ChangeFeed, log zerolog.Logger) *Projector {
	return &Projector{
		repo:         repo,
		feed:         feed,
		log:          log.With().Str("component", "liveview").Logger(),
		rewatchDelay: DefaultRewatchDelay,
		subs:         make(map[uint64]chan Snapshot),
	}
}

// SetRewatchDelay ajusta la espera entre re-suscripciones (tests).
func (p *Projector) SetRewatchDelay(d time.Duration) { p.rewatchDelay = d }

// Start hace la lectura inicial, se suscribe al feed y procesa notificaciones hasta Stop o ctx.
func (p *Projector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.cancel != nil {
		p.mu.Unlock()
		return fmt.Errorf("liveview: proyector ya iniciado")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	changes, err := p.feed.Watch(runCtx)
	if err != nil {
		cancel()
		close(p.done)
		return fmt.Errorf("liveview: suscribir: %w", err)
	}
	if _, err := p.Refresh(runCtx); err != nil {
		// No es fatal: la siguiente notificación o Refresh explícito reintenta.
		p.log.Warn().Err(err).Msg("lectura inicial fallida")
	}
	go p.loop(runCtx, changes)
	p.log.Info().Msg("proyector iniciado")
	return nil
}

// Stop cancela la suscripción, espera al bucle y cierra los canales de los suscriptores.
func (p *Projector) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	p.mu.Unlock()
	p.log.Info().Msg("proyector detenido")
}

// Current último snapshot publicado.
func (p *Projector) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Refresh relee la colección completa y publica un snapshot nuevo.
func (p *Projector) Refresh(ctx context.Context) (Snapshot, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	items, err := p.repo.ListAll(ctx)
	if err != nil {
		return p.Current(), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return p.current, ErrStopped
	}
	snap := Snapshot{Version: p.current.Version + 1, Items: items, TakenAt: time.Now()}
	p.current = snap
	for _, ch := range p.subs {
		offer(ch, snap)
	}
	return snap, nil
}

// Subscribe devuelve un canal de snapshots y su función de baja (idempotente).
// Un consumidor lento solo pierde snapshots intermedios: siempre recibe el más reciente.
func (p *Projector) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	if p.current.Ready() {
		ch <- p.current
	}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(c)
			}
		})
	}
}

func (p *Projector) loop(ctx context.Context, changes <-chan struct{}) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				changes = p.rewatch(ctx)
				if changes == nil {
					return
				}
			}
			if _, err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				p.log.Error().Err(err).Msg("refresco tras notificación fallido")
			}
		}
	}
}

// rewatch se re-suscribe con espera fija hasta lograrlo o hasta que ctx termine.
func (p *Projector) rewatch(ctx context.Context) <-chan struct{} {
	for {
		if ctx.Err() != nil {
			return nil
		}
		p.log.Warn().Dur("delay", p.rewatchDelay).Msg("feed de cambios cerrado, re-suscribiendo")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.rewatchDelay):
		}
		ch, err := p.feed.Watch(ctx)
		if err == nil {
			return ch
		}
		p.log.Error().Err(err).Msg("re-suscripción fallida")
	}
}

// offer envía sin bloquear; si el buffer está lleno reemplaza el snapshot pendiente.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/liveview"
)

// heartbeatInterval comentario SSE periódico para detectar clientes desconectados.
const heartbeatInterval = 15 * time.Second

// LiveHandler publica los snapshots del proyector como Server-Sent Events.
type LiveHandler struct {
	projector *liveview.Projector
	log       zerolog.Logger
}

// NewLiveHandler construye el handler.
func NewLiveHandler(projector *liveview.Projector, log zerolog.Logger) *LiveHandler {
	return &LiveHandler{projector: projector, log: log.With().Str("component", "sse").Logger()}
}

// Stream godoc
// @Summary      Stream de snapshots (SSE)
// @Description  Cada evento "snapshot" trae la colección completa; el id del evento es la versión.
// @Tags         live
// @Security     Bearer
// @Produce      text/event-stream
// @Success      200  {object}  dto.SnapshotResponse
// @Router       /api/live [get]
func (h *LiveHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	snaps, unsubscribe := h.projector.Subscribe()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				if err := writeSnapshotEvent(w, snap); err != nil {
					h.log.Debug().Err(err).Msg("cliente SSE desconectado")
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// writeSnapshotEvent escribe un evento SSE "snapshot" y hace flush.
func writeSnapshotEvent(w *bufio.Writer, snap liveview.Snapshot) error {
	payload, err := json.Marshal(dto.SnapshotResponse{
		Version: snap.Version,
		TakenAt: snap.TakenAt,
		Items:   dto.ToItemResponses(snap.Items),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Version, payload); err != nil {
		return err
	}
	return w.Flush()
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/scan"
)

// ScanHandler recibe los escaneos del lector de códigos.
type ScanHandler struct {
	engine *scan.Engine
}

// NewScanHandler construye el handler.
func NewScanHandler(engine *scan.Engine) *ScanHandler {
	return &ScanHandler{engine: engine}
}

// Scan godoc
// @Summary      Procesar un escaneo
// @Description  Descuenta quantity (por defecto 1) del ítem con ese código; si llega a 0 lo elimina.
// @Description  La respuesta siempre trae el resultado del escaneo; el código HTTP refleja su estado.
// @Tags         scans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScanRequest  true  "Código escaneado y cantidad"
// @Success      200   {object}  dto.ScanOutcome  "Applied o Depleted"
// @Failure      400   {object}  dto.ScanOutcome  "Invalid"
// @Failure      404   {object}  dto.ScanOutcome  "NotFound"
// @Failure      409   {object}  dto.ScanOutcome  "Rejected o Conflict"
// @Failure      503   {object}  dto.ScanOutcome  "Failed (reintentable)"
// @Router       /api/scans [post]
func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	var in dto.ScanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.engine.Scan(c.UserContext(), in)
	if err != nil {
		status, _ := errorStatus(err)
		markRetryable(c, err)
		if out.State == dto.ScanFailed && status == fiber.StatusConflict {
			// Compare-and-swap agotado: el cliente puede reintentar tal cual.
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(out)
	}
	return c.JSON(out)
}

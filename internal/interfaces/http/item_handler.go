package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scinventory/internal/application/catalog"
	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/infrastructure/barcodeimg"
)

// ItemHandler maneja las peticiones HTTP del catálogo de ítems.
type ItemHandler struct {
	uc       *catalog.UseCase
	renderer *barcodeimg.Renderer
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *catalog.UseCase, renderer *barcodeimg.Renderer) *ItemHandler {
	return &ItemHandler{uc: uc, renderer: renderer}
}

// Create godoc
// @Summary      Crear ítem
// @Description  Valida el borrador, asigna un código de barras único y persiste el ítem.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ItemDraft  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	draft := dto.NewItemDraft()
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateItem(c.UserContext(), &draft)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Snapshot actual de ítems
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SnapshotResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListItems(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Grouped godoc
// @Summary      Inventario agrupado por departamento
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.GroupedResponse
// @Router       /api/items/grouped [get]
func (h *ItemHandler) Grouped(c *fiber.Ctx) error {
	out, err := h.uc.Grouped(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar ítem
// @Description  Reemplaza los campos editables; el código de barras no cambia.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "ID del ítem"
// @Param        body  body  dto.ItemDraft  true  "Datos del ítem"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var draft dto.ItemDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), c.Params("id"), draft)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar ítem
// @Description  Idempotente: un ID inexistente también responde 204.
// @Tags         items
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteItem(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BarcodePNG godoc
// @Summary      Símbolo CODE128 del ítem
// @Tags         items
// @Security     Bearer
// @Produce      png
// @Param        id  path   string  true   "ID del ítem"
// @Param        w   query  int     false  "Ancho en px"  default(300)
// @Param        h   query  int     false  "Alto en px"   default(80)
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/barcode.png [get]
func (h *ItemHandler) BarcodePNG(c *fiber.Ctx) error {
	item, err := h.uc.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	img, err := h.renderer.PNG(item.Barcode, c.QueryInt("w", 0), c.QueryInt("h", 0))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.png"`, item.Barcode))
	return c.Send(img)
}

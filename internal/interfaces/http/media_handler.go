package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/media"
)

// MediaHandler subida de fotos de ítems.
type MediaHandler struct {
	uc *media.UseCase
}

// NewMediaHandler construye el handler.
func NewMediaHandler(uc *media.UseCase) *MediaHandler {
	return &MediaHandler{uc: uc}
}

// UploadImage godoc
// @Summary      Subir foto de ítem
// @Description  Acepta JPEG o PNG; la foto se reduce a 1024 px y se guarda como JPEG. Usar la URL en el campo image.
// @Tags         media
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        image  formData  file  true  "Foto"
// @Success      201    {object}  media.UploadResult
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/media/images [post]
func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "campo image requerido"})
	}
	f, err := fh.Open()
	if err != nil {
		return badBody(c)
	}
	defer f.Close()

	out, err := h.uc.UploadImage(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
)

// ReorderHandler expone el calculador de sugerencias de reposición (protegido).
type ReorderHandler struct {
	suggest *reorder.SuggestUseCase
}

// NewReorderHandler construye el handler.
func NewReorderHandler(suggest *reorder.SuggestUseCase) *ReorderHandler {
	return &ReorderHandler{suggest: suggest}
}

// Suggestions godoc
// @Summary      Sugerencias de reposición
// @Description  Productos bajo su mínimo o punto de reorden, con cantidad sugerida,
//
//	urgencia por nivel y sesgo FEFO por vencimiento más próximo.
//
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Success      200  {array}   dto.SuggestionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/suggestions [get]
func (h *ReorderHandler) Suggestions(c *fiber.Ctx) error {
	list, err := h.suggest.Suggest(c.Context(), GetOrganizationContext(c), c.Query("location_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":       len(list),
		"suggestions": dto.FromSuggestions(list),
	})
}

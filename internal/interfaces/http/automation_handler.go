package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/automation"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
)

// AutomationHandler expone la corrida de reposición bajo demanda, el
// diagnóstico de salud y la aprobación de borradores (protegido).
type AutomationHandler struct {
	uc *automation.UseCase
}

// NewAutomationHandler construye el handler.
func NewAutomationHandler(uc *automation.UseCase) *AutomationHandler {
	return &AutomationHandler{uc: uc}
}

// Health godoc
// @Summary      Salud del inventario
// @Description  Contadores de stock bajo/agotado, lotes vencidos/por vencer y sobre-stock, con recomendaciones.
// @Tags         automation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  automation.HealthReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/automation/health [get]
func (h *AutomationHandler) Health(c *fiber.Ctx) error {
	report, err := h.uc.HealthCheck(c.Context(), GetOrganizationContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Run godoc
// @Summary      Ejecutar la corrida de reposición bajo demanda
// @Description  Salud → sugerencias → particionado → envío automático o borrador
//
//	con aprobación, según la política de la organización.
//
// @Tags         automation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  automation.RunResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/automation/run [post]
func (h *AutomationHandler) Run(c *fiber.Ctx) error {
	result, err := h.uc.Run(c.Context(), GetOrganizationContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ListDrafts godoc
// @Summary      Borradores de pedido pendientes de aprobación
// @Tags         drafts
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.DraftResponse
// @Router       /api/orders/drafts [get]
func (h *AutomationHandler) ListDrafts(c *fiber.Ctx) error {
	drafts, err := h.uc.PendingDrafts(c.Context(), GetOrganizationContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromDrafts(drafts))
}

// ApproveDraft godoc
// @Summary      Aprobar un borrador y despachar sus pedidos
// @Description  Un borrador ya decidido devuelve 409 sin re-despachar.
// @Tags         drafts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del borrador"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/drafts/{id}/approve [post]
func (h *AutomationHandler) ApproveDraft(c *fiber.Ctx) error {
	results, err := h.uc.ApproveDraft(c.Context(), GetOrganizationContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "borrador aprobado",
		"send_results": dto.FromSendResults(results),
	})
}

// RejectDraft godoc
// @Summary      Rechazar un borrador
// @Tags         drafts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del borrador"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/drafts/{id}/reject [post]
func (h *AutomationHandler) RejectDraft(c *fiber.Ctx) error {
	if err := h.uc.RejectDraft(c.Context(), GetOrganizationContext(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "borrador rechazado"})
}

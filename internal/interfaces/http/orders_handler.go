package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// OrdersHandler maneja la generación, seguimiento y conciliación de pedidos a
// proveedor (protegido).
type OrdersHandler struct {
	suggest    *reorder.SuggestUseCase
	splitter   *orders.Splitter
	dispatcher *orders.Dispatcher
	tracking   *orders.TrackingUseCase
	orderRepo  repository.SupplierOrderRepository
}

// NewOrdersHandler construye el handler.
func NewOrdersHandler(
	suggest *reorder.SuggestUseCase,
	splitter *orders.Splitter,
	dispatcher *orders.Dispatcher,
	tracking *orders.TrackingUseCase,
	orderRepo repository.SupplierOrderRepository,
) *OrdersHandler {
	return &OrdersHandler{
		suggest:    suggest,
		splitter:   splitter,
		dispatcher: dispatcher,
		tracking:   tracking,
		orderRepo:  orderRepo,
	}
}

// Generate godoc
// @Summary      Generar y despachar pedidos desde las sugerencias
// @Description  Calcula las sugerencias vigentes, las particiona por proveedor y
//
//	despacha cada pedido por el canal del proveedor. Los pedidos bajo
//	el mínimo del proveedor quedan en pending sin enviarse.
//
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Limitar las sugerencias a una ubicación"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders/generate [post]
func (h *OrdersHandler) Generate(c *fiber.Ctx) error {
	orgCtx := GetOrganizationContext(c)
	suggestions, err := h.suggest.Suggest(c.Context(), orgCtx, c.Query("location_id"))
	if err != nil {
		return respondError(c, err)
	}
	split, err := h.splitter.Split(c.Context(), orgCtx, suggestions)
	if err != nil {
		return respondError(c, err)
	}
	results, err := h.dispatcher.DispatchAll(c.Context(), orgCtx, split.Orders)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"orders":       dto.FromOrders(split.Orders),
		"send_results": dto.FromSendResults(results),
		"unassigned":   len(split.Unassigned),
	})
}

// List godoc
// @Summary      Listar pedidos por estado
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estado (default pending)"
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	status := entity.OrderStatus(c.Query("status", string(entity.OrderPending)))
	list, err := h.orderRepo.ListByStatus(GetOrganizationID(c), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrders(list))
}

// Overdue godoc
// @Summary      Pedidos con la entrega esperada vencida
// @Description  Lista los pedidos sent/confirmed/shipped atrasados y deja una notificación por cada uno.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.OrderResponse
// @Router       /api/orders/overdue [get]
func (h *OrdersHandler) Overdue(c *fiber.Ctx) error {
	list, err := h.tracking.CheckOverdue(c.Context(), GetOrganizationContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrders(list))
}

// GetByID godoc
// @Summary      Obtener un pedido con sus líneas
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrdersHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.orderRepo.GetByID(GetOrganizationID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromOrder(order))
}

// UpdateStatus godoc
// @Summary      Transicionar el estado de un pedido
// @Description  Aplica la máquina de estados pending→sent→confirmed→shipped→delivered;
//
//	delivered dispara la conciliación de stock contra el ledger.
//
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderStatusRequest  true  "status destino"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [patch]
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.tracking.UpdateStatus(c.Context(), GetOrganizationContext(c), c.Params("id"), entity.OrderStatus(in.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "estado actualizado"})
}

// ItemReceived godoc
// @Summary      Registrar la cantidad recibida de una línea
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                   true  "ID del pedido"
// @Param        itemId  path  string                   true  "ID de la línea"
// @Param        body    body  dto.ItemReceivedRequest  true  "quantity_received"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/items/{itemId}/received [post]
func (h *OrdersHandler) ItemReceived(c *fiber.Ctx) error {
	var in dto.ItemReceivedRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.tracking.RecordItemReceived(c.Context(), GetOrganizationContext(c),
		c.Params("id"), c.Params("itemId"), in.QuantityReceived)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "cantidad recibida registrada"})
}

// Reconcile godoc
// @Summary      Conciliar una entrega contra el ledger
// @Description  Idempotente: una segunda llamada sobre un pedido ya conciliado no escribe nada.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reconcile [post]
func (h *OrdersHandler) Reconcile(c *fiber.Ctx) error {
	err := h.tracking.UpdateStockAfterDelivery(c.Context(), GetOrganizationContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "entrega conciliada"})
}

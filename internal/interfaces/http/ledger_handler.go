package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/medstock-pro/internal/application/dto"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// LedgerHandler maneja las escrituras y consultas del ledger de stock (protegido).
type LedgerHandler struct {
	uc *ledger.RecordMovementUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.RecordMovementUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  Registra un asiento inmutable del ledger y actualiza la proyección en la misma transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "location_id, product_id, type, quantity_change (con signo)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *LedgerHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.uc.RecordMovement(c.Context(), GetOrganizationContext(c), ledger.MovementInput{
		LocationID:     in.LocationID,
		ProductID:      in.ProductID,
		Type:           entity.MovementType(in.Type),
		QuantityChange: in.QuantityChange,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		Reason:         in.Reason,
		Notes:          in.Notes,
		BatchNumber:    in.BatchNumber,
		ExpiryDate:     in.ExpiryDate,
		AllowNegative:  in.AllowNegative,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// ApplyCount godoc
// @Summary      Registrar conteo físico
// @Description  El ajuste es la diferencia entre lo contado y la proyección, calculada bajo bloqueo de fila.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CountRequest  true  "location_id, product_id, counted_quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/counts [post]
func (h *LedgerHandler) ApplyCount(c *fiber.Ctx) error {
	var in dto.CountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.uc.ApplyCount(c.Context(), GetOrganizationContext(c), in.LocationID, in.ProductID, in.CountedQuantity, in.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// RecordConsumption godoc
// @Summary      Registrar consumo clínico
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumptionRequest  true  "location_id, product_id, quantity (positiva)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/consumptions [post]
func (h *LedgerHandler) RecordConsumption(c *fiber.Ctx) error {
	var in dto.ConsumptionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.uc.RecordConsumption(c.Context(), GetOrganizationContext(c), in.LocationID, in.ProductID, in.Quantity, in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// RecordReceipt godoc
// @Summary      Registrar recepción de mercancía
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "location_id, product_id, quantity; lote y vencimiento opcionales"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *LedgerHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.uc.RecordReceipt(c.Context(), GetOrganizationContext(c), in.LocationID, in.ProductID, in.Quantity, in.BatchNumber, in.ExpiryDate)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// RecordTransfer godoc
// @Summary      Transferir stock entre ubicaciones
// @Description  Dos movimientos (salida en origen, entrada en destino) con la misma referencia, en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "from_location_id, to_location_id, product_id, quantity"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *LedgerHandler) RecordTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.RecordTransfer(c.Context(), GetOrganizationContext(c), in.FromLocationID, in.ToLocationID, in.ProductID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "transferencia registrada"})
}

// RecordWriteOff godoc
// @Summary      Dar de baja un lote vencido
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.WriteOffRequest  true  "location_id, product_id, quantity, batch_number"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/write-offs [post]
func (h *LedgerHandler) RecordWriteOff(c *fiber.Ctx) error {
	var in dto.WriteOffRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movement, err := h.uc.RecordExpiredWriteOff(c.Context(), GetOrganizationContext(c), in.LocationID, in.ProductID, in.Quantity, in.BatchNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// AdjustReservation godoc
// @Summary      Ajustar cantidad reservada
// @Description  delta positivo reserva, negativo libera; la reserva nunca queda negativa.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "location_id, product_id, delta"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *LedgerHandler) AdjustReservation(c *fiber.Ctx) error {
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.AdjustReservation(c.Context(), GetOrganizationContext(c), in.LocationID, in.ProductID, in.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva ajustada"})
}

// HistoryByProduct godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        from       query  string  false  "Desde (RFC3339)"
// @Param        to         query  string  false  "Hasta (RFC3339)"
// @Param        limit      query  int     false  "Máximo de filas (default 100)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/product/{productId} [get]
func (h *LedgerHandler) HistoryByProduct(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from/to deben ser RFC3339"})
	}
	list, err := h.uc.History(c.Context(), GetOrganizationContext(c), c.Params("productId"),
		from, to, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// HistoryByLocation godoc
// @Summary      Historial de movimientos de una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        locationId  path   string  true   "ID de la ubicación"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Máximo de filas (default 100)"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/location/{locationId} [get]
func (h *LedgerHandler) HistoryByLocation(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from/to deben ser RFC3339"})
	}
	list, err := h.uc.HistoryByLocation(c.Context(), GetOrganizationContext(c), c.Params("locationId"),
		from, to, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// parseRange lee los query params from/to como RFC3339; ausentes quedan nil.
func parseRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, parseErr
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, parseErr
		}
		to = &t
	}
	return from, to, nil
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus es el estado de un pedido a proveedor.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSent      OrderStatus = "sent"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

// Terminal indica si el estado no admite más transiciones.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderFailed
}

// CanTransition valida la máquina de estados del pedido:
// pending→sent→confirmed→shipped→delivered; cancelled desde cualquier estado
// no terminal; failed desde pending o sent.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch to {
	case OrderSent:
		return s == OrderPending
	case OrderConfirmed:
		return s == OrderSent
	case OrderShipped:
		return s == OrderConfirmed
	case OrderDelivered:
		return s == OrderShipped
	case OrderCancelled:
		return !s.Terminal()
	case OrderFailed:
		return s == OrderPending || s == OrderSent
	}
	return false
}

// SupplierOrder es un pedido a un proveedor, producto del splitter o de un
// borrador aprobado.
type SupplierOrder struct {
	ID                string
	OrganizationID    string
	SupplierID        string
	Reference         string // ORD-<millis>-<código proveedor>, única por pedido
	Status            OrderStatus
	Items             []SupplierOrderItem
	Subtotal          decimal.Decimal
	ShippingCost      decimal.Decimal
	Total             decimal.Decimal
	BelowMinimum      bool // subtotal bajo el mínimo del proveedor; nunca se envía automáticamente
	MethodUsed        OrderMethod
	ExpectedDelivery  *time.Time
	SentAt            *time.Time
	DeliveredAt       *time.Time
	StockProcessedAt  *time.Time // guard de idempotencia de la conciliación de entrega
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SupplierOrderItem es una línea del pedido. QuantityReceived queda nil hasta
// que el proveedor reporta lo realmente entregado.
type SupplierOrderItem struct {
	ID               string
	OrderID          string
	ProductID        string
	LocationID       string // ubicación destino: ahí se concilia la entrega
	SupplierSKU      string
	ProductName      string
	Quantity         decimal.Decimal
	QuantityReceived *decimal.Decimal
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
	AdjustmentNote   string // dejado por el splitter al subir cantidades a mínimos o múltiplos
}

// EffectiveReceived devuelve la cantidad a conciliar: lo recibido si se
// reportó, si no lo pedido.
func (i *SupplierOrderItem) EffectiveReceived() decimal.Decimal {
	if i.QuantityReceived != nil {
		return *i.QuantityReceived
	}
	return i.Quantity
}

// OrderSendingResult captura el desenlace de un intento de envío. Los fallos
// de transporte nunca viajan como error de Go: quedan aquí.
type OrderSendingResult struct {
	OrderReference string
	SupplierID     string
	Success        bool
	MethodUsed     OrderMethod
	ErrorMessage   string
	Warning        string
	SentAt         time.Time
}

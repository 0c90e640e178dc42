package repository

import (
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// SupplierOrderRepository define el puerto de pedidos a proveedor.
type SupplierOrderRepository interface {
	Create(order *entity.SupplierOrder) error
	GetByID(orgID, id string) (*entity.SupplierOrder, error)
	GetByReference(orgID, reference string) (*entity.SupplierOrder, error)
	// GetForUpdate bloquea el pedido para las transiciones de estado y la
	// conciliación de entrega.
	GetForUpdate(orgID, id string) (*entity.SupplierOrder, error)
	UpdateStatus(orgID, id string, status entity.OrderStatus, at time.Time) error
	// RecordSendingResult persiste el desenlace del envío (method_used,
	// error_message, sent_at) y el estado resultante.
	RecordSendingResult(orgID, id string, result *entity.OrderSendingResult) error
	UpdateItemReceived(orgID, orderID, itemID string, received *entity.SupplierOrderItem) error
	MarkStockProcessed(orgID, id string, at time.Time) error
	ListByStatus(orgID string, status entity.OrderStatus) ([]*entity.SupplierOrder, error)
	// ListOverdue devuelve pedidos sent/confirmed/shipped cuya entrega
	// esperada ya pasó.
	ListOverdue(orgID string, now time.Time) ([]*entity.SupplierOrder, error)
}

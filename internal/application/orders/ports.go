package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// Sender envía un pedido por un canal concreto. Nunca devuelve error de Go:
// todo desenlace, incluido el fallo de transporte, queda en el resultado.
type Sender interface {
	Send(ctx context.Context, order *entity.SupplierOrder, supplier *entity.Supplier, reference string) *entity.OrderSendingResult
}

// SenderResolver resuelve el adaptador de envío para un canal de pedido.
type SenderResolver interface {
	Resolve(method entity.OrderMethod) (Sender, error)
}

// ReservationAdjuster ajusta cantidad reservada en la proyección de stock.
// Lo implementa el caso de uso del ledger.
type ReservationAdjuster interface {
	AdjustReservation(ctx context.Context, orgCtx domain.OrganizationContext, locationID, productID string, delta decimal.Decimal) error
}

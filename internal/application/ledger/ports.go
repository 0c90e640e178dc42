package ledger

import (
	"context"

	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción con repositorios
// atados a la tx. Run cubre las escrituras del ledger; RunOrders agrega el
// repositorio de pedidos para la conciliación de entregas (movimiento +
// proyección + guard del pedido en una sola transacción).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
	) error) error

	RunOrders(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		orderRepo repository.SupplierOrderRepository,
	) error) error
}

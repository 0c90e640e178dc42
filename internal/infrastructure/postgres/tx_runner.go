package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Los fallos
// de serialización y los deadlocks salen como domain.ConflictError para que
// la política de reintentos del ledger los reconozca.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movRepo := NewStockMovementRepository(tx)
	levelRepo := NewStockLevelRepository(tx)

	if err := fn(movRepo, levelRepo); err != nil {
		return asConflict("ledger tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return asConflict("ledger tx commit", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// RunOrders inicia una transacción con los repos del ledger más el de pedidos
// (para la conciliación de entregas en un solo commit).
func (r *TxRunner) RunOrders(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	orderRepo repository.SupplierOrderRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movRepo := NewStockMovementRepository(tx)
	levelRepo := NewStockLevelRepository(tx)
	orderRepo := NewSupplierOrderRepository(tx)

	if err := fn(movRepo, levelRepo, orderRepo); err != nil {
		return asConflict("orders tx", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return asConflict("orders tx commit", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// asConflict convierte fallos de serialización/deadlock en ConflictError;
// cualquier otro error pasa sin tocar.
func asConflict(operation string, err error) error {
	if isSerializationFailure(err) {
		return domain.NewConflictError(operation, "", err)
	}
	return err
}

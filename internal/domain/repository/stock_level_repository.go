package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// StockLevelRepository define el puerto de la proyección de stock por
// (organización, ubicación, producto). Usado dentro de transacciones para
// garantizar consistencia con el ledger.
type StockLevelRepository interface {
	Get(orgID, locationID, productID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE); crea la
	// proyección en cero si no existe.
	GetForUpdate(orgID, locationID, productID string) (*entity.StockLevel, error)
	Upsert(level *entity.StockLevel) error
	// ListBelowReorder devuelve niveles con current < minimum o
	// current < reorder_point; locationID vacío = todas las ubicaciones.
	ListBelowReorder(orgID, locationID string) ([]*entity.StockLevel, error)
	ListOverMaximum(orgID string) ([]*entity.StockLevel, error)
	CountZeroStock(orgID string) (int, error)
	CountBelowMinimum(orgID string) (int, error)
}

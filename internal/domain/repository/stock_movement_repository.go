package repository

import (
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger (DIP).
// Solo inserta: los movimientos nunca se actualizan ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(orgID, id string) (*entity.StockMovement, error)
	ListByProduct(orgID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByLocation(orgID, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListRecent(orgID string, limit int) ([]*entity.StockMovement, error)
}

package repository

import (
	"time"

	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
)

// BatchRepository define el puerto de lotes con vencimiento.
type BatchRepository interface {
	Create(batch *entity.ProductBatch) error
	ListByProduct(orgID, locationID, productID string) ([]*entity.ProductBatch, error)
	// SoonestExpiry devuelve, por (locationID, productID), la fecha de
	// vencimiento más próxima entre los lotes con cantidad positiva.
	// La clave del mapa es locationID + "/" + productID.
	SoonestExpiry(orgID string) (map[string]time.Time, error)
	CountExpired(orgID string, now time.Time) (int, error)
	CountExpiringWithin(orgID string, now time.Time, days int) (int, error)
}

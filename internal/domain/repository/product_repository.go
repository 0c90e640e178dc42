package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// ProductRepository define el puerto de productos.
type ProductRepository interface {
	GetByID(orgID, id string) (*entity.Product, error)
	ListByIDs(orgID string, ids []string) ([]*entity.Product, error)
}

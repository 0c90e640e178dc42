package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// LocationRepository define el puerto de ubicaciones físicas.
type LocationRepository interface {
	GetByID(orgID, id string) (*entity.Location, error)
	ListByOrganization(orgID string) ([]*entity.Location, error)
}

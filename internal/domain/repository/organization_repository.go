package repository

import "github.com/tu-usuario/medstock-pro/internal/domain/entity"

// OrganizationRepository define el puerto de organizaciones (tenants).
type OrganizationRepository interface {
	GetByID(id string) (*entity.Organization, error)
	// ListAutomationEnabled devuelve las organizaciones activas con la
	// automatización de reposición encendida.
	ListAutomationEnabled() ([]*entity.Organization, error)
}

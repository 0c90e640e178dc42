package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de ubicaciones sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación dentro de la organización.
func (r *LocationRepo) GetByID(orgID, id string) (*entity.Location, error) {
	query := `
		SELECT id, organization_id, name, allow_negative_stock, active, created_at
		FROM locations WHERE organization_id = $1 AND id = $2`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, orgID, id).Scan(
		&l.ID, &l.OrganizationID, &l.Name, &l.AllowNegativeStock, &l.Active, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("location", id)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListByOrganization lista las ubicaciones activas de la organización.
func (r *LocationRepo) ListByOrganization(orgID string) ([]*entity.Location, error) {
	query := `
		SELECT id, organization_id, name, allow_negative_stock, active, created_at
		FROM locations WHERE organization_id = $1 AND active
		ORDER BY name`
	rows, err := r.q.Query(context.Background(), query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.Name, &l.AllowNegativeStock, &l.Active, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

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

var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

const organizationColumns = `id, name, automation_enabled, auto_approve, max_order_value, active, created_at`

// OrganizationRepo implementación de organizaciones sobre PostgreSQL.
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

// GetByID obtiene una organización.
func (r *OrganizationRepo) GetByID(id string) (*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	o, err := scanOrganization(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("organization", id)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// ListAutomationEnabled lista organizaciones activas con automatización
// encendida.
func (r *OrganizationRepo) ListAutomationEnabled() ([]*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + `
		FROM organizations WHERE active AND automation_enabled
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list automation enabled: %w", err)
	}
	defer rows.Close()

	var list []*entity.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func scanOrganization(row pgx.Row) (*entity.Organization, error) {
	var o entity.Organization
	err := row.Scan(&o.ID, &o.Name, &o.AutomationEnabled, &o.AutoApprove,
		&o.MaxOrderValue, &o.Active, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

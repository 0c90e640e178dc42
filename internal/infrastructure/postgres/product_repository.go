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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, organization_id, sku, name, unit, price, requires_batch, active, created_at`

// ProductRepo implementación de productos sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto dentro de la organización.
func (r *ProductRepo) GetByID(orgID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products WHERE organization_id = $1 AND id = $2`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListByIDs obtiene productos por lote de IDs; los que no existen se omiten.
func (r *ProductRepo) ListByIDs(orgID string, ids []string) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + `
		FROM products WHERE organization_id = $1 AND id = ANY($2)`
	rows, err := r.q.Query(context.Background(), query, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.OrganizationID, &p.SKU, &p.Name, &p.Unit,
		&p.Price, &p.RequiresBatch, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

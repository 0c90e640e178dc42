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

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

const supplierColumns = `id, organization_id, code, name, order_method,
	minimum_order_amount, shipping_cost, free_shipping_threshold, lead_time_days,
	contact_email, integration_config, active, created_at`

// SupplierRepo implementación de proveedores y su catálogo sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// GetByID obtiene un proveedor dentro de la organización.
func (r *SupplierRepo) GetByID(orgID, id string) (*entity.Supplier, error) {
	query := `SELECT ` + supplierColumns + `
		FROM suppliers WHERE organization_id = $1 AND id = $2`
	s, err := scanSupplier(r.q.QueryRow(context.Background(), query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("supplier", id)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// ListByOrganization lista los proveedores activos de la organización.
func (r *SupplierRepo) ListByOrganization(orgID string) ([]*entity.Supplier, error) {
	query := `SELECT ` + supplierColumns + `
		FROM suppliers WHERE organization_id = $1 AND active
		ORDER BY name`
	rows, err := r.q.Query(context.Background(), query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var list []*entity.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CatalogForProducts devuelve por productID la entrada de catálogo del
// proveedor preferido. Sin entrada preferida gana la de menor costo.
func (r *SupplierRepo) CatalogForProducts(orgID string, productIDs []string) (map[string]*repository.CatalogEntry, error) {
	if len(productIDs) == 0 {
		return map[string]*repository.CatalogEntry{}, nil
	}
	query := `
		SELECT DISTINCT ON (sp.product_id)
			sp.id, sp.supplier_id, sp.product_id, sp.supplier_sku, sp.cost_price,
			sp.minimum_order_quantity, sp.order_multiple, sp.lead_time_days, sp.preferred,
			` + prefixColumns("s", supplierColumns) + `
		FROM supplier_products sp
		JOIN suppliers s ON s.id = sp.supplier_id
		WHERE s.organization_id = $1 AND s.active AND sp.product_id = ANY($2)
		ORDER BY sp.product_id, sp.preferred DESC, sp.cost_price ASC`
	rows, err := r.q.Query(context.Background(), query, orgID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("catalog for products: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*repository.CatalogEntry)
	for rows.Next() {
		var sp entity.SupplierProduct
		var s entity.Supplier
		var sku *string
		err := rows.Scan(
			&sp.ID, &sp.SupplierID, &sp.ProductID, &sku, &sp.CostPrice,
			&sp.MinimumOrderQuantity, &sp.OrderMultiple, &sp.LeadTimeDays, &sp.Preferred,
			&s.ID, &s.OrganizationID, &s.Code, &s.Name, &s.OrderMethod,
			&s.MinimumOrderAmount, &s.ShippingCost, &s.FreeShippingThreshold, &s.LeadTimeDays,
			&s.ContactEmail, &s.IntegrationConfig, &s.Active, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		sp.SupplierSKU = deref(sku)
		result[sp.ProductID] = &repository.CatalogEntry{Supplier: &s, Product: &sp}
	}
	return result, rows.Err()
}

// CatalogEntryFor devuelve la entrada de catálogo de un proveedor concreto
// para un producto, o nil si ese proveedor no lo ofrece.
func (r *SupplierRepo) CatalogEntryFor(orgID, supplierID, productID string) (*repository.CatalogEntry, error) {
	query := `
		SELECT sp.id, sp.supplier_id, sp.product_id, sp.supplier_sku, sp.cost_price,
			sp.minimum_order_quantity, sp.order_multiple, sp.lead_time_days, sp.preferred,
			` + prefixColumns("s", supplierColumns) + `
		FROM supplier_products sp
		JOIN suppliers s ON s.id = sp.supplier_id
		WHERE s.organization_id = $1 AND s.active AND sp.supplier_id = $2 AND sp.product_id = $3`
	var sp entity.SupplierProduct
	var s entity.Supplier
	var sku *string
	err := r.q.QueryRow(context.Background(), query, orgID, supplierID, productID).Scan(
		&sp.ID, &sp.SupplierID, &sp.ProductID, &sku, &sp.CostPrice,
		&sp.MinimumOrderQuantity, &sp.OrderMultiple, &sp.LeadTimeDays, &sp.Preferred,
		&s.ID, &s.OrganizationID, &s.Code, &s.Name, &s.OrderMethod,
		&s.MinimumOrderAmount, &s.ShippingCost, &s.FreeShippingThreshold, &s.LeadTimeDays,
		&s.ContactEmail, &s.IntegrationConfig, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog entry for supplier: %w", err)
	}
	sp.SupplierSKU = deref(sku)
	return &repository.CatalogEntry{Supplier: &s, Product: &sp}, nil
}

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Code, &s.Name, &s.OrderMethod,
		&s.MinimumOrderAmount, &s.ShippingCost, &s.FreeShippingThreshold, &s.LeadTimeDays,
		&s.ContactEmail, &s.IntegrationConfig, &s.Active, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

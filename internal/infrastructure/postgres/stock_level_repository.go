package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

const levelColumns = `organization_id, location_id, product_id,
	current_quantity, reserved_quantity, minimum_quantity, maximum_quantity,
	reorder_point, preferred_supplier_id, last_movement_at, updated_at`

// StockLevelRepo implementación de la proyección de stock sobre PostgreSQL
// (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene la proyección; si no existe devuelve una en cero.
func (r *StockLevelRepo) Get(orgID, locationID, productID string) (*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE organization_id = $1 AND location_id = $2 AND product_id = $3`
	lv, err := scanLevel(r.q.QueryRow(context.Background(), query, orgID, locationID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroLevel(orgID, locationID, productID), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return lv, nil
}

// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE). Si no existe
// la crea en cero primero, así el lock siempre tiene fila que agarrar.
func (r *StockLevelRepo) GetForUpdate(orgID, locationID, productID string) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (organization_id, location_id, product_id, current_quantity, reserved_quantity, minimum_quantity, maximum_quantity, reorder_point, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0, now())
		ON CONFLICT (organization_id, location_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, orgID, locationID, productID); err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}

	query := `SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE organization_id = $1 AND location_id = $2 AND product_id = $3
		FOR UPDATE`
	lv, err := scanLevel(r.q.QueryRow(context.Background(), query, orgID, locationID, productID))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return lv, nil
}

// Upsert inserta o actualiza la proyección.
func (r *StockLevelRepo) Upsert(lv *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (` + levelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (organization_id, location_id, product_id)
		DO UPDATE SET
			current_quantity = EXCLUDED.current_quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			minimum_quantity = EXCLUDED.minimum_quantity,
			maximum_quantity = EXCLUDED.maximum_quantity,
			reorder_point = EXCLUDED.reorder_point,
			preferred_supplier_id = EXCLUDED.preferred_supplier_id,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		lv.OrganizationID, lv.LocationID, lv.ProductID,
		lv.CurrentQuantity, lv.ReservedQuantity, lv.MinimumQuantity, lv.MaximumQuantity,
		lv.ReorderPoint, nullable(lv.PreferredSupplierID), lv.LastMovementAt, lv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListBelowReorder devuelve niveles bajo mínimo o bajo punto de repedido;
// locationID vacío cubre todas las ubicaciones.
func (r *StockLevelRepo) ListBelowReorder(orgID, locationID string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE organization_id = $1
		  AND (current_quantity < minimum_quantity
		       OR (reorder_point > 0 AND current_quantity < reorder_point))`
	args := []any{orgID}
	if locationID != "" {
		query += " AND location_id = $2"
		args = append(args, locationID)
	}
	query += " ORDER BY location_id, product_id"

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list below reorder: %w", err)
	}
	defer rows.Close()
	return collectLevels(rows)
}

// ListOverMaximum devuelve niveles por encima del máximo configurado.
func (r *StockLevelRepo) ListOverMaximum(orgID string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE organization_id = $1
		  AND maximum_quantity > 0 AND current_quantity > maximum_quantity
		ORDER BY location_id, product_id`
	rows, err := r.q.Query(context.Background(), query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list over maximum: %w", err)
	}
	defer rows.Close()
	return collectLevels(rows)
}

// CountZeroStock cuenta niveles en cero o negativos.
func (r *StockLevelRepo) CountZeroStock(orgID string) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT count(*) FROM stock_levels WHERE organization_id = $1 AND current_quantity <= 0`,
		orgID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count zero stock: %w", err)
	}
	return n, nil
}

// CountBelowMinimum cuenta niveles bajo el mínimo.
func (r *StockLevelRepo) CountBelowMinimum(orgID string) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT count(*) FROM stock_levels WHERE organization_id = $1 AND current_quantity < minimum_quantity`,
		orgID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count below minimum: %w", err)
	}
	return n, nil
}

func collectLevels(rows pgx.Rows) ([]*entity.StockLevel, error) {
	var list []*entity.StockLevel
	for rows.Next() {
		lv, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, lv)
	}
	return list, rows.Err()
}

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var lv entity.StockLevel
	var preferred *string
	err := row.Scan(
		&lv.OrganizationID, &lv.LocationID, &lv.ProductID,
		&lv.CurrentQuantity, &lv.ReservedQuantity, &lv.MinimumQuantity, &lv.MaximumQuantity,
		&lv.ReorderPoint, &preferred, &lv.LastMovementAt, &lv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lv.PreferredSupplierID = deref(preferred)
	return &lv, nil
}

func zeroLevel(orgID, locationID, productID string) *entity.StockLevel {
	return &entity.StockLevel{
		OrganizationID:  orgID,
		LocationID:      locationID,
		ProductID:       productID,
		CurrentQuantity: decimal.Zero,
	}
}

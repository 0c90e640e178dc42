package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de lotes con vencimiento sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote.
func (r *BatchRepo) Create(b *entity.ProductBatch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	query := `
		INSERT INTO product_batches (id, organization_id, location_id, product_id, batch_number, expiry_date, current_quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		b.ID, b.OrganizationID, b.LocationID, b.ProductID,
		b.BatchNumber, b.ExpiryDate, b.CurrentQuantity, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// ListByProduct lista los lotes de un producto en una ubicación, primero el
// que antes vence (FEFO).
func (r *BatchRepo) ListByProduct(orgID, locationID, productID string) ([]*entity.ProductBatch, error) {
	query := `
		SELECT id, organization_id, location_id, product_id, batch_number, expiry_date, current_quantity, created_at
		FROM product_batches
		WHERE organization_id = $1 AND location_id = $2 AND product_id = $3
		ORDER BY expiry_date ASC`
	rows, err := r.q.Query(context.Background(), query, orgID, locationID, productID)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var list []*entity.ProductBatch
	for rows.Next() {
		var b entity.ProductBatch
		if err := rows.Scan(&b.ID, &b.OrganizationID, &b.LocationID, &b.ProductID,
			&b.BatchNumber, &b.ExpiryDate, &b.CurrentQuantity, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// SoonestExpiry devuelve por (locationID, productID) la fecha de vencimiento
// más próxima entre lotes con cantidad positiva.
func (r *BatchRepo) SoonestExpiry(orgID string) (map[string]time.Time, error) {
	query := `
		SELECT location_id, product_id, min(expiry_date)
		FROM product_batches
		WHERE organization_id = $1 AND current_quantity > 0
		GROUP BY location_id, product_id`
	rows, err := r.q.Query(context.Background(), query, orgID)
	if err != nil {
		return nil, fmt.Errorf("soonest expiry: %w", err)
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var locationID, productID string
		var expiry time.Time
		if err := rows.Scan(&locationID, &productID, &expiry); err != nil {
			return nil, fmt.Errorf("scan expiry: %w", err)
		}
		result[locationID+"/"+productID] = expiry
	}
	return result, rows.Err()
}

// CountExpired cuenta lotes vencidos con cantidad positiva.
func (r *BatchRepo) CountExpired(orgID string, now time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT count(*) FROM product_batches
		 WHERE organization_id = $1 AND current_quantity > 0 AND expiry_date < $2`,
		orgID, now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expired: %w", err)
	}
	return n, nil
}

// CountExpiringWithin cuenta lotes que vencen dentro de los próximos days días.
func (r *BatchRepo) CountExpiringWithin(orgID string, now time.Time, days int) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT count(*) FROM product_batches
		 WHERE organization_id = $1 AND current_quantity > 0
		   AND expiry_date >= $2 AND expiry_date < $3`,
		orgID, now, now.AddDate(0, 0, days),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expiring: %w", err)
	}
	return n, nil
}

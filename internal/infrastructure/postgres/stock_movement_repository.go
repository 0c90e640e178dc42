package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, organization_id, location_id, product_id, type,
	quantity_change, quantity_before, quantity_after,
	reference_type, reference_id, reason, notes, batch_number, expiry_date,
	created_by, created_at`

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con
// pool o tx). Solo inserta: la tabla no admite UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un asiento del ledger.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.OrganizationID, m.LocationID, m.ProductID, m.Type,
		m.QuantityChange, m.QuantityBefore, m.QuantityAfter,
		nullable(m.ReferenceType), nullable(m.ReferenceID), nullable(m.Reason),
		nullable(m.Notes), nullable(m.BatchNumber), m.ExpiryDate,
		m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID dentro de la organización.
func (r *StockMovementRepo) GetByID(orgID, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE organization_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("movement", id)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista asientos de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(orgID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE organization_id = $1 AND product_id = $2`
	return r.list(query, []any{orgID, productID}, from, to, limit, offset)
}

// ListByLocation lista asientos de una ubicación en un rango de fechas.
func (r *StockMovementRepo) ListByLocation(orgID, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE organization_id = $1 AND location_id = $2`
	return r.list(query, []any{orgID, locationID}, from, to, limit, offset)
}

// ListRecent lista los últimos asientos de la organización.
func (r *StockMovementRepo) ListRecent(orgID string, limit int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func (r *StockMovementRepo) list(query string, args []any, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	pos := len(args) + 1
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var refType, refID, reason, notes, batch *string
	err := row.Scan(
		&m.ID, &m.OrganizationID, &m.LocationID, &m.ProductID, &m.Type,
		&m.QuantityChange, &m.QuantityBefore, &m.QuantityAfter,
		&refType, &refID, &reason, &notes, &batch, &m.ExpiryDate,
		&m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ReferenceType = deref(refType)
	m.ReferenceID = deref(refID)
	m.Reason = deref(reason)
	m.Notes = deref(notes)
	m.BatchNumber = deref(batch)
	return &m, nil
}

// nullable convierte cadena vacía en NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

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

var _ repository.SupplierOrderRepository = (*SupplierOrderRepo)(nil)

const orderColumns = `id, organization_id, supplier_id, reference, status,
	subtotal, shipping_cost, total, below_minimum, method_used,
	expected_delivery, sent_at, delivered_at, stock_processed_at,
	created_by, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, location_id, supplier_sku,
	product_name, quantity, quantity_received, unit_price, line_total, adjustment_note`

// SupplierOrderRepo implementación de pedidos a proveedor sobre PostgreSQL
// (usable con pool o tx).
type SupplierOrderRepo struct {
	q Querier
}

// NewSupplierOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierOrderRepository(q Querier) *SupplierOrderRepo {
	return &SupplierOrderRepo{q: q}
}

// Create persiste el pedido con sus líneas.
func (r *SupplierOrderRepo) Create(o *entity.SupplierOrder) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	ctx := context.Background()
	query := `
		INSERT INTO supplier_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.OrganizationID, o.SupplierID, nullable(o.Reference), o.Status,
		o.Subtotal, o.ShippingCost, o.Total, o.BelowMinimum, nullable(string(o.MethodUsed)),
		o.ExpectedDelivery, o.SentAt, o.DeliveredAt, o.StockProcessedAt,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("create order", o.Reference, err)
		}
		return fmt.Errorf("create supplier order: %w", err)
	}

	itemQuery := `
		INSERT INTO supplier_order_items (` + orderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = o.ID
		_, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.LocationID, nullable(item.SupplierSKU),
			item.ProductName, item.Quantity, item.QuantityReceived, item.UnitPrice,
			item.LineTotal, nullable(item.AdjustmentNote),
		)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un pedido con sus líneas.
func (r *SupplierOrderRepo) GetByID(orgID, id string) (*entity.SupplierOrder, error) {
	return r.get(orgID, id, false)
}

// GetByReference obtiene un pedido por su referencia externa.
func (r *SupplierOrderRepo) GetByReference(orgID, reference string) (*entity.SupplierOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM supplier_orders WHERE organization_id = $1 AND reference = $2`
	o, err := scanOrder(r.q.QueryRow(context.Background(), query, orgID, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("order", reference)
		}
		return nil, fmt.Errorf("get order by reference: %w", err)
	}
	if err := r.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetForUpdate bloquea el pedido (SELECT FOR UPDATE) para transiciones de
// estado y conciliación.
func (r *SupplierOrderRepo) GetForUpdate(orgID, id string) (*entity.SupplierOrder, error) {
	return r.get(orgID, id, true)
}

func (r *SupplierOrderRepo) get(orgID, id string, forUpdate bool) (*entity.SupplierOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM supplier_orders WHERE organization_id = $1 AND id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}
	o, err := scanOrder(r.q.QueryRow(context.Background(), query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus cambia el estado del pedido; delivered fija delivered_at.
func (r *SupplierOrderRepo) UpdateStatus(orgID, id string, status entity.OrderStatus, at time.Time) error {
	query := `
		UPDATE supplier_orders
		SET status = $3,
		    delivered_at = CASE WHEN $3 = 'delivered' THEN $4 ELSE delivered_at END,
		    updated_at = $4
		WHERE organization_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query, orgID, id, status, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewReferenceError("order", id)
	}
	return nil
}

// RecordSendingResult persiste el desenlace del envío y el estado resultante.
func (r *SupplierOrderRepo) RecordSendingResult(orgID, id string, result *entity.OrderSendingResult) error {
	status := entity.OrderSent
	if !result.Success {
		status = entity.OrderFailed
	}
	query := `
		UPDATE supplier_orders
		SET status = $3, method_used = $4, reference = $5,
		    sent_at = CASE WHEN $6 THEN $7 ELSE sent_at END,
		    error_message = $8, updated_at = now()
		WHERE organization_id = $1 AND id = $2`
	tag, err := r.q.Exec(context.Background(), query,
		orgID, id, status, result.MethodUsed, result.OrderReference,
		result.Success, result.SentAt, nullable(result.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("record sending result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewReferenceError("order", id)
	}
	return nil
}

// UpdateItemReceived persiste lo recibido de una línea.
func (r *SupplierOrderRepo) UpdateItemReceived(orgID, orderID, itemID string, received *entity.SupplierOrderItem) error {
	query := `
		UPDATE supplier_order_items i
		SET quantity_received = $4, adjustment_note = $5
		FROM supplier_orders o
		WHERE i.order_id = o.id AND o.organization_id = $1 AND i.order_id = $2 AND i.id = $3`
	tag, err := r.q.Exec(context.Background(), query,
		orgID, orderID, itemID, received.QuantityReceived, nullable(received.AdjustmentNote))
	if err != nil {
		return fmt.Errorf("update item received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewReferenceError("order item", itemID)
	}
	return nil
}

// MarkStockProcessed fija el guard de idempotencia de la conciliación.
func (r *SupplierOrderRepo) MarkStockProcessed(orgID, id string, at time.Time) error {
	query := `
		UPDATE supplier_orders
		SET stock_processed_at = $3, updated_at = $3
		WHERE organization_id = $1 AND id = $2 AND stock_processed_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query, orgID, id, at)
	if err != nil {
		return fmt.Errorf("mark stock processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError("mark stock processed", id, nil)
	}
	return nil
}

// ListByStatus lista pedidos de la organización en un estado.
func (r *SupplierOrderRepo) ListByStatus(orgID string, status entity.OrderStatus) ([]*entity.SupplierOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM supplier_orders WHERE organization_id = $1 AND status = $2
		ORDER BY created_at DESC`
	return r.listWithItems(query, orgID, status)
}

// ListOverdue lista pedidos en tránsito cuya entrega esperada ya pasó.
func (r *SupplierOrderRepo) ListOverdue(orgID string, now time.Time) ([]*entity.SupplierOrder, error) {
	query := `SELECT ` + orderColumns + `
		FROM supplier_orders
		WHERE organization_id = $1
		  AND status IN ('sent', 'confirmed', 'shipped')
		  AND expected_delivery IS NOT NULL AND expected_delivery < $2
		ORDER BY expected_delivery ASC`
	return r.listWithItems(query, orgID, now)
}

func (r *SupplierOrderRepo) listWithItems(query string, args ...any) ([]*entity.SupplierOrder, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var list []*entity.SupplierOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if err := r.loadItems(o); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *SupplierOrderRepo) loadItems(o *entity.SupplierOrder) error {
	query := `SELECT ` + orderItemColumns + `
		FROM supplier_order_items WHERE order_id = $1
		ORDER BY product_name`
	rows, err := r.q.Query(context.Background(), query, o.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	o.Items = nil
	for rows.Next() {
		var item entity.SupplierOrderItem
		var sku, note *string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.LocationID,
			&sku, &item.ProductName, &item.Quantity, &item.QuantityReceived,
			&item.UnitPrice, &item.LineTotal, &note); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.SupplierSKU = deref(sku)
		item.AdjustmentNote = deref(note)
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*entity.SupplierOrder, error) {
	var o entity.SupplierOrder
	var reference, method *string
	err := row.Scan(
		&o.ID, &o.OrganizationID, &o.SupplierID, &reference, &o.Status,
		&o.Subtotal, &o.ShippingCost, &o.Total, &o.BelowMinimum, &method,
		&o.ExpectedDelivery, &o.SentAt, &o.DeliveredAt, &o.StockProcessedAt,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Reference = deref(reference)
	o.MethodUsed = entity.OrderMethod(deref(method))
	return &o, nil
}

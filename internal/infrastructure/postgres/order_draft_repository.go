package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.OrderDraftRepository = (*OrderDraftRepo)(nil)

// OrderDraftRepo implementación de borradores de pedido sobre PostgreSQL.
// Las líneas sugeridas van como JSONB: el borrador es un documento de trabajo,
// no participa en joins.
type OrderDraftRepo struct {
	q Querier
}

// NewOrderDraftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderDraftRepository(q Querier) *OrderDraftRepo {
	return &OrderDraftRepo{q: q}
}

// Create persiste un borrador pendiente de aprobación.
func (r *OrderDraftRepo) Create(d *entity.OrderDraft) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshal draft items: %w", err)
	}
	query := `
		INSERT INTO order_drafts (id, organization_id, status, items, estimated_total, reason, created_at, decided_at, decided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.q.Exec(context.Background(), query,
		d.ID, d.OrganizationID, d.Status, items, d.EstimatedTotal,
		nullable(d.Reason), d.CreatedAt, d.DecidedAt, nullable(d.DecidedBy),
	)
	if err != nil {
		return fmt.Errorf("create order draft: %w", err)
	}
	return nil
}

// GetByID obtiene un borrador.
func (r *OrderDraftRepo) GetByID(orgID, id string) (*entity.OrderDraft, error) {
	query := `
		SELECT id, organization_id, status, items, estimated_total, reason, created_at, decided_at, decided_by
		FROM order_drafts WHERE organization_id = $1 AND id = $2`
	d, err := scanDraft(r.q.QueryRow(context.Background(), query, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceError("draft", id)
		}
		return nil, fmt.Errorf("get order draft: %w", err)
	}
	return d, nil
}

// Decide aprueba o rechaza un borrador aún pendiente.
func (r *OrderDraftRepo) Decide(orgID, id string, status entity.DraftStatus, decidedBy string, at time.Time) error {
	query := `
		UPDATE order_drafts
		SET status = $3, decided_by = $4, decided_at = $5
		WHERE organization_id = $1 AND id = $2 AND status = 'pending_approval'`
	tag, err := r.q.Exec(context.Background(), query, orgID, id, status, decidedBy, at)
	if err != nil {
		return fmt.Errorf("decide order draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewConflictError("decide draft", id, nil)
	}
	return nil
}

// ListPending lista los borradores en espera de aprobación.
func (r *OrderDraftRepo) ListPending(orgID string) ([]*entity.OrderDraft, error) {
	query := `
		SELECT id, organization_id, status, items, estimated_total, reason, created_at, decided_at, decided_by
		FROM order_drafts
		WHERE organization_id = $1 AND status = 'pending_approval'
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list pending drafts: %w", err)
	}
	defer rows.Close()

	var list []*entity.OrderDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order draft: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

func scanDraft(row pgx.Row) (*entity.OrderDraft, error) {
	var d entity.OrderDraft
	var items []byte
	var reason, decidedBy *string
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Status, &items, &d.EstimatedTotal,
		&reason, &d.CreatedAt, &d.DecidedAt, &decidedBy)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &d.Items); err != nil {
			return nil, fmt.Errorf("unmarshal draft items: %w", err)
		}
	}
	d.Reason = deref(reason)
	d.DecidedBy = deref(decidedBy)
	return &d, nil
}

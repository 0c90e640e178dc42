package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tu-usuario/medstock-pro/internal/domain/entity"
	"github.com/tu-usuario/medstock-pro/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo implementación de solicitudes de notificación sobre
// PostgreSQL. La entrega la hace un sistema externo que consume estas filas.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create registra una solicitud de notificación.
func (r *NotificationRepo) Create(n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notifications (id, organization_id, category, priority, title, message, action_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		n.ID, n.OrganizationID, n.Category, n.Priority,
		n.Title, n.Message, nullable(n.ActionURL), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByOrganization lista las notificaciones más recientes.
func (r *NotificationRepo) ListByOrganization(orgID string, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, organization_id, category, priority, title, message, action_url, created_at
		FROM notifications WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var actionURL *string
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.Category, &n.Priority,
			&n.Title, &n.Message, &actionURL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ActionURL = deref(actionURL)
		list = append(list, &n)
	}
	return list, rows.Err()
}
